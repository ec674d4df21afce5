package infra

import (
	"context"
	"testing"
)

func TestNewFirebaseVerifier_RequiresProject(t *testing.T) {
	if _, err := NewFirebaseVerifier(context.Background(), FirebaseOptions{}); err == nil {
		t.Fatal("expected an error without a project id")
	}
}
