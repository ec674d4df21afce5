package ai

import (
	"context"
)

// DraftParser turns a free-text ride request into a RideDraft.
// hints carries context such as "current_time" and "recent_locations".
type DraftParser interface {
	ParseRideRequest(ctx context.Context, message string, hints map[string]string) (*RideDraft, error)
}
