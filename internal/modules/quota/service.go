// README: Monthly allowance for free-text booking drafts.
package quota

import (
	"context"
	"errors"
	"time"
)

// Service orchestrates draft allowance logic.
type Service struct {
	store *Store
	now   func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Use deducts one draft from the user's monthly allowance. A missing row
// is created and the draft consumed immediately.
func (s *Service) Use(ctx context.Context, uid string) error {
	now := s.now()
	err := s.store.Use(ctx, uid, now)
	if !errors.Is(err, ErrExhausted) {
		return err
	}

	// Row may be missing: create it, then retry the deduction once.
	if initErr := s.store.EnsureUser(ctx, uid, now); initErr != nil {
		return initErr
	}
	return s.store.Use(ctx, uid, now)
}

func (s *Service) Remaining(ctx context.Context, uid string) (int, error) {
	return s.store.Remaining(ctx, uid, s.now())
}
