package quota

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles draft_quota persistence.
type Store struct {
	db      *pgxpool.Pool
	monthly int
}

func NewStore(db *pgxpool.Pool, monthly int) *Store {
	if monthly <= 0 {
		monthly = DefaultMonthly
	}
	return &Store{db: db, monthly: monthly}
}

func month(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// Use atomically checks the monthly allowance and deducts one draft. The
// counter resets when last_reset_month is behind the current month.
// Returns ErrExhausted when no row is updated (allowance spent or user absent).
func (s *Store) Use(ctx context.Context, uid string, now time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE draft_quota SET
			drafts_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE drafts_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR drafts_remaining > 0)
	`, month(now), s.monthly, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExhausted
	}
	return nil
}

// EnsureUser inserts a row with the full allowance; existing rows are left alone.
func (s *Store) EnsureUser(ctx context.Context, uid string, now time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO draft_quota (uid, drafts_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, s.monthly, month(now))
	return err
}

// Remaining reports the drafts left this month, without consuming one.
func (s *Store) Remaining(ctx context.Context, uid string, now time.Time) (int, error) {
	var remaining int
	var last string
	err := s.db.QueryRow(ctx, `
		SELECT drafts_remaining, last_reset_month FROM draft_quota WHERE uid = $1
	`, uid).Scan(&remaining, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.monthly, nil
	}
	if err != nil {
		return 0, err
	}
	if last < month(now) {
		return s.monthly, nil
	}
	return remaining, nil
}
