// README: Ride state event journal backed by PostgreSQL (table from migrations/0001).
package ride

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridebook/internal/types"
)

// Recorder receives observed status changes. A nil Recorder is allowed
// wherever one is accepted.
type Recorder interface {
	Append(ctx context.Context, e *Event) error
}

type Journal struct {
	db *pgxpool.Pool
}

func NewJournal(db *pgxpool.Pool) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Append(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := j.db.Exec(ctx, `
		INSERT INTO ride_state_events (
			id, ride_id, from_status, to_status, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID,
		string(e.RideID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.Source,
		e.CreatedAt,
	)
	return err
}

// List returns a ride's events, oldest first.
func (j *Journal) List(ctx context.Context, rideID types.ID) ([]Event, error) {
	rows, err := j.db.Query(ctx, `
		SELECT id::text, ride_id, from_status, to_status, source, created_at
		FROM ride_state_events
		WHERE ride_id = $1
		ORDER BY created_at, id`, string(rideID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var rideID, from, to string
		if err := rows.Scan(&e.ID, &rideID, &from, &to, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RideID = types.ID(rideID)
		e.FromStatus, e.ToStatus = Status(from), Status(to)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Record appends an event if rec is set. Journal failures are returned
// but never undo the transition.
func Record(ctx context.Context, rec Recorder, id types.ID, from, to Status, source string) error {
	if rec == nil {
		return nil
	}
	return rec.Append(ctx, &Event{RideID: id, FromStatus: from, ToStatus: to, Source: source})
}
