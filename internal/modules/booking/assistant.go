// README: Booking assistant: free-text message to a prefilled Form. It never submits.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ridebook/internal/ai"
	"ridebook/internal/modules/pricing"
	"ridebook/internal/types"
)

// Quota meters assistant calls per user. quota.Service implements it.
type Quota interface {
	Use(ctx context.Context, uid string) error
}

// Locations resolves addresses and lists a user's recent places.
// location.Service implements it.
type Locations interface {
	Resolve(ctx context.Context, in types.Location) (types.Location, error)
	Recent(ctx context.Context, userID string) ([]types.Location, error)
}

// Draft is the assistant's suggestion. Missing names the form fields the
// user still has to fill in.
type Draft struct {
	Form    Form     `json:"form"`
	Reply   string   `json:"reply"`
	Missing []string `json:"missing"`
}

type Assistant struct {
	parser    ai.DraftParser
	quota     Quota
	locations Locations
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewAssistant accepts a nil quota (unmetered).
func NewAssistant(parser ai.DraftParser, quota Quota, locations Locations, log logrus.FieldLogger) *Assistant {
	return &Assistant{parser: parser, quota: quota, locations: locations, log: log, now: time.Now}
}

// Draft turns message into a form prefill. current, when set, is the
// pickup used if the message names none.
func (a *Assistant) Draft(ctx context.Context, uid, message string, current *types.Location) (*Draft, error) {
	if a.quota != nil {
		if err := a.quota.Use(ctx, uid); err != nil {
			return nil, err
		}
	}

	now := a.now()
	recent, err := a.locations.Recent(ctx, uid)
	if err != nil {
		a.log.WithError(err).Warn("recent locations unavailable for draft")
	}
	hints := map[string]string{
		"current_time":     now.Format(time.RFC3339),
		"recent_locations": joinAddresses(recent),
	}
	if current != nil {
		hints["user_location"] = current.Address
	}

	parsed, err := a.parser.ParseRideRequest(ctx, message, hints)
	if err != nil {
		return nil, fmt.Errorf("parse ride request: %w", err)
	}

	d := &Draft{
		Reply: parsed.Reply,
		Form: Form{
			RideClass:  pricing.ClassEconomy,
			Passengers: ClampPassengers(parsed.Passengers),
			Notes:      strings.TrimSpace(parsed.Notes),
		},
	}
	if c := pricing.RideClass(parsed.RideClass); c.Valid() {
		d.Form.RideClass = c
	}

	switch {
	case parsed.Pickup != nil && strings.TrimSpace(*parsed.Pickup) != "":
		d.Form.Pickup = a.place(ctx, *parsed.Pickup, recent)
	case current != nil:
		d.Form.Pickup = *current
	}
	if parsed.Destination != nil && strings.TrimSpace(*parsed.Destination) != "" {
		d.Form.Destination = a.place(ctx, *parsed.Destination, recent)
	}
	if parsed.PickupTime != nil {
		if t, err := time.Parse(time.RFC3339, *parsed.PickupTime); err == nil && t.After(now) && t.Sub(now) <= MaxScheduleAhead {
			t = t.UTC()
			d.Form.ScheduledTime = &t
		}
	}

	if !d.Form.Pickup.Resolved() {
		d.Missing = append(d.Missing, "pickup")
	}
	if !d.Form.Destination.Resolved() {
		d.Missing = append(d.Missing, "destination")
	}
	d.Missing = append(d.Missing, "paymentMethod")
	return d, nil
}

// place prefers a recent location with the same address, then the resolver.
// An unresolvable address is kept as typed.
func (a *Assistant) place(ctx context.Context, address string, recent []types.Location) types.Location {
	in := types.Location{Address: strings.TrimSpace(address)}
	for _, r := range recent {
		if r.SameAddress(in) && r.Resolved() {
			return r
		}
	}
	loc, err := a.locations.Resolve(ctx, in)
	if err != nil {
		a.log.WithError(err).WithField("address", in.Address).Debug("draft location unresolved")
		return in
	}
	return loc
}

func joinAddresses(locs []types.Location) string {
	parts := make([]string, 0, len(locs))
	for _, l := range locs {
		parts = append(parts, l.Address)
	}
	return strings.Join(parts, "; ")
}
