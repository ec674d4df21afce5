// README: Ride action handlers (cancel, rate) gated by the status machine.
package ride

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"ridebook/internal/backend"
	"ridebook/internal/types"
)

const MaxCommentLength = 500

const (
	msgCancelFailed = "Unable to cancel ride. Please try again."
	msgRateFailed   = "Unable to submit rating. Please try again."
)

// Authority performs the state-changing calls. Store implements it.
type Authority interface {
	Cancel(ctx context.Context, id types.ID, reason string) (*Ride, error)
	Rate(ctx context.Context, id types.ID, driverID string, rating Rating) (*Ride, error)
}

type Service struct {
	authority Authority
	recorder  Recorder
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewService(authority Authority, recorder Recorder, log logrus.FieldLogger) *Service {
	return &Service{authority: authority, recorder: recorder, log: log, now: time.Now}
}

// Cancel cancels the view's ride. On success the ride is marked cancelled
// locally and reconcile (if set) runs once. On failure nothing changes and
// one notice is queued; the action stays retryable.
func (s *Service) Cancel(ctx context.Context, v *View, reason string, reconcile func(context.Context)) error {
	if _, err := v.begin(ActionCancel, CanCancel); err != nil {
		return err
	}

	remote, err := s.authority.Cancel(ctx, v.ID(), strings.TrimSpace(reason))
	if err != nil {
		v.end()
		v.notice(failureMessage(err, msgCancelFailed))
		s.log.WithError(err).WithFields(logrus.Fields{"ride_id": v.ID(), "action": ActionCancel}).Warn("ride action failed")
		return fmt.Errorf("cancel ride %s: %w", v.ID(), err)
	}

	from := v.markCancelled(remote, s.now().UTC())
	v.end()
	s.record(ctx, v.ID(), from, StatusCancelled, SourceCancel)
	s.log.WithFields(logrus.Fields{"ride_id": v.ID(), "status": StatusCancelled}).Info("ride cancelled")

	if reconcile != nil {
		reconcile(ctx)
	}
	return nil
}

// Rate rates the driver of a completed ride. The prompt keeps the entered
// value and comment until the call succeeds. A ride without a driver has
// no one to rate.
func (s *Service) Rate(ctx context.Context, v *View, value int, comment string) error {
	r, err := v.begin(ActionRate, rateable)
	if err != nil {
		return err
	}

	comment = strings.TrimSpace(comment)
	prompt := RatingPrompt{Open: true, Value: value, Comment: comment}
	switch {
	case value < 1 || value > 5:
		prompt.Error = "Rating must be between 1 and 5."
	case utf8.RuneCountInString(comment) > MaxCommentLength:
		prompt.Error = fmt.Sprintf("Comment must be at most %d characters.", MaxCommentLength)
	}
	if prompt.Error != "" {
		v.setPrompt(prompt)
		v.end()
		return fmt.Errorf("%w: %s", ErrInvalidRating, prompt.Error)
	}
	v.setPrompt(prompt)

	rating := Rating{Value: value, Comment: comment}
	remote, err := s.authority.Rate(ctx, v.ID(), r.Driver.ID, rating)
	if err != nil {
		msg := failureMessage(err, msgRateFailed)
		prompt.Error = msg
		v.setPrompt(prompt)
		v.end()
		v.notice(msg)
		s.log.WithError(err).WithFields(logrus.Fields{"ride_id": v.ID(), "action": ActionRate}).Warn("ride action failed")
		return fmt.Errorf("rate ride %s: %w", v.ID(), err)
	}

	v.markRated(remote, rating)
	v.end()
	s.record(ctx, v.ID(), r.Status, r.Status, SourceRate)
	return nil
}

func rateable(r Ride) bool {
	return CanRate(r) && r.Driver != nil && r.Driver.ID != ""
}

func (s *Service) record(ctx context.Context, id types.ID, from, to Status, source string) {
	if err := Record(ctx, s.recorder, id, from, to, source); err != nil {
		s.log.WithError(err).WithField("ride_id", id).Warn("journal append failed")
	}
}

func failureMessage(err error, fallback string) string {
	if m := backend.Message(err); m != "" {
		return m
	}
	return fallback
}
