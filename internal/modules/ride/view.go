// README: Single-owner state container for one ride view (cached ride, pending action, rating prompt, notices).
package ride

import (
	"sync"
	"time"

	"ridebook/internal/types"
)

type Fatal string

const (
	FatalNone     Fatal = ""
	FatalNotFound Fatal = "not-found"
)

// RatingPrompt keeps what the user entered so a failed rate can be retried.
type RatingPrompt struct {
	Open    bool   `json:"open"`
	Value   int    `json:"value,omitempty"`
	Comment string `json:"comment,omitempty"`
	Error   string `json:"error,omitempty"`
}

// View holds the cached ride for one consumer. Every mutation goes through
// its methods, one at a time.
type View struct {
	id types.ID

	mu      sync.Mutex
	ride    Ride
	loaded  bool
	pending Action
	prompt  RatingPrompt
	notices []string
	fatal   Fatal
}

func NewView(id types.ID) *View {
	return &View{id: id}
}

func (v *View) ID() types.ID {
	return v.id
}

// Ride returns the cached copy and whether one has been loaded.
func (v *View) Ride() (Ride, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ride, v.loaded
}

// Apply merges a fetched ride and reports the status before and after.
func (v *View) Apply(remote Ride) (from, to Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	from = v.ride.Status
	if !v.loaded {
		v.ride = remote
		v.ride.ID = v.id
		v.loaded = true
	} else {
		v.ride = Merge(v.ride, remote)
	}
	return from, v.ride.Status
}

// SetFatal records a fatal condition; it returns false if one was already set.
func (v *View) SetFatal(f Fatal) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.fatal != FatalNone {
		return false
	}
	v.fatal = f
	return true
}

func (v *View) Fatal() Fatal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fatal
}

func (v *View) PendingAction() Action {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending
}

func (v *View) RatingPrompt() RatingPrompt {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.prompt
}

// OpenRatingPrompt opens the prompt if the ride can still be rated.
func (v *View) OpenRatingPrompt() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded || !CanRate(v.ride) {
		return false
	}
	v.prompt.Open = true
	return true
}

func (v *View) CloseRatingPrompt() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prompt = RatingPrompt{}
}

// TakeNotice pops the oldest queued notice.
func (v *View) TakeNotice() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.notices) == 0 {
		return "", false
	}
	n := v.notices[0]
	v.notices = v.notices[1:]
	return n, true
}

// ReadModel snapshots the view for presentation.
func (v *View) ReadModel(currency string) (ReadModel, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded {
		return ReadModel{RideID: v.id, Fatal: v.fatal}, false
	}
	rm := NewReadModel(v.ride, currency)
	rm.PendingAction = v.pending
	rm.RatingPrompt = v.prompt
	rm.Fatal = v.fatal
	return rm, true
}

// begin claims the action slot after re-checking the guard under the lock.
func (v *View) begin(a Action, allowed func(Ride) bool) (Ride, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded {
		return Ride{}, ErrNotLoaded
	}
	if v.pending != "" {
		return Ride{}, ErrActionInFlight
	}
	if !allowed(v.ride) {
		return Ride{}, ErrActionNotAllowed
	}
	v.pending = a
	return v.ride, nil
}

func (v *View) end() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = ""
}

func (v *View) notice(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, msg)
}

func (v *View) setPrompt(p RatingPrompt) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prompt = p
}

// markCancelled applies a successful cancel. remote may be nil.
func (v *View) markCancelled(remote *Ride, now time.Time) (from Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	from = v.ride.Status
	if remote != nil {
		v.ride = Merge(v.ride, *remote)
	}
	v.ride.Status = StatusCancelled
	if v.ride.Timestamps.CancelledAt == nil {
		v.ride.Timestamps.CancelledAt = &now
	}
	return from
}

// markRated applies a successful rate and closes the prompt.
func (v *View) markRated(remote *Ride, rating Rating) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if remote != nil {
		v.ride = Merge(v.ride, *remote)
	}
	if v.ride.Rating == nil {
		v.ride.Rating = &rating
	}
	v.prompt = RatingPrompt{}
}
