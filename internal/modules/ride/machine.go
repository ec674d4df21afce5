// README: Pure derivations from a ride: step states, timeline, permitted actions, label and color.
package ride

import "time"

type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepPending   StepState = "pending"
	StepCancelled StepState = "cancelled"
)

// StepStatus places step relative to current on the non-cancelled path:
// steps at or before current are completed, the next one is current and
// the rest are pending.
func StepStatus(step, current Status) StepState {
	si, ci := step.rank(), current.rank()
	switch {
	case si < 0 || ci < 0:
		return StepPending
	case si <= ci:
		return StepCompleted
	case si == ci+1:
		return StepCurrent
	default:
		return StepPending
	}
}

var stepLabels = map[Status]string{
	StatusPending:        "Ride requested",
	StatusAccepted:       "Driver accepted",
	StatusDriverArriving: "Driver arriving",
	StatusInProgress:     "Trip in progress",
	StatusCompleted:      "Trip completed",
	StatusCancelled:      "Ride cancelled",
}

type TimelineStep struct {
	Step  Status     `json:"step"`
	Label string     `json:"label"`
	State StepState  `json:"state"`
	At    *time.Time `json:"at,omitempty"`
}

// Timeline renders the progress steps. A cancelled ride shows only the
// steps whose timestamps were populated, then the cancellation itself.
func Timeline(r Ride) []TimelineStep {
	if r.Status == StatusCancelled {
		var out []TimelineStep
		for _, step := range Steps {
			at := r.Timestamps.For(step)
			if at == nil {
				continue
			}
			out = append(out, TimelineStep{Step: step, Label: stepLabels[step], State: StepCompleted, At: at})
		}
		return append(out, TimelineStep{
			Step:  StatusCancelled,
			Label: stepLabels[StatusCancelled],
			State: StepCancelled,
			At:    r.Timestamps.CancelledAt,
		})
	}

	out := make([]TimelineStep, 0, len(Steps))
	for _, step := range Steps {
		out = append(out, TimelineStep{
			Step:  step,
			Label: stepLabels[step],
			State: StepStatus(step, r.Status),
			At:    r.Timestamps.For(step),
		})
	}
	return out
}

type Action string

const (
	ActionCancel     Action = "cancel"
	ActionRate       Action = "rate"
	ActionCallDriver Action = "call-driver"
)

func CanCancel(r Ride) bool {
	switch r.Status {
	case StatusPending, StatusAccepted, StatusDriverArriving:
		return true
	}
	return false
}

func CanRate(r Ride) bool {
	return r.Status == StatusCompleted && r.Rating == nil
}

func CanCallDriver(r Ride) bool {
	return (r.Status == StatusAccepted || r.Status == StatusDriverArriving) && r.Driver != nil
}

func AllowedActions(r Ride) []Action {
	out := []Action{}
	if CanCancel(r) {
		out = append(out, ActionCancel)
	}
	if CanRate(r) {
		out = append(out, ActionRate)
	}
	if CanCallDriver(r) {
		out = append(out, ActionCallDriver)
	}
	return out
}

var statusLabels = map[Status]string{
	StatusPending:        "Pending",
	StatusAccepted:       "Accepted",
	StatusDriverArriving: "Driver Arriving",
	StatusInProgress:     "In Progress",
	StatusCompleted:      "Completed",
	StatusCancelled:      "Cancelled",
}

var statusColors = map[Status]string{
	StatusPending:        "orange",
	StatusAccepted:       "blue",
	StatusDriverArriving: "indigo",
	StatusInProgress:     "purple",
	StatusCompleted:      "green",
	StatusCancelled:      "red",
}

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return "gray"
}
