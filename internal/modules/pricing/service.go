// README: Fare estimation adapter; holds one route's estimates keyed by ride class.
package pricing

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"ridebook/internal/types"
)

// Source produces priced estimates for every class on a route.
type Source interface {
	RouteEstimates(ctx context.Context, pickup, destination types.Location) (map[RideClass]FareEstimate, error)
}

// Estimator is owned by one booking form. Each input change supersedes the
// previous result before the new request completes; failures degrade to
// StateUnavailable and are never retried automatically.
type Estimator struct {
	source Source
	log    logrus.FieldLogger

	mu         sync.Mutex
	gen        uint64
	hasRoute   bool
	route      routeKey
	routeState State
	results    map[RideClass]FareEstimate
	class      RideClass
}

func NewEstimator(source Source, log logrus.FieldLogger) *Estimator {
	return &Estimator{source: source, log: log, routeState: StateUnavailable}
}

// Estimate returns the quote for the tuple, fetching when the route changed
// or no usable result is held for it.
func (e *Estimator) Estimate(ctx context.Context, pickup, destination types.Location, class RideClass) Quote {
	key := Key{Pickup: pickup, Destination: destination, RideClass: class}

	e.mu.Lock()
	if !pickup.Resolved() || !destination.Resolved() || !class.Valid() {
		e.supersedeLocked(key, StateUnavailable)
		e.mu.Unlock()
		return Quote{Key: key, State: StateUnavailable}
	}
	if e.hasRoute && e.route == key.route() && e.routeState == StateReady {
		if _, ok := e.results[class]; ok {
			e.class = class
			q := e.currentLocked()
			e.mu.Unlock()
			return q
		}
	}
	gen := e.supersedeLocked(key, StatePending)
	e.mu.Unlock()

	results, err := e.source.RouteEstimates(ctx, pickup, destination)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.log.WithField("route", key.String()).Debug("discarding superseded fare estimate")
		if cur := e.currentLocked(); cur.Key == key {
			return cur
		}
		return Quote{Key: key, State: StateUnavailable}
	}
	if err != nil {
		e.log.WithError(err).WithField("route", key.String()).Debug("fare estimate unavailable")
		e.routeState = StateUnavailable
		return e.currentLocked()
	}
	e.results = results
	e.routeState = StateReady
	return e.currentLocked()
}

// Current reports the quote for the most recent inputs without fetching.
func (e *Estimator) Current() Quote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentLocked()
}

// All returns every held estimate for the current route, in display order.
func (e *Estimator) All() []FareEstimate {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.routeState != StateReady {
		return nil
	}
	out := make([]FareEstimate, 0, len(e.results))
	for _, c := range AllClasses {
		if f, ok := e.results[c]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (e *Estimator) supersedeLocked(key Key, state State) uint64 {
	e.gen++
	e.hasRoute = true
	e.route = key.route()
	e.class = key.RideClass
	e.results = nil
	e.routeState = state
	return e.gen
}

func (e *Estimator) currentLocked() Quote {
	if !e.hasRoute {
		return Quote{State: StateUnavailable}
	}
	key := Key{Pickup: e.route.pickup, Destination: e.route.destination, RideClass: e.class}
	if e.routeState != StateReady {
		return Quote{Key: key, State: e.routeState}
	}
	f, ok := e.results[e.class]
	if !ok {
		return Quote{Key: key, State: StateUnavailable}
	}
	return Quote{Key: key, State: StateReady, Estimate: &f}
}
