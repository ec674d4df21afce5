// README: Live ride sync: periodic single-flight refresh of one ride view, bound to the view's lifetime.
package tracking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"ridebook/internal/modules/ride"
	"ridebook/internal/types"
)

const DefaultPeriod = 10 * time.Second

var (
	ErrClosed = errors.New("sync session closed")
	ErrBusy   = errors.New("refresh already in flight")
)

// Fetcher reads the authoritative ride. ride.Store implements it.
type Fetcher interface {
	Get(ctx context.Context, id types.ID) (*ride.Ride, error)
}

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) Chan() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()                  { s.t.Stop() }

type Syncer struct {
	fetcher  Fetcher
	recorder ride.Recorder
	period   time.Duration
	log      logrus.FieldLogger

	newTicker func(time.Duration) Ticker
}

func NewSyncer(fetcher Fetcher, recorder ride.Recorder, period time.Duration, log logrus.FieldLogger) *Syncer {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Syncer{
		fetcher:  fetcher,
		recorder: recorder,
		period:   period,
		log:      log,
		newTicker: func(d time.Duration) Ticker {
			return stdTicker{t: time.NewTicker(d)}
		},
	}
}

// Session is one running sync loop. It refreshes immediately, then once per
// period, until the ride is terminal, the view is fatal, Stop is called or
// the parent context ends.
type Session struct {
	syncer *Syncer
	view   *ride.View
	log    logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	inFlight atomic.Bool
	polls    atomic.Int64
	wake     chan struct{}
	done     chan struct{}
	fetches  sync.WaitGroup

	mu    sync.Mutex
	torn  bool
	ended bool
}

func (s *Syncer) Start(parent context.Context, view *ride.View) *Session {
	ctx, cancel := context.WithCancel(parent)
	sess := &Session{
		syncer: s,
		view:   view,
		log:    s.log.WithField("ride_id", view.ID()),
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go sess.run()
	return sess
}

// Stop tears the session down. Results still in flight are discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	s.torn = true
	s.mu.Unlock()
	s.cancel()
}

// Done is closed once the loop and its in-flight refresh have exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) View() *ride.View {
	return s.view
}

// Polls is the number of refresh calls issued so far.
func (s *Session) Polls() int64 {
	return s.polls.Load()
}

// Reconcile performs one refresh now, outside the tick schedule. It shares
// the single-flight slot with the loop and returns ErrBusy if a refresh is
// already outstanding. It still runs after the loop has ended on a terminal
// ride; only Stop or the parent context close the session to it. The loop is
// woken afterwards so it notices a terminal status without waiting a period.
func (s *Session) Reconcile(ctx context.Context) error {
	defer s.signal()
	if s.isTorn() {
		return ErrClosed
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.inFlight.Store(false)
	return s.fetchAndApply(ctx)
}

func (s *Session) run() {
	defer close(s.done)
	defer s.cancel()
	defer s.fetches.Wait()

	ticker := s.syncer.newTicker(s.syncer.period)
	defer ticker.Stop()

	if !s.finished() {
		s.tick()
	}
	for {
		if s.finished() {
			s.mu.Lock()
			s.ended = true
			s.mu.Unlock()
			s.log.WithField("status", s.status()).Debug("ride sync stopped")
			return
		}
		select {
		case <-s.ctx.Done():
			s.mu.Lock()
			s.torn = true
			s.mu.Unlock()
			return
		case <-s.wake:
		case <-ticker.Chan():
			if s.finished() {
				continue
			}
			s.tick()
		}
	}
}

// tick starts a refresh unless one is outstanding; overlapping ticks are dropped.
func (s *Session) tick() {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Debug("refresh in flight; skipping tick")
		return
	}
	s.fetches.Add(1)
	go func() {
		defer s.fetches.Done()
		defer s.inFlight.Store(false)
		_ = s.fetchAndApply(s.ctx)
	}()
}

func (s *Session) fetchAndApply(ctx context.Context) error {
	s.polls.Add(1)
	r, err := s.syncer.fetcher.Get(ctx, s.view.ID())

	s.mu.Lock()
	if s.closedLocked() {
		s.mu.Unlock()
		s.log.Debug("discarding refresh result after teardown")
		return ErrClosed
	}
	var from, to ride.Status
	if err == nil {
		from, to = s.view.Apply(*r)
	} else if errors.Is(err, ride.ErrNotFound) {
		if s.view.SetFatal(ride.FatalNotFound) {
			s.log.WithError(err).Error("ride no longer exists")
		}
	}
	s.mu.Unlock()
	s.signal()

	if err != nil {
		if !errors.Is(err, ride.ErrNotFound) {
			s.log.WithError(err).Warn("ride refresh failed")
		}
		return err
	}
	if from != "" && from != to {
		s.log.WithFields(logrus.Fields{"from": from, "status": to}).Info("ride status changed")
		if err := ride.Record(ctx, s.syncer.recorder, s.view.ID(), from, to, ride.SourceSync); err != nil {
			s.log.WithError(err).Warn("journal append failed")
		}
	}
	return nil
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) isTorn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedLocked()
}

// closedLocked reports a teardown. A loop that ended on a terminal ride
// cancels its own context but is not torn down.
func (s *Session) closedLocked() bool {
	return s.torn || (s.ctx.Err() != nil && !s.ended)
}

func (s *Session) finished() bool {
	if s.view.Fatal() != ride.FatalNone {
		return true
	}
	r, ok := s.view.Ride()
	return ok && r.Status.IsTerminal()
}

func (s *Session) status() ride.Status {
	r, _ := s.view.Ride()
	return r.Status
}
