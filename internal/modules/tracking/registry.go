// README: Sync sessions keyed by owner and ride id; acquire on enter, release on exit.
package tracking

import (
	"context"
	"sync"

	"ridebook/internal/modules/ride"
	"ridebook/internal/types"
)

// Handle is one consumer's hold on a ride view.
type Handle struct {
	View    *ride.View
	Session *Session

	release func()
}

// Release drops this hold. Calling it more than once is a no-op.
func (h *Handle) Release() {
	h.release()
}

// key scopes a view to the caller that opened it. Two callers watching one
// ride never share a view, a loop or a token.
type key struct {
	owner string
	id    types.ID
}

type entry struct {
	view    *ride.View
	session *Session
	refs    int
}

// Registry shares one view and one sync loop per owner and ride between
// that owner's consumers. A loop ends with its last release or with the
// registry's base context.
type Registry struct {
	base   context.Context
	syncer *Syncer

	mu      sync.Mutex
	entries map[key]*entry
}

func NewRegistry(base context.Context, syncer *Syncer) *Registry {
	return &Registry{base: base, syncer: syncer, entries: make(map[key]*entry)}
}

// Acquire takes owner's hold on id, starting its loop if none runs. A new
// loop inherits ctx's values (the owner's token) but not its cancellation.
func (r *Registry) Acquire(ctx context.Context, owner string, id types.ID) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{owner: owner, id: id}
	e, ok := r.entries[k]
	if !ok {
		view := ride.NewView(id)
		e = &entry{view: view, session: r.start(ctx, view)}
		r.entries[k] = e
	}
	e.refs++

	var once sync.Once
	return &Handle{
		View:    e.view,
		Session: e.session,
		release: func() { once.Do(func() { r.releaseEntry(k, e) }) },
	}
}

func (r *Registry) start(ctx context.Context, view *ride.View) *Session {
	parent, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(r.base, cancel)
	sess := r.syncer.Start(parent, view)
	go func() {
		<-sess.Done()
		stop()
		cancel()
	}()
	return sess
}

// Lookup returns owner's held view for id without taking a reference.
func (r *Registry) Lookup(owner string, id types.ID) (*ride.View, *Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key{owner: owner, id: id}]
	if !ok {
		return nil, nil, false
	}
	return e.view, e.session, true
}

// Release drops one of owner's references for id; it reports whether one
// was held. Other owners' holds on the same ride are untouched.
func (r *Registry) Release(owner string, id types.ID) bool {
	k := key{owner: owner, id: id}
	r.mu.Lock()
	e, ok := r.entries[k]
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.releaseEntry(k, e)
	return true
}

// Len is the number of views currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close stops every session.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[key]*entry)
	r.mu.Unlock()
	for _, e := range entries {
		e.session.Stop()
	}
}

func (r *Registry) releaseEntry(k key, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[k]; !ok || cur != e || e.refs == 0 {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(r.entries, k)
		e.session.Stop()
	}
}
