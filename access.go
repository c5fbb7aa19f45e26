package xdom

import (
	"context"
	"sync/atomic"
)

// Access is implemented by *ReadAccess and *WriteAccess.
type Access interface {
	readAccess() *ReadAccess
}

// ReadAccess is the shared-access token handed to Manager.Read callbacks.
// It is valid only until the callback returns.
type ReadAccess struct {
	m     *Manager
	ctx   context.Context
	ended atomic.Bool
}

// WriteAccess is the exclusive-access token handed to Manager.Write
// callbacks. Every mutator requires one.
type WriteAccess struct {
	ReadAccess
}

func (r *ReadAccess) readAccess() *ReadAccess { return r }

// Context returns the context of the access scope.
func (r *ReadAccess) Context() context.Context { return r.ctx }

func (r *ReadAccess) check(op string) {
	if r == nil {
		violate(nil, &StructuralViolation{Op: op, Reason: "access token is nil"})
	}
	if r.ended.Load() {
		violate(r.m.logger, &StructuralViolation{Op: op, Reason: "access token used after its scope ended"})
	}
}

func (w *WriteAccess) check(op string) {
	if w == nil {
		violate(nil, &StructuralViolation{Op: op, Reason: "write access required"})
	}
	w.ReadAccess.check(op)
}

// Read runs fn with shared access. Reads may run concurrently with each
// other but never with a writer. Calling Write from inside fn deadlocks.
func (m *Manager) Read(ctx context.Context, fn func(*ReadAccess) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc := &ReadAccess{m: m, ctx: ctx}
	defer acc.ended.Store(true)
	return fn(acc)
}

// Write runs fn with exclusive access.
func (m *Manager) Write(ctx context.Context, fn func(*WriteAccess) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := &WriteAccess{ReadAccess: ReadAccess{m: m, ctx: ctx}}
	defer acc.ended.Store(true)
	return fn(acc)
}

// Root returns the bound root element of f.
func (r *ReadAccess) Root(f *File) Element {
	r.check("root")
	if f == nil {
		return nil
	}
	return f.root
}

// Root binds the root of f to contract type C.
func Root[C any](acc Access, f *File) C {
	return As[C](acc.readAccess().Root(f))
}

// ResolutionMap returns the cached name map of target-contract elements
// under scope. A cancelled context aborts the walk with
// ErrComputationAborted and leaves the cache untouched. Concurrent readers
// missing on the same map share one walk run under the first caller's
// context, so its cancellation aborts them too; they retry.
func (r *ReadAccess) ResolutionMap(scope Element, target *Contract) (*ResolutionMap, error) {
	r.check("resolution map")
	return resolutionMap(r.ctx, scope, target)
}
