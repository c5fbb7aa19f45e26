package xdom

// ModificationTracker reports a monotonically increasing stamp. Hosts bump it
// on every structurally relevant edit; the engine only reads it. Cached
// results captured under one stamp are discarded when the stamp moves.
type ModificationTracker interface {
	ModificationCount() int64
}

// TrackerFunc adapts a function to ModificationTracker.
type TrackerFunc func() int64

func (f TrackerFunc) ModificationCount() int64 { return f() }
