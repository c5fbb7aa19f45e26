// Package overlay persists user edits to a set as a delta against a static
// baseline. The effective set is recomputed from the current baseline on
// every load, so members added to the baseline later surface automatically.
package overlay

import "slices"

// Delta records additions and removals relative to a baseline.
type Delta struct {
	Added   []string `json:"added,omitempty" yaml:"added,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool { return len(d.Added) == 0 && len(d.Removed) == 0 }

// Effective returns baseline minus removed, followed by added members that
// are neither removed nor already present. Order is baseline order, then
// addition order.
func Effective(baseline []string, d Delta) []string {
	out := make([]string, 0, len(baseline)+len(d.Added))
	for _, x := range baseline {
		if slices.Contains(d.Removed, x) || slices.Contains(out, x) {
			continue
		}
		out = append(out, x)
	}
	for _, x := range d.Added {
		if slices.Contains(d.Removed, x) || slices.Contains(out, x) {
			continue
		}
		out = append(out, x)
	}
	return out
}

// Set edits a delta against a baseline.
type Set struct {
	baseline []string
	delta    Delta
}

// NewSet starts editing d against baseline.
func NewSet(baseline []string, d Delta) *Set {
	return &Set{
		baseline: slices.Clone(baseline),
		delta:    Delta{Added: slices.Clone(d.Added), Removed: slices.Clone(d.Removed)},
	}
}

// Add makes x a member. Re-adding a removed baseline member only forgets the
// removal.
func (s *Set) Add(x string) {
	if i := slices.Index(s.delta.Removed, x); i >= 0 {
		s.delta.Removed = slices.Delete(s.delta.Removed, i, i+1)
		return
	}
	if slices.Contains(s.baseline, x) || slices.Contains(s.delta.Added, x) {
		return
	}
	s.delta.Added = append(s.delta.Added, x)
}

// Remove drops x. Removing an added member only forgets the addition.
func (s *Set) Remove(x string) {
	if i := slices.Index(s.delta.Added, x); i >= 0 {
		s.delta.Added = slices.Delete(s.delta.Added, i, i+1)
		return
	}
	if !slices.Contains(s.baseline, x) || slices.Contains(s.delta.Removed, x) {
		return
	}
	s.delta.Removed = append(s.delta.Removed, x)
}

// Contains reports membership in the effective set.
func (s *Set) Contains(x string) bool { return slices.Contains(s.Effective(), x) }

// Effective returns the current effective members.
func (s *Set) Effective() []string { return Effective(s.baseline, s.delta) }

// Delta returns a copy of the delta to persist.
func (s *Set) Delta() Delta {
	return Delta{Added: slices.Clone(s.delta.Added), Removed: slices.Clone(s.delta.Removed)}
}
