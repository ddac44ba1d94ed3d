package entrylist

import (
	"fmt"
	"slices"
)

// Record is a sub-record that can absorb raw string input into one of its
// fields. Single-field records ignore the selector.
type Record[T any] interface {
	WithField(selector int, input string) T
}

// Entry pairs an identity with a value.
type Entry[T any] struct {
	ID    int
	Value T
}

// Identity selects how identities are assigned and retired.
type Identity int

const (
	// Stable assigns identities from a monotonically increasing counter.
	Stable Identity = iota
	// Positional labels entries by index and relabels on removal.
	Positional
)

func (i Identity) String() string {
	switch i {
	case Stable:
		return "stable"
	case Positional:
		return "positional"
	default:
		return fmt.Sprintf("Identity(%d)", int(i))
	}
}

// ParseIdentity parses "stable" or "positional".
func ParseIdentity(s string) (Identity, error) {
	switch s {
	case "", "stable":
		return Stable, nil
	case "positional":
		return Positional, nil
	default:
		return Stable, fmt.Errorf("unknown identity strategy %q: must be stable or positional", s)
	}
}

// Option configures a List.
type Option[T Record[T]] func(*List[T])

// WithIdentity sets the identity strategy. Default: Stable.
func WithIdentity[T Record[T]](mode Identity) Option[T] {
	return func(l *List[T]) {
		l.mode = mode
	}
}

// WithDispose registers a hook called with the value of every removed entry.
func WithDispose[T Record[T]](fn func(T)) Option[T] {
	return func(l *List[T]) {
		l.dispose = fn
	}
}

// List is an ordered collection of identity-keyed records.
//
// A List is owned by a single edit session and is not safe for concurrent use.
type List[T Record[T]] struct {
	entries []Entry[T]
	next    int
	mode    Identity
	dispose func(T)

	// present is false for a collection loaded as absent and never added to;
	// Snapshot then reports nil rather than an empty slice.
	present bool
}

// New creates an empty, present list.
func New[T Record[T]](opts ...Option[T]) *List[T] {
	l := &List[T]{present: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// From loads an existing collection, labelling entries 0..n-1.
// A nil values slice marks the collection as absent.
func From[T Record[T]](values []T, opts ...Option[T]) *List[T] {
	l := &List[T]{
		entries: make([]Entry[T], len(values)),
		next:    len(values),
		present: values != nil,
	}
	for i, v := range values {
		l.entries[i] = Entry[T]{ID: i, Value: v}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mode returns the identity strategy in use.
func (l *List[T]) Mode() Identity {
	return l.mode
}

// Add appends a zero-valued entry and returns its identity.
func (l *List[T]) Add() int {
	var id int
	switch l.mode {
	case Positional:
		id = len(l.entries)
	default:
		id = l.next
		l.next++
	}

	var zero T
	l.entries = append(l.entries, Entry[T]{ID: id, Value: zero})
	l.present = true
	return id
}

// Remove deletes the entry with the given identity and disposes its value.
// Under Positional identity the survivors are relabelled 0..n-1.
// Returns false if no entry has that identity.
func (l *List[T]) Remove(id int) bool {
	idx := l.index(id)
	if idx < 0 {
		return false
	}

	removed := l.entries[idx].Value
	l.entries = slices.Delete(l.entries, idx, idx+1)

	if l.mode == Positional {
		for i := range l.entries {
			l.entries[i].ID = i
		}
	}

	if l.dispose != nil {
		l.dispose(removed)
	}
	return true
}

// Update routes input into the field named by selector of the entry with the
// given identity. Returns false if no entry has that identity.
func (l *List[T]) Update(id, selector int, input string) bool {
	idx := l.index(id)
	if idx < 0 {
		return false
	}
	l.entries[idx].Value = l.entries[idx].Value.WithField(selector, input)
	return true
}

// Get returns the value of the entry with the given identity.
func (l *List[T]) Get(id int) (T, bool) {
	idx := l.index(id)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return l.entries[idx].Value, true
}

// Len returns the number of entries.
func (l *List[T]) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the keyed sequence, in order.
func (l *List[T]) Entries() []Entry[T] {
	return slices.Clone(l.entries)
}

// IDs returns the identities in order.
func (l *List[T]) IDs() []int {
	ids := make([]int, len(l.entries))
	for i, e := range l.entries {
		ids[i] = e.ID
	}
	return ids
}

// Snapshot returns the values in order with identities discarded.
// An absent collection that was never added to yields nil.
func (l *List[T]) Snapshot() []T {
	if !l.present && len(l.entries) == 0 {
		return nil
	}
	out := make([]T, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Value
	}
	return out
}

func (l *List[T]) index(id int) int {
	return slices.IndexFunc(l.entries, func(e Entry[T]) bool {
		return e.ID == id
	})
}
