// Package panel holds the list-with-mutations views of the console: courses,
// quizzes and questions. Panels fetch on Refresh, re-fetch when a matching
// mutation is published on the events bus, and never apply optimistic updates.
package panel

import (
	"errors"
	"slices"
	"sync"
)

var (
	// ErrDeclined is returned when the user declines a confirmation. No request was sent.
	ErrDeclined = errors.New("cancelled")
	// ErrWrongRole is returned when an operation is not available to the panel's role.
	ErrWrongRole = errors.New("not available for this role")
	// ErrNothingSelected is returned by DeleteSelected with an empty selection.
	ErrNothingSelected = errors.New("no questions selected")
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// list is a generation-tagged slice. Every refresh takes a new generation and
// only the latest one may replace the items, so a slow earlier fetch can
// never overwrite a newer result.
type list[T any] struct {
	mu     sync.Mutex
	gen    uint64
	items  []T
	loaded bool
}

func (l *list[T]) begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	return l.gen
}

// apply stores items if gen is still the latest generation.
func (l *list[T]) apply(gen uint64, items []T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return false
	}
	l.items = items
	l.loaded = true
	return true
}

func (l *list[T]) get() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

func (l *list[T]) isLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}
