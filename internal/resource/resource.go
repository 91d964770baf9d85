// Package resource models asynchronously produced values as explicit
// Pending/Resolved/Failed state so render logic can stay a pure function of
// that state.
package resource

import (
	"context"
	"errors"
	"strings"
)

type State int

const (
	StatePending State = iota
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Loader produces the value for one set of inputs.
type Loader[In comparable, T any] func(ctx context.Context, in In) (T, error)

// Job runs a single load. It is safe to run on any goroutine; the result
// must be handed back to Settle on the owner's goroutine.
type Job[T any] func(ctx context.Context) Result[T]

type Result[T any] struct {
	Resource   string
	generation uint64
	Value      T
	Err        error
}

// Snapshot is a read-only copy of a resource's state.
type Snapshot[T any] struct {
	State State
	Value T
	Err   error
}

func (s Snapshot[T]) Resolved() bool { return s.State == StateResolved }
func (s Snapshot[T]) Failed() bool   { return s.State == StateFailed }
func (s Snapshot[T]) Pending() bool  { return s.State == StatePending }

type Resource[In comparable, T any] struct {
	name       string
	loader     Loader[In, T]
	state      State
	value      T
	err        error
	inputs     In
	hasInputs  bool
	generation uint64
	loads      int
	closed     bool
}

func New[In comparable, T any](name string, loader Loader[In, T]) *Resource[In, T] {
	return &Resource[In, T]{
		name:   strings.TrimSpace(name),
		loader: loader,
		state:  StatePending,
	}
}

// Update starts a load when in differs from the inputs of the previous
// Update. Identical inputs return nil so an in-flight or finished load is
// never restarted.
func (r *Resource[In, T]) Update(in In) Job[T] {
	if r == nil || r.closed {
		return nil
	}
	if r.hasInputs && r.inputs == in {
		return nil
	}
	r.inputs = in
	r.hasInputs = true
	r.generation++
	r.loads++
	r.state = StatePending
	r.err = nil
	var zero T
	r.value = zero

	generation := r.generation
	loader := r.loader
	name := r.name
	return func(ctx context.Context) Result[T] {
		if loader == nil {
			return Result[T]{Resource: name, generation: generation, Err: errors.New(name + ": no loader configured")}
		}
		value, err := loader(ctx, in)
		return Result[T]{Resource: name, generation: generation, Value: value, Err: err}
	}
}

// Settle applies a finished load. Results from superseded loads, or results
// arriving after Close, are dropped and false is returned.
func (r *Resource[In, T]) Settle(result Result[T]) bool {
	if r == nil || r.closed || result.generation != r.generation {
		return false
	}
	if result.Err != nil {
		var zero T
		r.state = StateFailed
		r.value = zero
		r.err = result.Err
		return true
	}
	r.state = StateResolved
	r.value = result.Value
	r.err = nil
	return true
}

// SetValue force-resolves the resource without running the loader. Any load
// still in flight is superseded. The last inputs are kept, so a following
// Update with the same inputs stays a no-op.
func (r *Resource[In, T]) SetValue(value T) {
	if r == nil || r.closed {
		return
	}
	r.generation++
	r.state = StateResolved
	r.value = value
	r.err = nil
}

func (r *Resource[In, T]) Snapshot() Snapshot[T] {
	if r == nil {
		return Snapshot[T]{State: StatePending}
	}
	return Snapshot[T]{State: r.state, Value: r.value, Err: r.err}
}

func (r *Resource[In, T]) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// Loads reports how many loads Update has started.
func (r *Resource[In, T]) Loads() int {
	if r == nil {
		return 0
	}
	return r.loads
}

func (r *Resource[In, T]) Close() {
	if r == nil {
		return
	}
	r.closed = true
}

func (r *Resource[In, T]) Closed() bool {
	return r == nil || r.closed
}

// ErrorMessage extracts a readable message from a load error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	message := strings.TrimSpace(err.Error())
	if message == "" {
		return "unknown error"
	}
	return message
}
