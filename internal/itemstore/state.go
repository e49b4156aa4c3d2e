package itemstore

import (
	"slices"

	"github.com/idilsaglam/itemboard/internal/model"
)

// State is what the UI renders. Err is empty when there is no error.
type State struct {
	Items   []model.Item
	Loading bool
	Err     string
}

// HasError reports whether the last settled operation failed.
func (s State) HasError() bool { return s.Err != "" }

// clone returns a copy that shares no backing array with s.
func (s State) clone() State {
	s.Items = slices.Clone(s.Items)
	if s.Items == nil {
		s.Items = []model.Item{}
	}
	return s
}

// Transition is a pure state update.
type Transition func(State) State

func begin(s State) State {
	s.Loading = true
	s.Err = ""
	return s
}

func fetched(items []model.Item) Transition {
	return func(s State) State {
		s.Items = slices.Clone(items)
		return s
	}
}

// added appends to whatever Items holds when it is applied.
func added(it model.Item) Transition {
	return func(s State) State {
		s.Items = append(slices.Clone(s.Items), it)
		return s
	}
}

func failed(msg string) Transition {
	return func(s State) State {
		s.Err = msg
		return s
	}
}

func settled(s State) State {
	s.Loading = false
	return s
}

// Result is the settled outcome of an operation. Err is empty on success.
type Result[T any] struct {
	Value T
	Err   string
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.Err == "" }
