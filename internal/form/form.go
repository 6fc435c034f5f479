// Package form holds the validation state shared by the authentication
// screens. Locally computed and server-reported validation outcomes both land
// in the same per-rule slot.
package form

import (
	"sync"

	"github.com/webapis/webcom/internal/validation"
)

// State holds one entry per validation rule identity.
type State struct {
	Validations map[validation.Type]validation.Entry
	InputCount  int
}

func initialState() State {
	return State{Validations: make(map[validation.Type]validation.Entry)}
}

// clone copies the validations map so snapshots handed to callers and
// subscribers cannot alias the store's live state.
func (s State) clone() State {
	out := State{
		Validations: make(map[validation.Type]validation.Entry, len(s.Validations)),
		InputCount:  s.InputCount,
	}
	for k, v := range s.Validations {
		out.Validations[k] = v
	}
	return out
}

// Action is the closed set of form state transitions.
type Action interface {
	isFormAction()
}

// ClientValidation records the outcome of a locally computed check (blur).
type ClientValidation struct {
	Entry validation.Entry
}

// ServerValidation records a validation outcome decoded from an HTTP 400
// errors array.
type ServerValidation struct {
	Entry validation.Entry
}

// ResetValidationState returns one rule's slot to INACTIVE.
type ResetValidationState struct {
	Type validation.Type
}

// InputFocused returns one rule's slot to INACTIVE when the user re-enters
// the field.
type InputFocused struct {
	Type validation.Type
}

// InitFormValidationState drops all entries.
type InitFormValidationState struct{}

// IncInputCount bumps the number of registered inputs on the active screen.
type IncInputCount struct{}

func (ClientValidation) isFormAction()        {}
func (ServerValidation) isFormAction()        {}
func (ResetValidationState) isFormAction()    {}
func (InputFocused) isFormAction()            {}
func (InitFormValidationState) isFormAction() {}
func (IncInputCount) isFormAction()           {}

// mergeEntry is the merge policy for two outcomes of the same rule:
// last write wins regardless of source. A server round-trip completing after
// a client check overwrites the client result.
func mergeEntry(_, incoming validation.Entry) validation.Entry {
	return incoming
}

func reduce(state State, action Action) State {
	next := State{
		Validations: make(map[validation.Type]validation.Entry, len(state.Validations)),
		InputCount:  state.InputCount,
	}
	for k, v := range state.Validations {
		next.Validations[k] = v
	}

	switch a := action.(type) {
	case ClientValidation:
		next.Validations[a.Entry.Type] = mergeEntry(next.Validations[a.Entry.Type], a.Entry)
	case ServerValidation:
		next.Validations[a.Entry.Type] = mergeEntry(next.Validations[a.Entry.Type], a.Entry)
	case ResetValidationState:
		next.Validations[a.Type] = validation.Entry{Type: a.Type, State: validation.StateInactive}
	case InputFocused:
		next.Validations[a.Type] = validation.Entry{Type: a.Type, State: validation.StateInactive}
	case InitFormValidationState:
		next.Validations = make(map[validation.Type]validation.Entry)
		next.InputCount = 0
	case IncInputCount:
		next.InputCount++
	}

	return next
}

// Store applies actions to the form state and notifies subscribers.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  []func(State)
}

func NewStore() *Store {
	return &Store{state: initialState()}
}

func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.state = reduce(s.state, action)
	state := s.state.clone()
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Entry returns the stored outcome for one rule, if any.
func (s *Store) Entry(t validation.Type) (validation.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.Validations[t]
	return e, ok
}

// Subscribe registers a callback invoked after every dispatch.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
