// Package hangout holds the current user's conversation partner list and the
// per-partner message sequences, reconciled against the persisted snapshot
// and against inbound channel events.
package hangout

import (
	"strings"
	"sync"

	"github.com/webapis/webcom/internal/models"
)

// State is the in-memory view of one user's hangouts.
type State struct {
	Hangouts []models.Hangout
	// Current is the selected conversation partner, nil when none matches.
	Current *models.Hangout
	// Filtered is the derived view produced by FilterHangouts. It never
	// touches the persisted snapshot.
	Filtered []models.Hangout
	// Messages is the loaded sequence for the current partner.
	Messages []models.Message
	// SearchResults are server-side user search hits.
	SearchResults []models.User
	Search        string
	Loading       bool
	Error         string
}

// Action is the closed set of hangout state transitions.
type Action interface {
	isHangoutAction()
}

// LoadHangouts replaces the in-memory list with the persisted snapshot.
type LoadHangouts struct {
	Hangouts []models.Hangout
}

// SelectedUser turns a search-result user into an INVITE hangout.
type SelectedUser struct {
	User models.User
}

// SelectedHangout points Current at an existing list entry by username.
// A miss leaves Current nil; callers must check.
type SelectedHangout struct {
	Username string
}

// HangoutReceived is an inbound delivery event referencing a partner.
type HangoutReceived struct {
	Hangout models.Hangout
}

// SearchedHangout records the search substring.
type SearchedHangout struct {
	Search string
}

// FilterHangouts derives Filtered from the in-memory list and Search.
type FilterHangouts struct{}

type FetchHangoutsStarted struct{}

type FetchHangoutsSucceeded struct {
	Users []models.User
}

type FetchHangoutsFailed struct {
	Err error
}

// LoadedMessages replaces the in-memory sequence for the current partner.
type LoadedMessages struct {
	Messages []models.Message
}

// SavedMessageLocally appends one message to the in-memory sequence.
type SavedMessageLocally struct {
	Message models.Message
}

func (LoadHangouts) isHangoutAction()           {}
func (SelectedUser) isHangoutAction()           {}
func (SelectedHangout) isHangoutAction()        {}
func (HangoutReceived) isHangoutAction()        {}
func (SearchedHangout) isHangoutAction()        {}
func (FilterHangouts) isHangoutAction()         {}
func (FetchHangoutsStarted) isHangoutAction()   {}
func (FetchHangoutsSucceeded) isHangoutAction() {}
func (FetchHangoutsFailed) isHangoutAction()    {}
func (LoadedMessages) isHangoutAction()         {}
func (SavedMessageLocally) isHangoutAction()    {}

// Reconcile is the merge policy for an inbound hangout record: replace the
// entry with the same username in place, otherwise append. The incoming
// record always wins; no write-time comparison is performed.
func Reconcile(list []models.Hangout, incoming models.Hangout) []models.Hangout {
	out := make([]models.Hangout, len(list))
	replaced := false
	for i, h := range list {
		if h.Username == incoming.Username {
			out[i] = incoming
			replaced = true
			continue
		}
		out[i] = h
	}
	if !replaced {
		out = append(out, incoming)
	}
	return out
}

func reduce(state State, action Action) State {
	switch a := action.(type) {
	case LoadHangouts:
		state.Hangouts = a.Hangouts
	case SelectedUser:
		invite := models.Hangout{
			Username: a.User.Username,
			Email:    a.User.Email,
			State:    models.HangoutStateInvite,
		}
		if state.Hangouts == nil {
			state.Hangouts = []models.Hangout{invite}
		} else {
			state.Hangouts = append(append([]models.Hangout(nil), state.Hangouts...), invite)
		}
		state.Current = &invite
	case SelectedHangout:
		state.Current = nil
		for _, h := range state.Hangouts {
			if h.Username == a.Username {
				found := h
				state.Current = &found
				break
			}
		}
	case HangoutReceived:
		state.Hangouts = Reconcile(state.Hangouts, a.Hangout)
		if state.Current != nil && state.Current.Username == a.Hangout.Username {
			updated := a.Hangout
			state.Current = &updated
		}
	case SearchedHangout:
		state.Search = a.Search
	case FilterHangouts:
		var filtered []models.Hangout
		for _, h := range state.Hangouts {
			if strings.Contains(h.Username, state.Search) {
				filtered = append(filtered, h)
			}
		}
		state.Filtered = filtered
	case FetchHangoutsStarted:
		state.Loading = true
		state.Error = ""
	case FetchHangoutsSucceeded:
		state.Loading = false
		state.SearchResults = a.Users
	case FetchHangoutsFailed:
		state.Loading = false
		state.Error = a.Err.Error()
	case LoadedMessages:
		state.Messages = a.Messages
	case SavedMessageLocally:
		state.Messages = append(append([]models.Message(nil), state.Messages...), a.Message)
	}
	return state
}

// Store applies actions and notifies subscribers with the previous and next
// state, so effects can watch for the current hangout changing. The reducer
// itself never touches persistence.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  []func(prev, next State)
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	prev := s.state
	s.state = reduce(s.state, action)
	next := s.state
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(prev, next)
	}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Subscribe(fn func(prev, next State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
