package auth

import "sync"

// Session is the authenticated user's identity plus request-lifecycle flags.
// Created empty, populated by a successful operation, fully reset on logout.
type Session struct {
	Username       string
	Email          string
	Token          string
	IsLoggedIn     bool
	Loading        bool
	Error          string
	SuccessMessage string
}

// Op names one asynchronous auth operation.
type Op string

const (
	OpLogin          Op = "login"
	OpSignup         Op = "signup"
	OpChangePassword Op = "changepassword"
	OpForgotPassword Op = "forgotpassword"
)

const (
	MsgPasswordChanged    = "password changed successfully"
	MsgResetLinkRequested = "password reset link was sent to your email"
)

// Action is the closed set of session transitions.
type Action interface {
	isSessionAction()
}

type Started struct {
	Op Op
}

type Succeeded struct {
	Op       Op
	Username string
	Email    string
	Token    string
}

// Failed ends an operation. A nil Err clears loading without raising the
// form-level banner; that is the HTTP 400 path, where the outcome is routed
// through the form state instead.
type Failed struct {
	Op  Op
	Err error
}

type LoggedOut struct{}

// Recovered restores username and email from the persisted snapshot. The
// snapshot is a cache, not a source of truth: it never restores IsLoggedIn.
type Recovered struct {
	Username string
	Email    string
}

func (Started) isSessionAction()   {}
func (Succeeded) isSessionAction() {}
func (Failed) isSessionAction()    {}
func (LoggedOut) isSessionAction() {}
func (Recovered) isSessionAction() {}

func reduce(session Session, action Action) Session {
	switch a := action.(type) {
	case Started:
		session.Loading = true
		session.Error = ""
		session.SuccessMessage = ""
	case Succeeded:
		session.Loading = false
		switch a.Op {
		case OpForgotPassword:
			session.SuccessMessage = MsgResetLinkRequested
		case OpChangePassword:
			session.Username = a.Username
			session.Email = a.Email
			session.Token = a.Token
			session.IsLoggedIn = true
			session.SuccessMessage = MsgPasswordChanged
		default:
			session.Username = a.Username
			session.Email = a.Email
			session.Token = a.Token
			session.IsLoggedIn = true
		}
	case Failed:
		session.Loading = false
		if a.Err != nil {
			session.Error = a.Err.Error()
		}
	case LoggedOut:
		session = Session{}
	case Recovered:
		session.Username = a.Username
		session.Email = a.Email
	}
	return session
}

// Store applies actions to the session and notifies subscribers.
type Store struct {
	mu      sync.RWMutex
	session Session
	subs    []func(Session)
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.session = reduce(s.session, action)
	session := s.session
	subs := s.subs
	s.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) Subscribe(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}
