// Package auth holds the session state and the asynchronous operations that
// drive it against the webcom auth endpoint. Validation failures never
// escape as errors: HTTP 400 outcomes are decoded into server validation
// entries and routed through the form state.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/webapis/webcom/internal/form"
	"github.com/webapis/webcom/internal/storage"
	"github.com/webapis/webcom/internal/validation"

	"github.com/rs/zerolog"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Service struct {
	client   Doer
	apiURL   string
	store    storage.LocalStore
	sessions *Store
	forms    *form.Store
	log      zerolog.Logger
}

func NewService(client Doer, apiURL string, store storage.LocalStore, sessions *Store, forms *form.Store, log zerolog.Logger) *Service {
	return &Service{
		client:   client,
		apiURL:   apiURL,
		store:    store,
		sessions: sessions,
		forms:    forms,
		log:      log,
	}
}

// authResponse is the HTTP 200 body shared by all operations.
type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// validationErrors is the HTTP 400 body: an array of status-code strings.
type validationErrors struct {
	Errors []string `json:"errors"`
}

// serverError is the HTTP 500 body.
type serverError struct {
	Error string `json:"error"`
}

// Login authenticates with Basic auth over GET /auth/login. The identifier
// may be a username or an email.
func (s *Service) Login(ctx context.Context, usernameOrEmail, password string) {
	s.sessions.Dispatch(Started{Op: OpLogin})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/auth/login", nil)
	if err != nil {
		s.sessions.Dispatch(Failed{Op: OpLogin, Err: err})
		return
	}
	req.SetBasicAuth(usernameOrEmail, password)

	s.do(OpLogin, req)
}

// Signup registers a new account over POST /auth/signup.
func (s *Service) Signup(ctx context.Context, username, email, password string) {
	s.sessions.Dispatch(Started{Op: OpSignup})
	s.doJSON(ctx, OpSignup, http.MethodPost, "/auth/signup", map[string]string{
		"password": password,
		"email":    email,
		"username": username,
	})
}

// ChangePassword sets a new password over PUT /auth/changepass. The token
// comes either from the live session or from a reset link.
func (s *Service) ChangePassword(ctx context.Context, token, password, confirm string) {
	s.sessions.Dispatch(Started{Op: OpChangePassword})
	s.doJSON(ctx, OpChangePassword, http.MethodPut, "/auth/changepass", map[string]string{
		"confirm":  confirm,
		"password": password,
		"token":    token,
	})
}

// ForgotPassword requests a reset link over POST /auth/requestpasschange.
func (s *Service) ForgotPassword(ctx context.Context, email string) {
	s.sessions.Dispatch(Started{Op: OpForgotPassword})
	s.doJSON(ctx, OpForgotPassword, http.MethodPost, "/auth/requestpasschange", map[string]string{
		"email": email,
	})
}

// Logout is synchronous: it clears the durable snapshot and resets the
// session to its initial empty value.
func (s *Service) Logout() {
	if err := s.store.DeleteSession(); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete session snapshot")
	}
	s.sessions.Dispatch(LoggedOut{})
}

// Recover restores username and email from the persisted snapshot, if one
// exists. The token trust level is not reconstructed.
func (s *Service) Recover() {
	snapshot, found, err := s.store.LoadSession()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to load session snapshot")
		return
	}
	if !found {
		return
	}
	s.sessions.Dispatch(Recovered{Username: snapshot.Username, Email: snapshot.Email})
}

func (s *Service) doJSON(ctx context.Context, op Op, method, path string, body map[string]string) {
	payload, err := json.Marshal(body)
	if err != nil {
		s.sessions.Dispatch(Failed{Op: op, Err: err})
		return
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		s.sessions.Dispatch(Failed{Op: op, Err: err})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	s.do(op, req)
}

func (s *Service) do(op Op, req *http.Request) {
	resp, err := s.client.Do(req)
	if err != nil {
		s.sessions.Dispatch(Failed{Op: op, Err: err})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var body authResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			s.sessions.Dispatch(Failed{Op: op, Err: err})
			return
		}
		if body.Token != "" {
			err := s.store.SaveSession(storage.SessionSnapshot{
				Username: body.Username,
				Email:    body.Email,
				Token:    body.Token,
			})
			if err != nil {
				s.log.Warn().Err(err).Msg("failed to persist session snapshot")
			}
		}
		s.sessions.Dispatch(Succeeded{
			Op:       op,
			Username: body.Username,
			Email:    body.Email,
			Token:    body.Token,
		})

	case http.StatusBadRequest:
		var body validationErrors
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			s.sessions.Dispatch(Failed{Op: op, Err: err})
			return
		}
		for _, code := range body.Errors {
			entry := validation.ServerValidation(code)
			if entry == nil {
				s.log.Warn().Str("code", code).Msg("unmapped server validation code")
				continue
			}
			s.forms.Dispatch(form.ServerValidation{Entry: *entry})
		}
		// Coded validation failures are field-level data, not a banner.
		s.sessions.Dispatch(Failed{Op: op, Err: nil})

	case http.StatusInternalServerError:
		var body serverError
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			s.sessions.Dispatch(Failed{Op: op, Err: err})
			return
		}
		s.sessions.Dispatch(Failed{Op: op, Err: fmt.Errorf("server error: %s", body.Error)})

	default:
		s.sessions.Dispatch(Failed{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)})
	}
}
