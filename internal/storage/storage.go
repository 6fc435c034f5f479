// Package storage is the durable local store behind the client state layer.
// Session snapshot, per-user hangout lists and per-partner message sequences
// all live here. Writes are blind read-modify-write of whole snapshots; the
// merge discipline lives with the callers.
package storage

import "github.com/webapis/webcom/internal/models"

// SessionKey is the durable key holding the session snapshot.
const SessionKey = "webcom"

// HangoutsKey returns the durable key holding one user's hangout list.
func HangoutsKey(username string) string {
	return username + "-hangouts"
}

// MessagesKey returns the durable key holding the message sequence for one
// conversation partner.
func MessagesKey(target string) string {
	return target + "-messages"
}

// SessionSnapshot is the persisted part of the session. Recovery restores
// username and email only; the token is a cache, not a source of truth.
type SessionSnapshot struct {
	Username string
	Email    string
	Token    string
}

// LocalStore is the port every component persists through. Implementations
// must treat absent keys as empty values, not errors.
type LocalStore interface {
	SaveSession(snapshot SessionSnapshot) error
	LoadSession() (SessionSnapshot, bool, error)
	DeleteSession() error

	SaveHangouts(username string, hangouts []models.Hangout) error
	LoadHangouts(username string) ([]models.Hangout, error)

	SaveMessages(target string, messages []models.Message) error
	LoadMessages(target string) ([]models.Message, error)

	Close() error
}
