package storage

import (
	"github.com/webapis/webcom/internal/models"

	"github.com/c-pro/geche"
)

// MemoryStore keeps snapshots in process memory. It backs tests and doubles
// as a second "tab" when exercising the merge-against-disk behavior.
type MemoryStore struct {
	sessions geche.Geche[string, SessionSnapshot]
	hangouts geche.Geche[string, []models.Hangout]
	messages geche.Geche[string, []models.Message]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: geche.NewMapCache[string, SessionSnapshot](),
		hangouts: geche.NewMapCache[string, []models.Hangout](),
		messages: geche.NewMapCache[string, []models.Message](),
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) SaveSession(snapshot SessionSnapshot) error {
	s.sessions.Set(SessionKey, snapshot)
	return nil
}

func (s *MemoryStore) LoadSession() (SessionSnapshot, bool, error) {
	snapshot, err := s.sessions.Get(SessionKey)
	if err != nil {
		return SessionSnapshot{}, false, nil
	}
	return snapshot, true, nil
}

func (s *MemoryStore) DeleteSession() error {
	_ = s.sessions.Del(SessionKey)
	return nil
}

func (s *MemoryStore) SaveHangouts(username string, hangouts []models.Hangout) error {
	s.hangouts.Set(HangoutsKey(username), append([]models.Hangout(nil), hangouts...))
	return nil
}

func (s *MemoryStore) LoadHangouts(username string) ([]models.Hangout, error) {
	hangouts, err := s.hangouts.Get(HangoutsKey(username))
	if err != nil {
		return nil, nil
	}
	return append([]models.Hangout(nil), hangouts...), nil
}

func (s *MemoryStore) SaveMessages(target string, messages []models.Message) error {
	s.messages.Set(MessagesKey(target), append([]models.Message(nil), messages...))
	return nil
}

func (s *MemoryStore) LoadMessages(target string) ([]models.Message, error) {
	messages, err := s.messages.Get(MessagesKey(target))
	if err != nil {
		return nil, nil
	}
	return append([]models.Message(nil), messages...), nil
}
