package storage

import (
	"fmt"
	"time"

	"github.com/webapis/webcom/internal/models"

	"go.etcd.io/bbolt"
)

var (
	bucketSession  = []byte("session")
	bucketHangouts = []byte("hangouts")
	bucketMessages = []byte("messages")
)

type BboltStore struct {
	db *bbolt.DB
}

func NewBboltStore(path string) (*BboltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSession); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketHangouts); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMessages); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStore{db: db}, nil
}

func (s *BboltStore) Close() error {
	return s.db.Close()
}

// SaveSession overwrites the session snapshot under the webcom key.
func (s *BboltStore) SaveSession(snapshot SessionSnapshot) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		dbSession := &DBSession{
			Username: snapshot.Username,
			Email:    snapshot.Email,
			Token:    snapshot.Token,
		}
		data, err := dbSession.MarshalBinary()
		if err != nil {
			return err
		}
		return b.Put(dbSession.Key(), data)
	})
}

func (s *BboltStore) LoadSession() (SessionSnapshot, bool, error) {
	var snapshot SessionSnapshot
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSession)
		data := b.Get([]byte(SessionKey))
		if data == nil {
			return nil
		}
		var dbSession DBSession
		if err := dbSession.UnmarshalBinary(data); err != nil {
			return err
		}
		snapshot = SessionSnapshot{
			Username: dbSession.Username,
			Email:    dbSession.Email,
			Token:    dbSession.Token,
		}
		found = true
		return nil
	})
	return snapshot, found, err
}

func (s *BboltStore) DeleteSession() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Delete([]byte(SessionKey))
	})
}

// SaveHangouts overwrites one user's full hangout list.
func (s *BboltStore) SaveHangouts(username string, hangouts []models.Hangout) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHangouts)
		list := DBHangoutList{
			Owner:    username,
			Hangouts: make([]DBHangout, len(hangouts)),
		}
		for i, h := range hangouts {
			list.Hangouts[i] = DBHangout{
				Username: h.Username,
				Email:    h.Email,
				State:    string(h.State),
				Message:  h.Message,
			}
		}
		data, err := list.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal hangouts: %w", err)
		}
		return b.Put(list.Key(), data)
	})
}

func (s *BboltStore) LoadHangouts(username string) ([]models.Hangout, error) {
	var hangouts []models.Hangout
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketHangouts)
		data := b.Get([]byte(HangoutsKey(username)))
		if data == nil {
			return nil // no snapshot yet
		}
		var list DBHangoutList
		if err := list.UnmarshalBinary(data); err != nil {
			return err
		}
		for _, h := range list.Hangouts {
			hangouts = append(hangouts, models.Hangout{
				Username: h.Username,
				Email:    h.Email,
				State:    models.HangoutState(h.State),
				Message:  h.Message,
			})
		}
		return nil
	})
	return hangouts, err
}

// SaveMessages overwrites the full message sequence for one partner.
func (s *BboltStore) SaveMessages(target string, messages []models.Message) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMessages)
		list := DBMessageList{
			Target:   target,
			Messages: make([]DBMessage, len(messages)),
		}
		for i, m := range messages {
			dbMsg := DBMessage{
				ID:        m.ID,
				Target:    m.Target,
				Username:  m.Username,
				Text:      m.Text,
				Timestamp: m.Timestamp,
			}
			if len(m.Attachments) > 0 {
				dbMsg.Attachments = make([]DBAttachment, len(m.Attachments))
				for j, a := range m.Attachments {
					dbMsg.Attachments[j] = DBAttachment{
						Type:     string(a.Type),
						Name:     a.Name,
						MimeType: a.MimeType,
						Data:     a.Data,
					}
				}
			}
			list.Messages[i] = dbMsg
		}
		data, err := list.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to marshal messages: %w", err)
		}
		return b.Put(list.Key(), data)
	})
}

func (s *BboltStore) LoadMessages(target string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMessages)
		data := b.Get([]byte(MessagesKey(target)))
		if data == nil {
			return nil
		}
		var list DBMessageList
		if err := list.UnmarshalBinary(data); err != nil {
			return err
		}
		for _, m := range list.Messages {
			msg := models.Message{
				ID:        m.ID,
				Target:    m.Target,
				Username:  m.Username,
				Text:      m.Text,
				Timestamp: m.Timestamp,
			}
			if len(m.Attachments) > 0 {
				msg.Attachments = make([]models.Attachment, len(m.Attachments))
				for j, a := range m.Attachments {
					msg.Attachments[j] = models.Attachment{
						Type:     models.AttachmentType(a.Type),
						Name:     a.Name,
						MimeType: a.MimeType,
						Data:     a.Data,
					}
				}
			}
			messages = append(messages, msg)
		}
		return nil
	})
	return messages, err
}
