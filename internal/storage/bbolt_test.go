package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/webapis/webcom/internal/models"
)

func TestBboltStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "storage_test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewBboltStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	t.Run("Session", func(t *testing.T) {
		if _, found, err := store.LoadSession(); err != nil || found {
			t.Fatalf("expected no session, found=%v err=%v", found, err)
		}

		snapshot := SessionSnapshot{Username: "bob", Email: "bob@x.com", Token: "t1"}
		if err := store.SaveSession(snapshot); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}

		loaded, found, err := store.LoadSession()
		if err != nil {
			t.Fatalf("LoadSession failed: %v", err)
		}
		if !found {
			t.Fatal("expected session to be found")
		}
		if loaded != snapshot {
			t.Errorf("expected %+v, got %+v", snapshot, loaded)
		}

		if err := store.DeleteSession(); err != nil {
			t.Fatalf("DeleteSession failed: %v", err)
		}
		if _, found, _ := store.LoadSession(); found {
			t.Error("expected session to be deleted")
		}
	})

	t.Run("Hangouts", func(t *testing.T) {
		// Absent key reads as an empty list.
		hangouts, err := store.LoadHangouts("bob")
		if err != nil {
			t.Fatalf("LoadHangouts failed: %v", err)
		}
		if len(hangouts) != 0 {
			t.Errorf("expected empty list, got %d", len(hangouts))
		}

		list := []models.Hangout{
			{Username: "alice", Email: "alice@x.com", State: models.HangoutStateInvite},
			{Username: "carol", State: models.HangoutStateAccepted},
		}
		if err := store.SaveHangouts("bob", list); err != nil {
			t.Fatalf("SaveHangouts failed: %v", err)
		}

		loaded, err := store.LoadHangouts("bob")
		if err != nil {
			t.Fatalf("LoadHangouts failed: %v", err)
		}
		if len(loaded) != 2 {
			t.Fatalf("expected 2 hangouts, got %d", len(loaded))
		}
		if loaded[0].Username != "alice" || loaded[0].State != models.HangoutStateInvite {
			t.Errorf("unexpected first hangout: %+v", loaded[0])
		}

		// Lists are keyed per owner.
		other, err := store.LoadHangouts("alice")
		if err != nil {
			t.Fatal(err)
		}
		if len(other) != 0 {
			t.Errorf("expected alice's list to be empty, got %d", len(other))
		}
	})

	t.Run("Messages", func(t *testing.T) {
		msgs := []models.Message{
			{ID: "m1", Target: "alice", Username: "bob", Text: "hello", Timestamp: time.Now().Unix()},
			{ID: "m2", Target: "alice", Username: "alice", Text: "hi back", Timestamp: time.Now().Unix()},
		}
		if err := store.SaveMessages("alice", msgs); err != nil {
			t.Fatalf("SaveMessages failed: %v", err)
		}

		loaded, err := store.LoadMessages("alice")
		if err != nil {
			t.Fatalf("LoadMessages failed: %v", err)
		}
		if len(loaded) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(loaded))
		}
		// Insertion order is preserved.
		if loaded[0].Text != "hello" || loaded[1].Text != "hi back" {
			t.Errorf("unexpected order: %+v", loaded)
		}
	})

	t.Run("Attachments", func(t *testing.T) {
		msg := models.Message{
			ID:       "m3",
			Target:   "carol",
			Username: "bob",
			Text:     "check out this image",
			Attachments: []models.Attachment{
				{
					Type:     models.AttachmentTypeImage,
					Name:     "test.png",
					MimeType: "image/png",
					Data:     []byte{0x89, 0x50, 0x4e, 0x47},
				},
			},
		}
		if err := store.SaveMessages("carol", []models.Message{msg}); err != nil {
			t.Fatalf("SaveMessages failed: %v", err)
		}

		loaded, err := store.LoadMessages("carol")
		if err != nil {
			t.Fatalf("LoadMessages failed: %v", err)
		}
		if len(loaded) != 1 || len(loaded[0].Attachments) != 1 {
			t.Fatalf("expected 1 message with 1 attachment, got %+v", loaded)
		}
		att := loaded[0].Attachments[0]
		if att.Name != "test.png" || att.MimeType != "image/png" {
			t.Errorf("unexpected attachment: %+v", att)
		}
	})
}

func TestMemoryStoreImplementsPort(t *testing.T) {
	var _ LocalStore = NewMemoryStore()
	var _ LocalStore = &BboltStore{}

	store := NewMemoryStore()
	if err := store.SaveHangouts("bob", []models.Hangout{{Username: "alice"}}); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LoadHangouts("bob")
	if err != nil || len(loaded) != 1 {
		t.Fatalf("expected 1 hangout, got %d (err %v)", len(loaded), err)
	}

	// Mutating the returned slice must not leak into the store.
	loaded[0].Username = "mallory"
	again, _ := store.LoadHangouts("bob")
	if again[0].Username != "alice" {
		t.Errorf("store snapshot was mutated through a loaded copy")
	}
}
