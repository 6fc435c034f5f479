package hangout

import (
	"reflect"
	"testing"

	"github.com/webapis/webcom/internal/models"
)

func TestReconcile_ReplaceInPlace(t *testing.T) {
	list := []models.Hangout{{Username: "a", State: models.HangoutStateInvite}}
	incoming := models.Hangout{Username: "a", State: models.HangoutStateAccepted}

	got := Reconcile(list, incoming)

	want := []models.Hangout{{Username: "a", State: models.HangoutStateAccepted}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile = %+v, want %+v", got, want)
	}
}

func TestReconcile_AppendsUnknownUsername(t *testing.T) {
	list := []models.Hangout{{Username: "a", State: models.HangoutStateAccepted}}
	incoming := models.Hangout{Username: "b", State: models.HangoutStateInviter}

	got := Reconcile(list, incoming)

	if len(got) != 2 {
		t.Fatalf("expected 2 hangouts, got %d", len(got))
	}
	if got[1].Username != "b" {
		t.Errorf("expected b appended, got %+v", got[1])
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	list := []models.Hangout{
		{Username: "a", State: models.HangoutStateInvite},
		{Username: "b", State: models.HangoutStateAccepted},
	}
	incoming := models.Hangout{Username: "a", State: models.HangoutStateAccepted}

	once := Reconcile(list, incoming)
	twice := Reconcile(once, incoming)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("applying the same event twice diverged: %+v vs %+v", once, twice)
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	list := []models.Hangout{{Username: "a", State: models.HangoutStateInvite}}
	_ = Reconcile(list, models.Hangout{Username: "a", State: models.HangoutStateAccepted})

	if list[0].State != models.HangoutStateInvite {
		t.Error("Reconcile mutated its input list")
	}
}

func TestStore_SelectedUserSeedsAndAppends(t *testing.T) {
	store := NewStore()

	// No list yet: seeds a singleton.
	store.Dispatch(SelectedUser{User: models.User{Username: "alice", Email: "alice@x.com"}})

	state := store.State()
	if len(state.Hangouts) != 1 {
		t.Fatalf("expected singleton list, got %d", len(state.Hangouts))
	}
	if state.Hangouts[0].State != models.HangoutStateInvite {
		t.Errorf("expected INVITE, got %s", state.Hangouts[0].State)
	}
	if state.Current == nil || state.Current.Username != "alice" {
		t.Errorf("expected current hangout alice, got %+v", state.Current)
	}

	// Existing list: appends.
	store.Dispatch(SelectedUser{User: models.User{Username: "carol"}})
	if len(store.State().Hangouts) != 2 {
		t.Fatalf("expected 2 hangouts, got %d", len(store.State().Hangouts))
	}
}

func TestStore_SelectedHangoutMissFailsSilently(t *testing.T) {
	store := NewStore()
	store.Dispatch(LoadHangouts{Hangouts: []models.Hangout{{Username: "alice"}}})

	store.Dispatch(SelectedHangout{Username: "nobody"})
	if store.State().Current != nil {
		t.Errorf("expected nil current on miss, got %+v", store.State().Current)
	}

	store.Dispatch(SelectedHangout{Username: "alice"})
	if current := store.State().Current; current == nil || current.Username != "alice" {
		t.Errorf("expected alice selected, got %+v", current)
	}
}

func TestStore_HangoutReceivedUpdatesCurrent(t *testing.T) {
	store := NewStore()
	store.Dispatch(LoadHangouts{Hangouts: []models.Hangout{{Username: "alice", State: models.HangoutStateInvite}}})
	store.Dispatch(SelectedHangout{Username: "alice"})

	store.Dispatch(HangoutReceived{Hangout: models.Hangout{Username: "alice", State: models.HangoutStateAccepted}})

	state := store.State()
	if state.Hangouts[0].State != models.HangoutStateAccepted {
		t.Errorf("list entry = %s, want ACCEPTED", state.Hangouts[0].State)
	}
	if state.Current == nil || state.Current.State != models.HangoutStateAccepted {
		t.Errorf("current = %+v, want ACCEPTED", state.Current)
	}
}

func TestStore_FilterHangouts(t *testing.T) {
	store := NewStore()
	store.Dispatch(LoadHangouts{Hangouts: []models.Hangout{
		{Username: "alice"},
		{Username: "alicia"},
		{Username: "bob"},
	}})

	store.Dispatch(SearchedHangout{Search: "ali"})
	store.Dispatch(FilterHangouts{})

	state := store.State()
	if len(state.Filtered) != 2 {
		t.Fatalf("expected 2 filtered, got %d", len(state.Filtered))
	}
	// The full list stays untouched.
	if len(state.Hangouts) != 3 {
		t.Errorf("filter mutated the list: %d entries", len(state.Hangouts))
	}
}

func TestStore_MessageActions(t *testing.T) {
	store := NewStore()

	store.Dispatch(LoadedMessages{Messages: []models.Message{{ID: "m1", Text: "old"}}})
	store.Dispatch(SavedMessageLocally{Message: models.Message{ID: "m2", Text: "new"}})

	msgs := store.State().Messages
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	// Append-only, insertion order.
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("unexpected order: %+v", msgs)
	}
}
