package form

import (
	"testing"

	"github.com/webapis/webcom/internal/validation"
)

func TestStore_ClientThenServerValidation(t *testing.T) {
	store := NewStore()

	store.Dispatch(ClientValidation{Entry: validation.ValidateEmailConstraint("bob@x.com")})

	entry, ok := store.Entry(validation.TypeEmail)
	if !ok {
		t.Fatal("expected entry for email rule")
	}
	if entry.State != validation.StateValid {
		t.Errorf("expected VALID, got %s", entry.State)
	}

	// A later server outcome for the same rule wins.
	store.Dispatch(ServerValidation{Entry: validation.Entry{
		Type:    validation.TypeEmail,
		State:   validation.StateInvalid,
		Message: "rejected",
	}})

	entry, _ = store.Entry(validation.TypeEmail)
	if entry.State != validation.StateInvalid {
		t.Errorf("expected server outcome to overwrite, got %s", entry.State)
	}
	if entry.Message != "rejected" {
		t.Errorf("expected server message, got %q", entry.Message)
	}
}

func TestStore_EntriesAreIndependentPerRule(t *testing.T) {
	store := NewStore()

	store.Dispatch(ClientValidation{Entry: validation.ValidateEmptyString("")})
	store.Dispatch(ClientValidation{Entry: validation.ValidatePasswordConstraint("Abcdefg1")})

	if len(store.State().Validations) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(store.State().Validations))
	}
	empty, _ := store.Entry(validation.TypeEmptyString)
	if empty.State != validation.StateInvalid {
		t.Errorf("empty string entry = %s, want INVALID", empty.State)
	}
	pass, _ := store.Entry(validation.TypePassword)
	if pass.State != validation.StateValid {
		t.Errorf("password entry = %s, want VALID", pass.State)
	}
}

func TestStore_FocusResetsToInactive(t *testing.T) {
	store := NewStore()

	store.Dispatch(ClientValidation{Entry: validation.ValidatePasswordConstraint("short")})
	store.Dispatch(InputFocused{Type: validation.TypePassword})

	entry, _ := store.Entry(validation.TypePassword)
	if entry.State != validation.StateInactive {
		t.Errorf("expected INACTIVE after focus, got %s", entry.State)
	}
	if entry.Message != "" {
		t.Errorf("expected empty message after focus, got %q", entry.Message)
	}
}

func TestStore_InitDropsEverything(t *testing.T) {
	store := NewStore()

	store.Dispatch(IncInputCount{})
	store.Dispatch(IncInputCount{})
	store.Dispatch(ClientValidation{Entry: validation.ValidateEmptyString("")})

	if store.State().InputCount != 2 {
		t.Fatalf("expected input count 2, got %d", store.State().InputCount)
	}

	store.Dispatch(InitFormValidationState{})

	state := store.State()
	if len(state.Validations) != 0 {
		t.Errorf("expected no entries after init, got %d", len(state.Validations))
	}
	if state.InputCount != 0 {
		t.Errorf("expected input count 0 after init, got %d", state.InputCount)
	}
}

func TestStore_SnapshotsDoNotAliasLiveState(t *testing.T) {
	store := NewStore()
	store.Dispatch(ClientValidation{Entry: validation.ValidateEmailConstraint("bob@x.com")})

	// Mutating a returned snapshot must not leak into the store.
	snapshot := store.State()
	snapshot.Validations[validation.TypeEmail] = validation.Entry{
		Type:  validation.TypeEmail,
		State: validation.StateInvalid,
	}
	entry, _ := store.Entry(validation.TypeEmail)
	if entry.State != validation.StateValid {
		t.Errorf("store entry = %s after snapshot mutation, want VALID", entry.State)
	}

	// Same for the snapshot handed to subscribers.
	var seen State
	store.Subscribe(func(s State) { seen = s })
	store.Dispatch(IncInputCount{})
	delete(seen.Validations, validation.TypeEmail)

	if _, ok := store.Entry(validation.TypeEmail); !ok {
		t.Error("subscriber snapshot mutation removed a store entry")
	}
}

func TestStore_SubscriberSeesEveryDispatch(t *testing.T) {
	store := NewStore()

	var seen []State
	store.Subscribe(func(s State) { seen = append(seen, s) })

	store.Dispatch(IncInputCount{})
	store.Dispatch(ResetValidationState{Type: validation.TypeEmail})

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[0].InputCount != 1 {
		t.Errorf("first notification input count = %d", seen[0].InputCount)
	}
}
