package hangout

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/webapis/webcom/internal/models"
	"github.com/webapis/webcom/internal/storage"
	"github.com/webapis/webcom/internal/ws"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

var textPolicy = bluemonday.StrictPolicy()

// Sender pushes an outbound payload over the real-time channel.
type Sender interface {
	Send(v any) error
}

// Effects is the side-effect layer around the hangout store. Persistence
// happens here, never inside the reducer, and hangout writes merge against
// whatever is currently on disk rather than against the in-memory list.
// That blind read-modify-write is the only conflict mitigation when several
// clients share one local store.
type Effects struct {
	local    storage.LocalStore
	hangouts *Store
	sender   Sender
	log      zerolog.Logger

	mu       sync.RWMutex // guards username; channel events read it concurrently
	username string

	now func() time.Time
}

func NewEffects(local storage.LocalStore, hangouts *Store, sender Sender, log zerolog.Logger) *Effects {
	e := &Effects{
		local:    local,
		hangouts: hangouts,
		sender:   sender,
		log:      log,
		now:      time.Now,
	}
	e.hangouts.Subscribe(e.onStateChange)
	return e
}

// Start binds the effects to the session user and loads that user's
// persisted hangout list. Safe to call again on every re-login: the
// selection watcher is registered once, at construction.
func (e *Effects) Start(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	e.mu.Lock()
	e.username = username
	e.mu.Unlock()

	list, err := e.local.LoadHangouts(username)
	if err != nil {
		return err
	}
	e.hangouts.Dispatch(LoadHangouts{Hangouts: list})
	return nil
}

func (e *Effects) user() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.username
}

// onStateChange watches for the current hangout changing. On a change it
// loads that partner's message sequence and re-persists the hangout record,
// merged against disk.
func (e *Effects) onStateChange(prev, next State) {
	if next.Current == nil {
		return
	}
	if prev.Current != nil && prev.Current.Username == next.Current.Username &&
		prev.Current.State == next.Current.State {
		return
	}

	e.LoadMessages(*next.Current)
	e.persistHangout(*next.Current)
}

// SelectUser turns a search-result user into an INVITE hangout and writes
// the updated list back to the per-user key immediately.
func (e *Effects) SelectUser(user models.User) {
	e.hangouts.Dispatch(SelectedUser{User: user})
}

// SelectHangout points the store at an existing partner.
func (e *Effects) SelectHangout(username string) {
	e.hangouts.Dispatch(SelectedHangout{Username: username})
}

// HandleChannelPayload decodes one inbound channel payload and routes it.
// Malformed payloads are logged and dropped; nothing escapes.
func (e *Effects) HandleChannelPayload(data []byte) {
	var event models.ChannelEvent
	if err := json.Unmarshal(data, &event); err != nil {
		e.log.Warn().Err(err).Msg("malformed channel payload")
		return
	}

	switch event.Type {
	case models.ChannelEventTypeHangout:
		if event.Hangout == nil {
			return
		}
		e.hangouts.Dispatch(HangoutReceived{Hangout: *event.Hangout})
		e.persistHangout(*event.Hangout)

	case models.ChannelEventTypeMessage:
		if event.Message == nil {
			return
		}
		msg := *event.Message
		msg.Text = textPolicy.Sanitize(msg.Text)
		// Inbound messages file under the sender's sequence.
		e.appendMessage(msg.Username, msg)

		state := e.hangouts.State()
		if state.Current != nil && state.Current.Username == msg.Username {
			e.hangouts.Dispatch(SavedMessageLocally{Message: msg})
		}

	default:
		e.log.Warn().Str("type", string(event.Type)).Msg("unknown channel event type")
	}
}

// LoadMessages reads the full persisted sequence for one partner and
// replaces the in-memory state.
func (e *Effects) LoadMessages(h models.Hangout) {
	messages, err := e.local.LoadMessages(h.Username)
	if err != nil {
		e.log.Warn().Err(err).Str("target", h.Username).Msg("failed to load messages")
		return
	}
	e.hangouts.Dispatch(LoadedMessages{Messages: messages})
}

// SaveMessage appends to both the persisted sequence keyed by the message
// target and the in-memory list.
func (e *Effects) SaveMessage(msg models.Message) {
	e.appendMessage(msg.Target, msg)
	e.hangouts.Dispatch(SavedMessageLocally{Message: msg})
}

// SendMessage persists an outbound message locally, then fires it over the
// channel. Delivery is fire-and-forget: a closed channel loses the send but
// keeps the local copy.
func (e *Effects) SendMessage(text string, attachments []models.Attachment) error {
	state := e.hangouts.State()
	if state.Current == nil {
		return errors.New("no hangout selected")
	}

	msg := models.Message{
		ID:          uuid.NewString(),
		Target:      state.Current.Username,
		Username:    e.user(),
		Text:        text,
		Timestamp:   e.now().Unix(),
		Attachments: attachments,
	}
	e.SaveMessage(msg)

	err := e.sender.Send(models.ChannelEvent{
		Type:    models.ChannelEventTypeMessage,
		Message: &msg,
	})
	if err != nil {
		if errors.Is(err, ws.ErrChannelNotOpen) {
			e.log.Warn().Str("target", msg.Target).Msg("channel not open, message kept locally")
			return nil
		}
		return err
	}
	return nil
}

// persistHangout merges one record into the list currently on disk and
// writes the result back. Reading disk first, not memory, is deliberate.
func (e *Effects) persistHangout(h models.Hangout) {
	owner := e.user()
	if owner == "" {
		return
	}
	disk, err := e.local.LoadHangouts(owner)
	if err != nil {
		e.log.Warn().Err(err).Msg("failed to load persisted hangouts")
		return
	}
	merged := Reconcile(disk, h)
	if err := e.local.SaveHangouts(owner, merged); err != nil {
		e.log.Warn().Err(err).Msg("failed to persist hangouts")
	}
}

// appendMessage does a blind read-modify-write of one partner's sequence.
// No dedup, no ordering key beyond array position.
func (e *Effects) appendMessage(target string, msg models.Message) {
	seq, err := e.local.LoadMessages(target)
	if err != nil {
		e.log.Warn().Err(err).Str("target", target).Msg("failed to load message sequence")
		return
	}
	if err := e.local.SaveMessages(target, append(seq, msg)); err != nil {
		e.log.Warn().Err(err).Str("target", target).Msg("failed to persist message")
	}
}
