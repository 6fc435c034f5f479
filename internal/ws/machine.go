// Package ws owns the single long-lived transport channel used for real-time
// delivery and derives the application-level connection phase from the
// channel's native readiness.
package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrChannelNotOpen = errors.New("channel is not open")

// Phase is the application-level view of the channel's readiness.
type Phase int

const (
	PhaseConnecting Phase = 0
	PhaseOpen       Phase = 1
	PhaseClosing    Phase = 2
	PhaseClosed     Phase = 3
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseOpen:
		return "OPEN"
	case PhaseClosing:
		return "CLOSING"
	case PhaseClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// phaseFromReadyState is the single readiness-to-phase mapping. Both the
// event callbacks and the readiness watcher go through it, so the two paths
// land on the same phase for a given readiness value.
func phaseFromReadyState(readyState int) Phase {
	return Phase(readyState)
}

// State is what dependents observe: the current phase, the last error event
// payload and the channel handle once one exists. The handle is published
// before the native open fires.
type State struct {
	Phase   Phase
	Err     error
	Channel Channel
}

const defaultPollInterval = 200 * time.Millisecond

// Machine opens exactly one channel per non-empty username and exposes the
// channel lifecycle to dependents. There is no retry or backoff: once the
// channel closes or errors, only a later Connect call opens a new one.
type Machine struct {
	dialer       Dialer
	baseURL      string
	log          zerolog.Logger
	pollInterval time.Duration

	mu          sync.RWMutex
	state       State
	username    string
	gen         int
	subs        []func(State)
	onMessage   func(data []byte)
	cancelWatch context.CancelFunc
}

func NewMachine(dialer Dialer, baseURL string, log zerolog.Logger) *Machine {
	return &Machine{
		dialer:       dialer,
		baseURL:      baseURL,
		log:          log,
		pollInterval: defaultPollInterval,
		state:        State{Phase: PhaseClosed},
	}
}

// Subscribe registers a callback invoked on every published state change.
func (m *Machine) Subscribe(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// HandleMessages sets the handler for inbound channel payloads. Must be set
// before Connect.
func (m *Machine) HandleMessages(fn func(data []byte)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMessage = fn
}

func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Connect opens a channel for the given username. Empty usernames are
// ignored; a repeated call with the same username keeps the existing handle.
func (m *Machine) Connect(ctx context.Context, username string) {
	if username == "" {
		return
	}

	m.mu.Lock()
	if m.username == username && m.state.Channel != nil {
		m.mu.Unlock()
		return
	}
	if m.cancelWatch != nil {
		m.cancelWatch()
	}
	old := m.state.Channel
	m.username = username
	m.gen++
	gen := m.gen
	onMessage := m.onMessage
	m.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}

	url := m.baseURL + "/?username=" + username
	m.log.Info().Str("url", url).Msg("opening channel")

	// The replaced channel keeps firing events asynchronously; its close
	// lands after the new channel's open. Generation-tagged callbacks let
	// only the newest channel drive the phase.
	ch := m.dialer.Dial(ctx, url, Callbacks{
		OnOpen: func() {
			m.setPhase(gen, PhaseOpen)
		},
		OnClose: func() {
			m.setPhase(gen, PhaseClosed)
		},
		OnError: func(err error) {
			m.setError(gen, err)
		},
		OnMessage: func(data []byte) {
			if onMessage != nil {
				onMessage(data)
			}
		},
	})

	// Publish the handle right away. The channel is not open yet; the
	// native open event follows on its own.
	m.mu.Lock()
	m.state.Channel = ch
	state := m.state
	watchCtx, cancel := context.WithCancel(ctx)
	m.cancelWatch = cancel
	m.mu.Unlock()
	m.publish(state)

	go m.watch(watchCtx, gen, ch)
}

// Send writes an outbound payload to the channel. Fails when no channel is
// open; callers decide whether that matters.
func (m *Machine) Send(v any) error {
	m.mu.RLock()
	ch := m.state.Channel
	phase := m.state.Phase
	m.mu.RUnlock()

	if ch == nil || phase != PhaseOpen {
		return ErrChannelNotOpen
	}
	return ch.Send(v)
}

// Close tears down the current channel, if any.
func (m *Machine) Close() {
	m.mu.Lock()
	ch := m.state.Channel
	if m.cancelWatch != nil {
		m.cancelWatch()
		m.cancelWatch = nil
	}
	m.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
}

// watch polls the handle's native readiness and derives the transitional
// phases the event callbacks never report. Terminal readiness values go
// through the same mapping, so this path and the callbacks commute.
func (m *Machine) watch(ctx context.Context, gen int, ch Channel) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			readyState := ch.ReadyState()
			if readyState == ReadyStateConnecting || readyState == ReadyStateClosing {
				m.setPhase(gen, phaseFromReadyState(readyState))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Machine) setPhase(gen int, phase Phase) {
	m.mu.Lock()
	if gen != m.gen || m.state.Phase == phase {
		m.mu.Unlock()
		return
	}
	m.log.Debug().Str("phase", phase.String()).Msg("connection phase")
	m.state.Phase = phase
	state := m.state
	m.mu.Unlock()
	m.publish(state)
}

// setError records the error event payload without forcing a phase change.
// Errors from a replaced channel are dropped like any other stale event.
func (m *Machine) setError(gen int, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.state.Err = err
	state := m.state
	m.mu.Unlock()
	m.log.Warn().Err(err).Msg("channel error")
	m.publish(state)
}

func (m *Machine) publish(state State) {
	m.mu.RLock()
	subs := m.subs
	m.mu.RUnlock()
	for _, fn := range subs {
		fn(state)
	}
}
