// Package session owns the Discord connection lifecycle: lazy single-flight
// login, the pending-message queue, and name-based channel resolution.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/soyeahso/mcp-discord/internal/domain"
	"github.com/soyeahso/mcp-discord/internal/logging"
	"github.com/soyeahso/mcp-discord/internal/platform"
)

// State is the session connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// DefaultLoginTimeout bounds how long a login attempt may wait for the
// gateway Ready signal.
const DefaultLoginTimeout = 15 * time.Second

// delayNotice is appended to pending messages when they are finally
// delivered, so recipients can tell delayed delivery from live delivery.
const delayNotice = "\n\n_(queued while disconnected; delivered after reconnect)_"

// attempt is one in-flight login sequence, shared by every caller that
// observes StateConnecting. It settles exactly once.
type attempt struct {
	done chan struct{}
	err  error
	once sync.Once
}

func newAttempt() *attempt {
	return &attempt{done: make(chan struct{})}
}

func (a *attempt) settle(err error) {
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

func (a *attempt) wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manager owns the connection state machine. All state transitions happen
// here, driven by EnsureConnected callers and by gateway events fed through
// HandleEvent.
type Manager struct {
	client platform.Client
	queue  *Queue
	log    *logging.Logger

	loginTimeout time.Duration

	mu      sync.Mutex
	state   State
	attempt *attempt
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLoginTimeout overrides the 15s login timeout. Used by tests.
func WithLoginTimeout(d time.Duration) Option {
	return func(m *Manager) { m.loginTimeout = d }
}

// NewManager builds a Manager around the given platform client. The caller
// must wire client.OnEvent(m.HandleEvent) before opening the connection.
func NewManager(client platform.Client, log *logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		client:       client,
		queue:        NewQueue(),
		log:          log.Sub("session"),
		loginTimeout: DefaultLoginTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EnsureConnected returns nil immediately when the session is Ready, joins
// the in-flight attempt when one exists, and otherwise starts a new login
// sequence. Concurrent callers never trigger two simultaneous logins.
//
// A failed attempt is not retried here; the next EnsureConnected call starts
// fresh.
func (m *Manager) EnsureConnected(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateReady:
		m.mu.Unlock()
		return nil
	case StateConnecting:
		a := m.attempt
		m.mu.Unlock()
		if a == nil {
			return &domain.ConnectError{Err: errors.New("connecting with no login attempt")}
		}
		return a.wait(ctx)
	}

	a := newAttempt()
	m.state = StateConnecting
	m.attempt = a
	m.mu.Unlock()

	go m.login(a)
	return a.wait(ctx)
}

// login runs one connect sequence: open the gateway, then race the Ready
// signal (delivered via HandleEvent) against the login timeout.
func (m *Manager) login(a *attempt) {
	m.log.Info().Msg("connecting to discord")

	if err := m.client.Open(context.Background()); err != nil {
		m.fail(a, &domain.ConnectError{Err: err})
		return
	}

	timer := time.NewTimer(m.loginTimeout)
	defer timer.Stop()

	select {
	case <-a.done:
		// settled by HandleEvent (ready or error signal)
	case <-timer.C:
		m.mu.Lock()
		if m.attempt != a {
			// Ready or a gateway error won the race against the timer.
			m.mu.Unlock()
			return
		}
		m.attempt = nil
		m.state = StateDisconnected
		m.mu.Unlock()

		m.log.Warn().Dur("timeout", m.loginTimeout).Msg("login timed out waiting for ready")
		// Tear down the stalled handshake before settling; a lingering open
		// session would make the next Open fail instead of logging in fresh.
		if err := m.client.Close(); err != nil {
			m.log.Warn().Err(err).Msg("closing stalled session")
		}
		a.settle(&domain.ConnectError{Err: domain.ErrConnectTimeout})
	}
}

// fail clears the shared attempt handle before settling it, so the next
// EnsureConnected starts a fresh attempt instead of joining a settled one.
func (m *Manager) fail(a *attempt, err error) {
	m.mu.Lock()
	if m.attempt == a {
		m.attempt = nil
		m.state = StateDisconnected
	}
	m.mu.Unlock()
	a.settle(err)
}

// HandleEvent is the state-transition function for gateway lifecycle events.
// It is the event sink registered with the platform client.
func (m *Manager) HandleEvent(ev platform.Event) {
	switch ev.Kind {
	case platform.EventReady:
		m.mu.Lock()
		m.state = StateReady
		a := m.attempt
		m.attempt = nil
		m.mu.Unlock()
		if a != nil {
			a.settle(nil)
		}
		m.log.Info().Msg("session ready")
		// Drain must not block whichever caller triggered the login.
		go m.Drain(context.Background())

	case platform.EventError:
		m.mu.Lock()
		if m.state != StateReady {
			m.state = StateDisconnected
		}
		a := m.attempt
		m.attempt = nil
		m.mu.Unlock()
		if a != nil {
			a.settle(&domain.ConnectError{Err: ev.Err})
		}
		m.log.Error().Err(ev.Err).Msg("gateway error")

	case platform.EventDisconnected:
		m.mu.Lock()
		m.state = StateDisconnected
		m.mu.Unlock()
		m.log.Warn().Msg("session disconnected")

	case platform.EventResumed:
		// Informational only; Ready/Disconnected classification is unchanged.
		m.log.Debug().Msg("session resumed")
	}
}

// Resolve maps a channel name to a live channel handle. Channels are never
// cached across operations; each call re-scans the client's view so topology
// changes are picked up. When the same name exists in two guilds, the first
// match in cache iteration order wins.
func (m *Manager) Resolve(name string) (platform.Channel, error) {
	if m.State() != StateReady {
		return platform.Channel{}, domain.ErrNotReady
	}
	for _, ch := range m.client.Channels() {
		if ch.Name == name {
			return ch, nil
		}
	}
	return platform.Channel{}, domain.ChannelNotFound(name)
}

// Deliver resolves a channel by name and sends content to it.
func (m *Manager) Deliver(ctx context.Context, channelName, content string) error {
	ch, err := m.Resolve(channelName)
	if err != nil {
		return err
	}
	return m.client.Send(ctx, ch.ID, content)
}

// Enqueue buffers a message for replay on the next successful reconnect.
func (m *Manager) Enqueue(channelName, content string) PendingMessage {
	msg := m.queue.Enqueue(channelName, content)
	m.log.Info().
		Str("id", msg.ID).
		Str("channel", channelName).
		Int("queued", m.queue.Len()).
		Msg("message queued for later delivery")
	return msg
}

// QueueLen reports the number of messages awaiting delivery.
func (m *Manager) QueueLen() int {
	return m.queue.Len()
}

// Drain delivers every currently queued message in enqueue order. A failed
// delivery is re-appended to the live queue tail and does not abort the rest
// of the drain; it will be retried after the next reconnect.
func (m *Manager) Drain(ctx context.Context) {
	msgs := m.queue.TakeAll()
	if len(msgs) == 0 {
		return
	}
	m.log.Info().Int("count", len(msgs)).Msg("draining pending messages")

	for _, msg := range msgs {
		if err := m.Deliver(ctx, msg.ChannelName, msg.Content+delayNotice); err != nil {
			m.log.Warn().
				Str("id", msg.ID).
				Str("channel", msg.ChannelName).
				Err(err).
				Msg("pending delivery failed, requeued")
			m.queue.Requeue(msg)
			continue
		}
		m.log.Info().
			Str("id", msg.ID).
			Str("channel", msg.ChannelName).
			Msg("pending message delivered")
	}
}
