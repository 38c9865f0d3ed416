package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/mcp-discord/internal/domain"
	"github.com/soyeahso/mcp-discord/internal/logging"
	"github.com/soyeahso/mcp-discord/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

type sentMessage struct {
	ChannelID string
	Content   string
}

// fakeClient is a controllable platform.Client. When autoReady is set, Open
// emits an EventReady through the registered handler shortly after returning.
type fakeClient struct {
	mu         sync.Mutex
	handler    func(platform.Event)
	openCalls  int
	closeCalls int
	openErr    error
	autoReady  bool
	channels   []platform.Channel
	sendErr    map[string]error
	sent       []sentMessage
}

func (f *fakeClient) OnEvent(h func(platform.Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fakeClient) emit(ev platform.Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (f *fakeClient) Open(ctx context.Context) error {
	f.mu.Lock()
	f.openCalls++
	err := f.openErr
	auto := f.autoReady
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if auto {
		go f.emit(platform.Event{Kind: platform.EventReady})
	}
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

func (f *fakeClient) Channels() []platform.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels
}

func (f *fakeClient) Messages(ctx context.Context, channelID string, limit int) ([]platform.Message, error) {
	return nil, nil
}

func (f *fakeClient) Send(ctx context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sendErr[channelID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Content: content})
	return nil
}

func (f *fakeClient) React(ctx context.Context, channelID, messageID, emoji string) error {
	return nil
}

func (f *fakeClient) RemoveReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return nil
}

func (f *fakeClient) Delete(ctx context.Context, channelID, messageID string) error {
	return nil
}

func (f *fakeClient) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCalls
}

func (f *fakeClient) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

func (f *fakeClient) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestManager(t *testing.T, fake *fakeClient, opts ...Option) *Manager {
	t.Helper()
	m := NewManager(fake, testLogger(), opts...)
	fake.OnEvent(m.HandleEvent)
	return m
}

func TestEnsureConnectedSingleFlight(t *testing.T) {
	fake := &fakeClient{}
	m := newTestManager(t, fake, WithLoginTimeout(5*time.Second))

	const callers = 10
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			errs <- m.EnsureConnected(context.Background())
		}()
	}

	require.Eventually(t, func() bool {
		return m.State() == StateConnecting && fake.openCount() == 1
	}, time.Second, 5*time.Millisecond)

	fake.emit(platform.Event{Kind: platform.EventReady})

	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, 1, fake.openCount(), "concurrent callers must share one login")
	assert.Equal(t, StateReady, m.State())
}

func TestEnsureConnectedReadyIsNoOp(t *testing.T) {
	fake := &fakeClient{}
	m := newTestManager(t, fake)

	m.HandleEvent(platform.Event{Kind: platform.EventReady})
	require.Equal(t, StateReady, m.State())

	require.NoError(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, 0, fake.openCount())
}

func TestEnsureConnectedTimeout(t *testing.T) {
	fake := &fakeClient{} // never emits ready
	m := newTestManager(t, fake, WithLoginTimeout(30*time.Millisecond))

	err := m.EnsureConnected(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnectTimeout)
	assert.Equal(t, StateDisconnected, m.State())

	var ce *domain.ConnectError
	assert.True(t, errors.As(err, &ce))
}

func TestEnsureConnectedOpenFailure(t *testing.T) {
	fake := &fakeClient{openErr: errors.New("invalid token")}
	m := newTestManager(t, fake)

	err := m.EnsureConnected(context.Background())
	require.Error(t, err)
	assert.True(t, domain.LooksLikeAuthFailure(err))
	assert.Equal(t, StateDisconnected, m.State())

	// The settled attempt was cleared; a second call starts fresh.
	err = m.EnsureConnected(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, fake.openCount())
}

func TestTimeoutClosesStalledSession(t *testing.T) {
	fake := &fakeClient{} // Open succeeds, ready never arrives
	m := newTestManager(t, fake, WithLoginTimeout(30*time.Millisecond))

	err := m.EnsureConnected(context.Background())
	require.ErrorIs(t, err, domain.ErrConnectTimeout)
	assert.Equal(t, 1, fake.closeCount(), "a stalled handshake must be torn down")

	// With the stale session closed, the retry performs a real fresh login.
	require.Error(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, 2, fake.openCount())
}

func TestEnsureConnectedRetriesAfterTimeout(t *testing.T) {
	fake := &fakeClient{}
	m := newTestManager(t, fake, WithLoginTimeout(30*time.Millisecond))

	require.Error(t, m.EnsureConnected(context.Background()))

	fake.mu.Lock()
	fake.autoReady = true
	fake.mu.Unlock()

	require.NoError(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, StateReady, m.State())
	assert.Equal(t, 2, fake.openCount())
}

func TestHandleEventDisconnected(t *testing.T) {
	fake := &fakeClient{}
	m := newTestManager(t, fake)

	m.HandleEvent(platform.Event{Kind: platform.EventReady})
	require.Equal(t, StateReady, m.State())

	m.HandleEvent(platform.Event{Kind: platform.EventDisconnected})
	assert.Equal(t, StateDisconnected, m.State())
}

func TestHandleEventResumedIsInformational(t *testing.T) {
	fake := &fakeClient{}
	m := newTestManager(t, fake)

	m.HandleEvent(platform.Event{Kind: platform.EventReady})
	m.HandleEvent(platform.Event{Kind: platform.EventResumed})
	assert.Equal(t, StateReady, m.State())

	m.HandleEvent(platform.Event{Kind: platform.EventDisconnected})
	m.HandleEvent(platform.Event{Kind: platform.EventResumed})
	assert.Equal(t, StateDisconnected, m.State())
}

func TestResolve(t *testing.T) {
	fake := &fakeClient{channels: []platform.Channel{
		{ID: "100", Name: "general", GuildID: "g1"},
		{ID: "200", Name: "general", GuildID: "g2"},
		{ID: "300", Name: "random", GuildID: "g2"},
	}}
	m := newTestManager(t, fake)

	_, err := m.Resolve("general")
	assert.ErrorIs(t, err, domain.ErrNotReady, "resolution requires a ready session")

	m.HandleEvent(platform.Event{Kind: platform.EventReady})

	ch, err := m.Resolve("general")
	require.NoError(t, err)
	assert.Equal(t, "100", ch.ID, "first match in cache order wins")

	_, err = m.Resolve("missing")
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.Name)
}

func TestDrainOrderAndRequeue(t *testing.T) {
	fake := &fakeClient{
		channels: []platform.Channel{{ID: "100", Name: "general"}},
	}
	m := newTestManager(t, fake)
	m.HandleEvent(platform.Event{Kind: platform.EventReady})

	m.Enqueue("general", "one")
	m.Enqueue("nowhere", "two") // unresolvable, must be requeued
	m.Enqueue("general", "three")
	require.Equal(t, 3, m.QueueLen())

	m.Drain(context.Background())

	sent := fake.sentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Content, "one")
	assert.Contains(t, sent[1].Content, "three")
	for _, s := range sent {
		assert.Contains(t, s.Content, "queued while disconnected", "drained messages carry the delay notice")
	}

	assert.Equal(t, 1, m.QueueLen(), "failed delivery is requeued, not dropped")
	remaining := m.queue.TakeAll()
	assert.Equal(t, "nowhere", remaining[0].ChannelName)
}

func TestDrainConservesFailedMessages(t *testing.T) {
	fake := &fakeClient{
		channels: []platform.Channel{{ID: "100", Name: "general"}},
		sendErr:  map[string]error{"100": errors.New("HTTP 500")},
	}
	m := newTestManager(t, fake)
	m.HandleEvent(platform.Event{Kind: platform.EventReady})

	for i := 0; i < 4; i++ {
		m.Enqueue("general", "msg")
	}
	m.Drain(context.Background())

	assert.Equal(t, 4, m.QueueLen(), "queue length is conserved when every delivery fails")
}

func TestReadyEventTriggersDrain(t *testing.T) {
	fake := &fakeClient{
		channels: []platform.Channel{{ID: "100", Name: "general"}},
	}
	m := newTestManager(t, fake)

	m.Enqueue("general", "hi")
	m.HandleEvent(platform.Event{Kind: platform.EventReady})

	require.Eventually(t, func() bool {
		return len(fake.sentMessages()) == 1
	}, time.Second, 5*time.Millisecond)

	sent := fake.sentMessages()
	assert.True(t, strings.HasPrefix(sent[0].Content, "hi"))
	assert.Equal(t, 0, m.QueueLen())
}

func TestSendWhileDisconnectedNeverSends(t *testing.T) {
	fake := &fakeClient{}
	m := newTestManager(t, fake)

	err := m.Deliver(context.Background(), "general", "hi")
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.Empty(t, fake.sentMessages())
}
