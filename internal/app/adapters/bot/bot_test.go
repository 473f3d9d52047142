package bot

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitchlate/internal/app/infrastructure/config"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

type stubChat struct {
	mu           sync.Mutex
	onMessage    func(ev ports.ChatEvent)
	onConnect    func()
	onDisconnect func(reason string)

	connectErr error
	connected  bool
	said       []string
}

func (c *stubChat) Connect(channel string) error {
	if c.connectErr != nil {
		return c.connectErr
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	if c.onConnect != nil {
		c.onConnect()
	}
	return nil
}

func (c *stubChat) Disconnect() error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

func (c *stubChat) Say(_, message string) error {
	c.mu.Lock()
	c.said = append(c.said, message)
	c.mu.Unlock()
	return nil
}

func (c *stubChat) OnMessage(fn func(ev ports.ChatEvent)) { c.onMessage = fn }
func (c *stubChat) OnConnect(fn func())                   { c.onConnect = fn }
func (c *stubChat) OnDisconnect(fn func(reason string))   { c.onDisconnect = fn }

func (c *stubChat) deliver(ev ports.ChatEvent) { c.onMessage(ev) }

func (c *stubChat) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.said...)
}

func newTestSession(t *testing.T) (*Session, *stubChat, *stubFeed, *stubTranslator) {
	t.Helper()

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.App.Username = "translatebot"
		cfg.App.OAuth = "testtoken"
		cfg.Translator.PostDelayMs = 0
	}))

	chat := &stubChat{}
	feed := &stubFeed{}
	tr := &stubTranslator{}
	return New(logger.New(), manager, chat, tr, feed), chat, feed, tr
}

func chatLine(text string) ports.ChatEvent {
	return ports.ChatEvent{
		ID:          "id",
		Username:    "viewer",
		DisplayName: "Viewer",
		Text:        text,
		Timestamp:   time.Now().UnixMilli(),
	}
}

func TestSessionStartAnnounces(t *testing.T) {
	t.Parallel()

	s, chat, feed, _ := newTestSession(t)

	require.NoError(t, s.Start("#TestChannel", "es"))

	st := s.Status()
	assert.True(t, st.Running)
	assert.Equal(t, "testchannel", st.Channel, "channel is normalized")

	require.Len(t, chat.messages(), 1)
	assert.Contains(t, chat.messages()[0], "translated to es")
	assert.Equal(t, 1, feed.count(ports.EventConnected))
}

func TestSessionStartValidations(t *testing.T) {
	t.Parallel()

	s, _, _, _ := newTestSession(t)

	assert.Error(t, s.Start("channel", "xx"), "unsupported language")
	assert.Error(t, s.Start("", "es"), "empty channel")
}

func TestSessionStartMissingCredentials(t *testing.T) {
	t.Parallel()

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.App.Username = ""
		cfg.App.OAuth = ""
	}))

	s := New(logger.New(), manager, &stubChat{}, &stubTranslator{}, &stubFeed{})
	assert.ErrorIs(t, s.Start("channel", "es"), ErrMissingCredentials)
}

func TestSessionConnectFailure(t *testing.T) {
	t.Parallel()

	s, chat, feed, _ := newTestSession(t)
	chat.connectErr = errors.New("dial tcp: refused")

	err := s.Start("channel", "es")
	require.Error(t, err)
	assert.False(t, s.Status().Running)
	assert.Equal(t, 1, feed.count(ports.EventError))
}

func TestSessionCommandFlow(t *testing.T) {
	t.Parallel()

	s, chat, feed, tr := newTestSession(t)
	require.NoError(t, s.Start("channel", "es"))

	// disabled until !ton: regular lines are dropped silently
	chat.deliver(chatLine("hello world"))
	assert.Zero(t, feed.count(ports.EventMessageReceived))

	chat.deliver(chatLine("!ton"))
	assert.Equal(t, 2, feed.count(ports.EventConnected), "start command re-emits connected")

	chat.deliver(chatLine("hello world"))
	require.Eventually(t, func() bool {
		return feed.count(ports.EventMessageSent) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, feed.count(ports.EventMessageReceived))

	// other commands are ignored without any notification
	before := len(feed.kinds())
	chat.deliver(chatLine("!uptime"))
	assert.Len(t, feed.kinds(), before)

	chat.deliver(chatLine("!toff"))
	assert.Equal(t, 1, feed.count(ports.EventError), "stop command reuses the error kind")
	assert.Equal(t, 1, feed.count(ports.EventStatus))

	chat.deliver(chatLine("dropped after toff"))
	assert.Equal(t, 1, feed.count(ports.EventMessageReceived))

	tr.mu.Lock()
	calls := tr.calls
	tr.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestSessionFilters(t *testing.T) {
	t.Parallel()

	s, chat, feed, _ := newTestSession(t)
	require.NoError(t, s.Start("channel", "es"))
	chat.deliver(chatLine("!ton"))

	// self lines always dropped
	self := chatLine("soy el bot")
	self.IsSelf = true
	chat.deliver(self)

	// single-character lines dropped
	chat.deliver(chatLine("h"))

	assert.Zero(t, feed.count(ports.EventMessageReceived))
}

func TestSessionStopIdempotent(t *testing.T) {
	t.Parallel()

	s, chat, _, _ := newTestSession(t)
	require.NoError(t, s.Start("channel", "es"))

	require.NoError(t, s.Stop())
	assert.False(t, s.Status().Running)
	assert.False(t, chat.connected)

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestSessionStopFinishesQueuedTranslations(t *testing.T) {
	t.Parallel()

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.App.Username = "translatebot"
		cfg.App.OAuth = "testtoken"
		cfg.Translator.PostDelayMs = 0
	}))

	chat := &stubChat{}
	feed := &stubFeed{}
	tr := &gatedTranslator{started: make(chan struct{}, 2), release: make(chan struct{})}
	s := New(logger.New(), manager, chat, tr, feed)

	require.NoError(t, s.Start("channel", "es"))
	chat.deliver(chatLine("!ton"))
	chat.deliver(chatLine("primer mensaje"))
	chat.deliver(chatLine("segundo mensaje"))

	<-tr.started // first item is mid-translate
	require.NoError(t, s.Stop())
	assert.False(t, s.Status().Running)
	close(tr.release)

	require.Eventually(t, func() bool {
		return feed.count(ports.EventMessageSent) == 2
	}, 2*time.Second, 5*time.Millisecond)

	for _, ctxErr := range tr.errs() {
		assert.NoError(t, ctxErr, "queued items keep a live context through the drain")
	}

	msgs := chat.messages()
	require.Len(t, msgs, 3, "announcement plus both translations")
	assert.Contains(t, msgs[1], "primer mensaje")
	assert.Contains(t, msgs[2], "segundo mensaje")

	// the transport goes down only after the queue is empty
	require.Eventually(t, func() bool {
		chat.mu.Lock()
		defer chat.mu.Unlock()
		return !chat.connected
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionRestart(t *testing.T) {
	t.Parallel()

	s, _, _, _ := newTestSession(t)
	require.NoError(t, s.Start("first", "es"))
	require.NoError(t, s.Start("second", "ja"), "start while running stops and reconnects")

	st := s.Status()
	assert.True(t, st.Running)
	assert.Equal(t, "second", st.Channel)
}

func TestSessionDisplayNameFallback(t *testing.T) {
	t.Parallel()

	s, chat, feed, _ := newTestSession(t)
	require.NoError(t, s.Start("channel", "es"))
	chat.deliver(chatLine("!ton"))

	ev := chatLine("buenos dias")
	ev.DisplayName = ""
	chat.deliver(ev)

	require.Eventually(t, func() bool {
		return feed.count(ports.EventMessageSent) == 1
	}, 2*time.Second, 5*time.Millisecond)

	feed.mu.Lock()
	defer feed.mu.Unlock()
	for _, e := range feed.events {
		if e.Type == ports.EventMessageSent {
			data := e.Data.(map[string]any)
			assert.Equal(t, "viewer", data["user"])
		}
	}
}
