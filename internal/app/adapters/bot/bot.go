package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"

	"twitchlate/internal/app/adapters/metrics"
	"twitchlate/internal/app/infrastructure/config"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

var (
	ErrNotRunning         = errors.New("bot is not running")
	ErrMissingCredentials = errors.New("missing bot username or oauth token")
)

// Session owns one bot lifecycle: connect, command handling, queue
// draining, teardown. One session per process.
type Session struct {
	log        logger.Logger
	manager    *config.Manager
	chat       ports.ChatPort
	translator ports.TranslatorPort
	feed       ports.FeedPort

	mu         sync.Mutex
	running    bool
	channel    string
	targetLang string
	enabled    bool
	queue      *queue
	cancel     context.CancelFunc
}

func New(log logger.Logger, manager *config.Manager, chat ports.ChatPort, translator ports.TranslatorPort, feed ports.FeedPort) *Session {
	s := &Session{
		log:        log,
		manager:    manager,
		chat:       chat,
		translator: translator,
		feed:       feed,
	}

	chat.OnMessage(s.handleMessage)
	chat.OnConnect(s.handleConnect)
	chat.OnDisconnect(func(reason string) {
		s.log.Warn("Chat transport disconnected", slog.String("reason", reason))
	})

	return s
}

// Start connects to the channel and begins listening. A running session
// is stopped first, so restarting with new parameters is one call.
func (s *Session) Start(channel, targetLang string) error {
	cfg := s.manager.Get()
	if cfg.App.Username == "" || cfg.App.OAuth == "" {
		return ErrMissingCredentials
	}

	if _, ok := config.SupportedLanguages[targetLang]; !ok {
		return fmt.Errorf("unsupported target language %q", targetLang)
	}

	channel = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(channel), "#"))
	if channel == "" {
		return errors.New("channel is required")
	}

	s.mu.Lock()
	if s.running {
		s.stopLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	log := logger.NewPrefixedLogger(s.log, channel)

	s.channel = channel
	s.targetLang = targetLang
	s.enabled = false
	s.cancel = cancel
	s.queue = newQueue(ctx, log, s.translator, s.feed,
		func(message string) error { return s.chat.Say(channel, message) },
		channel, targetLang,
		time.Duration(cfg.Translator.PostDelayMs)*time.Millisecond,
		cfg.Translator.DrainOnStop,
	)
	s.mu.Unlock()

	log.Info("Starting bot", slog.String("target", targetLang))

	if err := s.chat.Connect(channel); err != nil {
		s.mu.Lock()
		s.cancel()
		s.queue = nil
		s.mu.Unlock()

		s.feed.Publish(ports.EventError, map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("connect to chat: %w", err)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	metrics.BotRunning.Set(1)
	return nil
}

func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return ErrNotRunning
	}

	s.stopLocked()
	return nil
}

func (s *Session) stopLocked() {
	s.log.Info("Stopping bot", slog.String("channel", s.channel))

	q := s.queue
	cancel := s.cancel

	s.running = false
	s.enabled = false
	s.channel = ""
	s.queue = nil
	s.cancel = nil

	metrics.BotRunning.Set(0)
	metrics.TranslationEnabled.Set(0)

	disconnect := func() {
		if err := s.chat.Disconnect(); err != nil {
			s.log.Error("Error disconnecting chat transport", err)
		}
	}

	if q == nil {
		if cancel != nil {
			cancel()
		}
		disconnect()
		return
	}

	if q.drainOnStop {
		// pending items finish translating and posting; the context and
		// the transport stay alive until the consumer reports the queue
		// empty
		q.shutdown(func() {
			cancel()
			disconnect()
		})
		return
	}

	cancel()
	q.shutdown(disconnect)
}

func (s *Session) Status() ports.BotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ports.BotStatus{
		Running: s.running,
		Channel: s.channel,
	}
}

func (s *Session) handleConnect() {
	s.mu.Lock()
	channel, targetLang := s.channel, s.targetLang
	s.mu.Unlock()

	s.log.Info("Connected to chat", slog.String("channel", channel))
	s.feed.Publish(ports.EventConnected, map[string]any{
		"channel":  channel,
		"language": targetLang,
	})

	announcement := fmt.Sprintf("🤖 TranslateBot is live! Messages will be translated to %s", targetLang)
	if err := s.chat.Say(channel, announcement); err != nil {
		s.log.Error("Failed to send announcement", err)
	}
}

// handleMessage admits or drops one inbound chat line. Order matters:
// commands first, then the enabled flag, then the length filter.
func (s *Session) handleMessage(ev ports.ChatEvent) {
	if ev.IsSelf {
		return
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	channel, targetLang := s.channel, s.targetLang
	q := s.queue
	s.mu.Unlock()

	cfg := s.manager.Get().Translator
	trimmed := strings.TrimSpace(ev.Text)

	switch trimmed {
	case cfg.StartCommand:
		s.setEnabled(true)
		s.log.Info("Translation enabled by command")
		s.feed.Publish(ports.EventConnected, map[string]any{
			"channel":  channel,
			"language": targetLang,
		})
		return

	case cfg.StopCommand:
		s.setEnabled(false)
		s.log.Info("Translation disabled by command")
		// legacy dashboards listen on the error kind for this notice
		s.feed.Publish(ports.EventError, map[string]any{
			"error": "Translation stopped",
		})
		s.feed.Publish(ports.EventStatus, map[string]any{
			"message": "Translation stopped",
		})
		return
	}

	if strings.HasPrefix(ev.Text, cfg.CommandPrefix) {
		return
	}

	if !s.isEnabled() {
		return
	}

	if utf8.RuneCountInString(ev.Text) < 2 {
		return
	}

	user := ev.DisplayName
	if user == "" {
		user = ev.Username
	}
	if user == "" {
		user = "User"
	}

	s.log.Debug("Message received", slog.String("user", user), slog.String("text", ev.Text))
	metrics.MessagesReceived.With(prometheus.Labels{"channel": channel}).Inc()
	s.feed.Publish(ports.EventMessageReceived, map[string]any{
		"user":    user,
		"message": ev.Text,
		"channel": channel,
	})

	q.enqueue(queuedItem{
		text:   ev.Text,
		user:   user,
		emotes: ev.Emotes,
	})
}

func (s *Session) setEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()

	if enabled {
		metrics.TranslationEnabled.Set(1)
	} else {
		metrics.TranslationEnabled.Set(0)
	}
}

func (s *Session) isEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}
