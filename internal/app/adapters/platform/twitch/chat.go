// Package twitch adapts go-twitch-irc to the chat transport port: one
// joined channel, inbound lines surfaced as ChatEvents, outbound posts
// through Say.
package twitch

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	irc "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"

	"twitchlate/internal/app/infrastructure/config"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

const connectTimeout = 15 * time.Second

type Chat struct {
	log     logger.Logger
	manager *config.Manager

	mu      sync.Mutex
	client  *irc.Client
	channel string

	onMessage    func(ev ports.ChatEvent)
	onConnect    func()
	onDisconnect func(reason string)
}

func New(log logger.Logger, manager *config.Manager) *Chat {
	return &Chat{
		log:     log,
		manager: manager,
	}
}

func (c *Chat) OnMessage(fn func(ev ports.ChatEvent)) { c.onMessage = fn }
func (c *Chat) OnConnect(fn func())                   { c.onConnect = fn }
func (c *Chat) OnDisconnect(fn func(reason string))   { c.onDisconnect = fn }

// Connect joins the channel and blocks until the IRC session is
// established, the dial fails, or the timeout fires.
func (c *Chat) Connect(channel string) error {
	c.mu.Lock()
	c.disconnectLocked()

	cfg := c.manager.Get()
	token := cfg.App.OAuth
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}

	client := irc.NewClient(cfg.App.Username, token)
	selfName := strings.ToLower(cfg.App.Username)

	client.OnPrivateMessage(func(msg irc.PrivateMessage) {
		if c.onMessage == nil {
			return
		}
		c.onMessage(toChatEvent(msg, selfName))
	})

	connected := make(chan struct{})
	var once sync.Once
	var established atomic.Bool

	client.OnConnect(func() {
		established.Store(true)
		once.Do(func() { close(connected) })
		if c.onConnect != nil {
			c.onConnect()
		}
	})

	client.Join(channel)

	errCh := make(chan error, 1)
	go func() {
		err := client.Connect()
		if established.Load() {
			// connection dropped after a successful session
			reason := "connection closed"
			if err != nil && !errors.Is(err, irc.ErrClientDisconnected) {
				reason = err.Error()
			}
			if c.onDisconnect != nil {
				c.onDisconnect(reason)
			}
			return
		}
		errCh <- err
	}()

	c.client = client
	c.channel = channel
	c.mu.Unlock()

	select {
	case <-connected:
		c.log.Info("Joined channel", slog.String("channel", channel))
		return nil

	case err := <-errCh:
		c.mu.Lock()
		c.client = nil
		c.channel = ""
		c.mu.Unlock()

		if err == nil {
			err = errors.New("chat connection closed before joining")
		}
		return err

	case <-time.After(connectTimeout):
		c.mu.Lock()
		c.disconnectLocked()
		c.mu.Unlock()

		return fmt.Errorf("timed out connecting to chat after %s", connectTimeout)
	}
}

func (c *Chat) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disconnectLocked()
	return nil
}

func (c *Chat) disconnectLocked() {
	if c.client == nil {
		return
	}

	if err := c.client.Disconnect(); err != nil && !errors.Is(err, irc.ErrConnectionIsNotOpen) {
		c.log.Debug("Disconnect returned error", slog.String("error", err.Error()))
	}
	c.client = nil
	c.channel = ""
}

func (c *Chat) Say(channel, message string) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return errors.New("chat transport is not connected")
	}

	client.Say(channel, message)
	return nil
}

func toChatEvent(msg irc.PrivateMessage, selfName string) ports.ChatEvent {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}

	var emotes []ports.EmoteRange
	for _, e := range msg.Emotes {
		for _, p := range e.Positions {
			emotes = append(emotes, ports.EmoteRange{Start: p.Start, End: p.End})
		}
	}

	return ports.ChatEvent{
		ID:          id,
		Username:    msg.User.Name,
		DisplayName: msg.User.DisplayName,
		Text:        msg.Message,
		Timestamp:   msg.Time.UnixMilli(),
		Color:       msg.User.Color,
		Badges:      msg.User.Badges,
		Emotes:      emotes,
		IsSelf:      strings.ToLower(msg.User.Name) == selfName,
	}
}
