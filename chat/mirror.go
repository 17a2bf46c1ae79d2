package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"golang.org/x/time/rate"
)

// ErrNotConnected is returned by Announce before the IRC handshake completes.
var ErrNotConnected = errors.New("chat: twitch irc not connected")

// maxMessageLen is Twitch's limit for a single chat message.
const maxMessageLen = 500

// IRC is the subset of *twitch.Client the mirror uses.
type IRC interface {
	OnConnect(callback func())
	Join(channels ...string)
	Say(channel, text string)
	Connect() error
	Disconnect() error
}

// Mirror says announcements in one Twitch channel.
type Mirror struct {
	client    IRC
	channel   string
	limiter   *rate.Limiter
	logger    *slog.Logger
	connected atomic.Bool
}

// NewMirror creates a mirror over a go-twitch-irc client.
func NewMirror(channel, username, oauthToken string, logger *slog.Logger) *Mirror {
	if !strings.HasPrefix(oauthToken, "oauth:") {
		oauthToken = "oauth:" + oauthToken
	}
	return newMirror(twitch.NewClient(username, oauthToken), channel, logger)
}

func newMirror(client IRC, channel string, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mirror{
		client:  client,
		channel: strings.ToLower(strings.TrimPrefix(channel, "#")),
		// 20 messages per 30s is the non-moderator limit.
		limiter: rate.NewLimiter(rate.Every(1500*time.Millisecond), 1),
		logger:  logger.With(slog.String("component", "chat_mirror")),
	}
	client.OnConnect(func() {
		m.connected.Store(true)
		m.logger.Info("twitch chat connected", slog.String("channel", m.channel))
	})
	return m
}

// Connected reports whether the IRC session is up.
func (m *Mirror) Connected() bool { return m.connected.Load() }

// Run joins the channel and blocks until ctx is cancelled or the connection fails.
func (m *Mirror) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.connected.Store(false)
			_ = m.client.Disconnect()
		case <-done:
		}
	}()

	m.client.Join(m.channel)
	err := m.client.Connect()
	m.connected.Store(false)
	if err == nil || errors.Is(err, twitch.ErrClientDisconnected) || ctx.Err() != nil {
		return nil
	}
	m.logger.Error("twitch chat connect error", slog.Any("err", err))
	return fmt.Errorf("twitch irc: %w", err)
}

// Announce says text in the channel, waiting for the send rate limit.
func (m *Mirror) Announce(ctx context.Context, text string) error {
	if !m.connected.Load() {
		return ErrNotConnected
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("chat rate limit wait: %w", err)
	}
	if r := []rune(text); len(r) > maxMessageLen {
		text = string(r[:maxMessageLen])
	}
	m.client.Say(m.channel, text)
	return nil
}
