package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
)

// Bot owns the gateway session and routes slash commands.
type Bot struct {
	session *discordgo.Session
	router  *Router
	logger  *slog.Logger

	ctx   context.Context
	ready atomic.Bool
}

// NewBot creates a session for token. Nothing connects until Open.
func NewBot(token string, router *Router, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds
	b := &Bot{session: s, router: router, logger: logger.With(slog.String("component", "discord")), ctx: context.Background()}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	return b, nil
}

// Open connects to the gateway. ctx bounds command handlers.
func (b *Bot) Open(ctx context.Context) error {
	b.ctx = ctx
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	b.ready.Store(false)
	return b.session.Close()
}

// Ready reports whether the gateway handshake finished.
func (b *Bot) Ready() bool { return b.ready.Load() }

// Messenger returns a messenger backed by this session.
func (b *Bot) Messenger() *Messenger { return NewMessenger(b.session) }

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.ready.Store(true)
	tag := ""
	if r.User != nil {
		tag = User{Username: r.User.Username, Discriminator: r.User.Discriminator}.Tag()
	}
	b.logger.Info("ready! logged in", slog.String("user", tag), slog.Int("guilds", len(r.Guilds)))
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.router.Dispatch(b.ctx, newSessionInteraction(s, s.State, i.Interaction))
}
