// Package discord adapts discordgo to the bot: announcement delivery for the
// ranked watcher and a small slash-command framework.
//
// Handlers see an Interaction, not a discordgo type, so they can be tested
// with a fake. The Router is the error boundary: a handler error or panic is
// logged and answered with a generic ephemeral failure message.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/mcsr-br/ranked-bot/embed"
	"github.com/mcsr-br/ranked-bot/telemetry"
)

// GenericFailure is shown when a command fails.
const GenericFailure = "There was an error while executing this command!"

// Response is a reply to an interaction.
type Response struct {
	Content   string
	Embeds    []embed.Embed
	Ephemeral bool
}

// User is the invoking user.
type User struct {
	ID            string
	Username      string
	Discriminator string
}

// Tag renders name#discriminator, or just the name for accounts without one.
func (u User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// Guild is the server a command was invoked in.
type Guild struct {
	ID          string
	Name        string
	MemberCount int
}

// Interaction is one slash command invocation.
type Interaction interface {
	CommandName() string
	StringOption(name string) (string, bool)
	NumberOption(name string) (float64, bool)
	BoolOption(name string) (bool, bool)
	User() User
	// Guild returns nil outside a server.
	Guild(ctx context.Context) (*Guild, error)
	Reply(ctx context.Context, r Response) error
	FollowUp(ctx context.Context, r Response) error
	EditReply(ctx context.Context, content string) error
	// Replied reports whether the initial reply was sent.
	Replied() bool
}

// HandlerFunc executes a command.
type HandlerFunc func(ctx context.Context, in Interaction) error

// Command pairs a definition with its handler.
type Command struct {
	Definition *discordgo.ApplicationCommand
	Handler    HandlerFunc
}

// Router dispatches interactions to commands by name.
type Router struct {
	logger *slog.Logger

	mu       sync.RWMutex
	commands map[string]Command
}

// NewRouter returns an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{logger: logger.With(slog.String("component", "discord_router")), commands: make(map[string]Command)}
}

// Register adds commands. A later command with the same name replaces an earlier one.
func (r *Router) Register(cmds ...Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cmds {
		if c.Definition == nil || c.Handler == nil {
			r.logger.Warn("command missing definition or handler; skipped")
			continue
		}
		r.commands[c.Definition.Name] = c
		r.logger.Info("loaded command", slog.String("command", c.Definition.Name))
	}
}

// Names returns the registered command names, sorted.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.commands))
	for name := range r.commands {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler for in. Unknown commands are logged and ignored.
func (r *Router) Dispatch(ctx context.Context, in Interaction) {
	name := in.CommandName()
	r.mu.RLock()
	cmd, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.Warn("no command handler found", slog.String("command", name))
		return
	}

	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	ctx, span := telemetry.StartSpan(ctx, "discord.command", telemetry.CommandAttr(name))
	defer span.End()
	log := r.logger.With(slog.String("command", name), slog.String("corr", telemetry.GetCorrelation(ctx)))

	start := time.Now()
	err := run(ctx, cmd.Handler, in)
	if err == nil {
		telemetry.IncCommand(name, "ok")
		telemetry.SetSpanSuccess(span)
		log.Debug("command executed", slog.Duration("took", time.Since(start)))
		return
	}
	telemetry.IncCommand(name, "error")
	telemetry.RecordError(span, err)
	log.Error("error executing command", slog.Any("err", err))

	failure := Response{Content: GenericFailure, Ephemeral: true}
	if in.Replied() {
		err = in.FollowUp(ctx, failure)
	} else {
		err = in.Reply(ctx, failure)
	}
	if err != nil {
		log.Error("failed to send error reply", slog.Any("err", err))
	}
}

// run calls h, turning a panic into an error.
func run(ctx context.Context, h HandlerFunc, in Interaction) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("command panicked: %v", rec)
		}
	}()
	return h(ctx, in)
}
