// Package commands holds the bot's slash commands.
package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mcsr-br/ranked-bot/discord"
	"github.com/mcsr-br/ranked-bot/scoreapi"
)

// ScoreSource answers /compare.
type ScoreSource interface {
	AllTime(ctx context.Context, p1, p2 string) (scoreapi.Scores, error)
	Season(ctx context.Context, p1, p2 string, season int) (scoreapi.Scores, error)
}

// Deps are the collaborators the commands need. Zero values of Now and Color
// fall back to time.Now and a random color.
type Deps struct {
	Scores        ScoreSource
	FooterIconURL string
	Now           func() time.Time
	Color         func() int
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) color() int {
	if d.Color != nil {
		return d.Color()
	}
	return rand.IntN(0xFFFFFF)
}

var sendMessages int64 = discordgo.PermissionSendMessages

// All returns every command wired to d.
func All(d Deps) []discord.Command {
	return []discord.Command{
		{Definition: pingDefinition(), Handler: d.ping},
		{Definition: sayDefinition(), Handler: say},
		{Definition: serverDefinition(), Handler: server},
		{Definition: userDefinition(), Handler: user},
		{Definition: compareDefinition(), Handler: d.compare},
	}
}

// Definitions returns the command definitions for registration.
func Definitions() []*discordgo.ApplicationCommand {
	cmds := All(Deps{})
	out := make([]*discordgo.ApplicationCommand, len(cmds))
	for i, c := range cmds {
		out[i] = c.Definition
	}
	return out
}

func pingDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: "ping", Description: "Replies with Pong! and latency"}
}

func (d Deps) ping(ctx context.Context, in discord.Interaction) error {
	sent := d.now()
	if err := in.Reply(ctx, discord.Response{Content: "Pinging...", Ephemeral: true}); err != nil {
		return err
	}
	latency := d.now().Sub(sent).Milliseconds()
	return in.EditReply(ctx, fmt.Sprintf("Pong! Latency: %dms", latency))
}

func sayDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "say",
		Description: "Make the bot say something",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "What should I say?", Required: true},
			{Type: discordgo.ApplicationCommandOptionBoolean, Name: "ephemeral", Description: "Only you can see the response?"},
		},
		DefaultMemberPermissions: &sendMessages,
	}
}

func say(ctx context.Context, in discord.Interaction) error {
	text, _ := in.StringOption("text")
	ephemeral, _ := in.BoolOption("ephemeral")
	return in.Reply(ctx, discord.Response{Content: text, Ephemeral: ephemeral})
}

func serverDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: "server", Description: "Displays info about this server"}
}

func server(ctx context.Context, in discord.Interaction) error {
	g, err := in.Guild(ctx)
	if err != nil {
		return fmt.Errorf("load guild: %w", err)
	}
	if g == nil {
		return in.Reply(ctx, discord.Response{Content: "This command can only be used in a server.", Ephemeral: true})
	}
	return in.Reply(ctx, discord.Response{
		Content:   fmt.Sprintf("Server name: %s\nTotal members: %d", g.Name, g.MemberCount),
		Ephemeral: true,
	})
}

func userDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: "user", Description: "Displays info about the user who invoked the command"}
}

func user(ctx context.Context, in discord.Interaction) error {
	u := in.User()
	return in.Reply(ctx, discord.Response{
		Content:   fmt.Sprintf("Your tag: %s\nYour id: %s", u.Tag(), u.ID),
		Ephemeral: true,
	})
}
