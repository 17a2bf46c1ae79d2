package commands

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/mcsr-br/ranked-bot/discord"
	"github.com/mcsr-br/ranked-bot/embed"
	"github.com/mcsr-br/ranked-bot/scoreapi"
)

const headURL = "https://mc-heads.net/head/"

func compareDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "compare",
		Description: "Visualize o score de dois jogadores",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "player_one", Description: "Nome do primeiro jogador", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "player_two", Description: "Nome do segundo jogador", Required: true},
			{Type: discordgo.ApplicationCommandOptionNumber, Name: "season", Description: "Número da season para comparação (opcional, padrão: todas as seasons)"},
		},
		DefaultMemberPermissions: &sendMessages,
	}
}

func (d Deps) compare(ctx context.Context, in discord.Interaction) error {
	if d.Scores == nil {
		return fmt.Errorf("compare: score source not configured")
	}
	p1, _ := in.StringOption("player_one")
	p2, _ := in.StringOption("player_two")
	season, _ := in.NumberOption("season")
	allTime := season == 0

	var (
		scores scoreapi.Scores
		err    error
	)
	if allTime {
		scores, err = d.Scores.AllTime(ctx, p1, p2)
	} else {
		if season != math.Trunc(season) {
			return fmt.Errorf("%w: %v", scoreapi.ErrSeasonNotFound, season)
		}
		scores, err = d.Scores.Season(ctx, p1, p2, int(season))
	}
	if err != nil {
		return err
	}

	e, err := d.compareEmbed(p1, p2, season, scores)
	if err != nil {
		return err
	}
	return in.Reply(ctx, discord.Response{Embeds: []embed.Embed{e}})
}

func (d Deps) compareEmbed(p1, p2 string, season float64, scores scoreapi.Scores) (embed.Embed, error) {
	id1, s1, err := scores.Lookup(p1)
	if err != nil {
		return embed.Embed{}, err
	}
	id2, s2, err := scores.Lookup(p2)
	if err != nil {
		return embed.Embed{}, err
	}

	winner, glyph1, glyph2 := id1, "🤝", "🤝"
	switch {
	case s1 > s2:
		glyph1, glyph2 = "🏆", "💀"
	case s2 > s1:
		winner, glyph1, glyph2 = id2, "💀", "🏆"
	}

	author, label := "⚔ Ranked All-Time Scores", "Todas"
	if season != 0 {
		author, label = "⚔ Ranked Season Scores", formatScore(season)
	}

	desc := fmt.Sprintf("**Season: %s**\n\n%s **%s:** %s\n%s **%s:** %s",
		label, glyph1, p1, formatScore(s1), glyph2, p2, formatScore(s2))
	details := embed.Field{Name: "📊 Visualizar detalhes", Value: "[Clique aqui](" + scoreapi.DetailsURL(p1, p2) + ")"}

	return embed.Embed{
		Author:      &embed.Author{Name: author},
		Title:       p1 + " 🆚 " + p2,
		Description: desc,
		Color:       d.color(),
		Fields:      []embed.Field{details},
		Thumbnail:   headURL + winner,
		Footer:      &embed.Footer{Text: "• MCSR BR", IconURL: d.FooterIconURL},
		Timestamp:   d.now(),
	}, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
