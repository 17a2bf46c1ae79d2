package ranked

import (
	"fmt"
	"strings"

	"github.com/mcsr-br/ranked-bot/config"
	"github.com/mcsr-br/ranked-bot/embed"
)

const brandLabel = "MCSR BR"

// Renderer turns match views into announcement embeds.
type Renderer struct {
	Glyphs        config.Glyphs
	FooterIconURL string
}

// Color picks the embed color for v.
func Color(v View) int {
	isDraw := v.Outcome == OutcomeDraw
	anyRegional := v.AnyRegional()
	switch {
	case isDraw && anyRegional:
		return embed.ColorYellow
	case v.BothRegional():
		return embed.ColorLightBlue
	case anyRegional && v.WinnerUUID != "":
		for _, s := range v.Sides() {
			if s.Regional && s.Player.UUID == v.WinnerUUID {
				return embed.ColorGreen
			}
		}
		return embed.ColorRed
	case v.Forfeited:
		return embed.ColorOrange
	case isDraw:
		return embed.ColorYellow
	}
	return embed.ColorGreen
}

// Title picks the embed title for v.
func (r Renderer) Title(v View) string {
	switch {
	case v.Outcome == OutcomeDraw:
		return "⚖️ MCSR Ranked (Empate)"
	case v.Forfeited:
		return "🏳️ MCSR Ranked (forfeited)"
	}
	return r.Glyphs.Trophy + " MCSR Ranked"
}

// Line renders one description line without the bullet.
func (r Renderer) Line(v View, s *Side) string {
	if s == nil {
		return Placeholder
	}
	name := s.Player.Nickname
	if name == "" {
		name = "???"
	}
	if s.Winner {
		name = "**" + name + "**"
	}
	var suffix string
	switch {
	case v.Outcome == OutcomeDraw:
	case s.Winner:
		suffix = " — " + r.Glyphs.Win
	case s.LostByForfeit:
		suffix = " — " + r.Glyphs.Lose + r.Glyphs.Forfeit
	default:
		suffix = " — " + r.Glyphs.Lose
	}
	line := CountryFlag(s.Player.Country, r.Glyphs.Globe) + " " + name + suffix
	if rating := s.Rating.String(); rating != "" {
		line += " " + rating
	}
	return line
}

// Embed builds the announcement for v.
func (r Renderer) Embed(v View) embed.Embed {
	var overworldGlyph string
	if v.OverworldCode != "" {
		overworldGlyph = r.Glyphs.Structures[strings.ToUpper(v.OverworldCode)]
	}
	e := embed.Embed{
		Title:       r.Title(v),
		Color:       Color(v),
		Description: "• " + r.Line(v, v.First) + "\n• " + r.Line(v, v.Second),
		Fields: []embed.Field{
			{Name: r.Glyphs.Clock + " Tempo", Value: v.Duration, Inline: true},
			{
				Name:   r.Glyphs.Seed + " Seed",
				Value:  fmt.Sprintf("%s Overworld: `%s`\n%s Bastion: `%s`", overworldGlyph, v.Overworld, r.Glyphs.Bastion, v.Bastion),
				Inline: true,
			},
		},
		Footer:    &embed.Footer{Text: fmt.Sprintf("Match ID: %s • %s", v.ID, brandLabel), IconURL: r.FooterIconURL},
		Timestamp: v.Date,
	}
	return e
}

// Summary renders a one-line plain text summary, used by the chat mirror.
func Summary(v View) string {
	name := func(s *Side) string {
		if s == nil || s.Player.Nickname == "" {
			return "???"
		}
		return s.Player.Nickname
	}
	var body string
	switch v.Outcome {
	case OutcomeDraw:
		body = fmt.Sprintf("%s empatou com %s", name(v.First), name(v.Second))
	case OutcomeForfeit:
		body = fmt.Sprintf("%s vs %s (forfeited)", name(v.First), name(v.Second))
	default:
		winner, loser := v.First, v.Second
		if loser != nil && loser.Winner {
			winner, loser = loser, winner
		}
		body = fmt.Sprintf("%s venceu %s", name(winner), name(loser))
		if v.Forfeited {
			body += " (forfeit)"
		}
	}
	return fmt.Sprintf("MCSR Ranked: %s • %s • Match %s", body, v.Duration, v.ID)
}
