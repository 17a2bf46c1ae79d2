package ranked

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Outcome classifies how a match ended.
type Outcome int

const (
	// OutcomeDraw is a match with no winner that was not forfeited.
	OutcomeDraw Outcome = iota
	// OutcomeWin is a match with a declared winner, forfeited or not.
	OutcomeWin
	// OutcomeForfeit is a forfeited match with no declared winner.
	OutcomeForfeit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeForfeit:
		return "forfeit"
	default:
		return "draw"
	}
}

// Placeholder renders missing values.
const Placeholder = "—"

// Thresholds separating second and millisecond inputs.
const (
	durationMillisThreshold = 100000
	dateMillisThreshold     = 9999999999
)

// seedNames maps upper-case seed codes to display names. Unknown codes pass through.
var seedNames = map[string]string{
	"VILLAGE":         "Village",
	"SHIPWRECK":       "Shipwreck",
	"DESERT_TEMPLE":   "Desert Temple",
	"RUINED_PORTAL":   "Ruined Portal",
	"BURIED_TREASURE": "Buried Treasure",
	"BRIDGE":          "Bridge",
	"HOUSING":         "Housing",
	"STABLES":         "Stables",
	"TREASURE":        "Treasure",
}

// Rating is a player's rating annotation.
type Rating struct {
	Before, After, Delta float64
	// HasDelta is set when a change record with a usable rating was found.
	HasDelta bool
	// HasValue is set when at least a static rating is known.
	HasValue bool
}

// String renders "`before → after (+d)`", "`elo`" or "".
func (r Rating) String() string {
	switch {
	case r.HasDelta:
		sign := formatNumber(r.Delta)
		if r.Delta > 0 {
			sign = "+" + sign
		}
		return fmt.Sprintf("`%s → %s (%s)`", formatNumber(r.Before), formatNumber(r.After), sign)
	case r.HasValue:
		return "`" + formatNumber(r.After) + "`"
	}
	return ""
}

// Side is one displayed participant.
type Side struct {
	Player Player
	Winner bool
	// LostByForfeit marks the loser of a forfeited match with a winner.
	LostByForfeit bool
	Regional      bool
	Rating        Rating
}

// View is the normalized form of a match used for presentation.
type View struct {
	ID         string
	Outcome    Outcome
	Forfeited  bool
	WinnerUUID string
	// First and Second are in display order: winner first when both players
	// resolve, feed order otherwise. Either may be nil.
	First, Second *Side

	Duration      string
	OverworldCode string
	Overworld     string
	Bastion       string
	Date          time.Time
}

// Sides returns the non-nil sides in display order.
func (v View) Sides() []*Side {
	out := make([]*Side, 0, 2)
	for _, s := range []*Side{v.First, v.Second} {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// AnyRegional reports whether a displayed side is from a watched region.
func (v View) AnyRegional() bool {
	return (v.First != nil && v.First.Regional) || (v.Second != nil && v.Second.Regional)
}

// BothRegional reports whether both displayed sides are from watched regions.
func (v View) BothRegional() bool {
	return v.First != nil && v.First.Regional && v.Second != nil && v.Second.Regional
}

// Regions matches country codes against the watched regions, case-insensitively.
type Regions []string

// Contains reports whether country is a watched region. Empty never matches.
func (r Regions) Contains(country string) bool {
	if country == "" {
		return false
	}
	for _, code := range r {
		if strings.EqualFold(code, country) {
			return true
		}
	}
	return false
}

// AnyPlayer reports whether any participant of m is from a watched region.
func (r Regions) AnyPlayer(m Match) bool {
	for _, p := range m.Players {
		if r.Contains(p.Country) {
			return true
		}
	}
	return false
}

// Normalize builds the view of m.
func Normalize(m Match, regions Regions) View {
	winnerUUID := m.WinnerUUID()
	hasWinner := winnerUUID != ""
	v := View{
		ID:         m.ID.String(),
		Forfeited:  bool(m.Forfeited),
		WinnerUUID: winnerUUID,
		Duration:   Placeholder,
		Overworld:  Placeholder,
		Bastion:    Placeholder,
	}
	switch {
	case hasWinner:
		v.Outcome = OutcomeWin
	case v.Forfeited:
		v.Outcome = OutcomeForfeit
	default:
		v.Outcome = OutcomeDraw
	}

	var winner, loser *Player
	if hasWinner {
		for i := range m.Players {
			p := &m.Players[i]
			if winner == nil && p.UUID == winnerUUID {
				winner = p
			}
			if loser == nil && p.UUID != winnerUUID {
				loser = p
			}
		}
	}
	var first, second *Player
	if winner != nil && loser != nil {
		first, second = winner, loser
	} else {
		if len(m.Players) > 0 {
			first = &m.Players[0]
		}
		if len(m.Players) > 1 {
			second = &m.Players[1]
		}
	}
	side := func(p *Player) *Side {
		if p == nil {
			return nil
		}
		return &Side{
			Player:        *p,
			Winner:        winner != nil && p.UUID == winner.UUID,
			LostByForfeit: v.Forfeited && loser != nil && p.UUID == loser.UUID,
			Regional:      regions.Contains(p.Country),
			Rating:        ratingFor(m, *p),
		}
	}
	v.First, v.Second = side(first), side(second)

	if m.Result != nil {
		v.Duration = FormatDuration(m.Result.Time)
	}
	if m.Seed != nil {
		if m.Seed.Overworld != "" {
			v.OverworldCode = m.Seed.Overworld
			v.Overworld = SeedLabel(m.Seed.Overworld)
		}
		bastion := m.Seed.Nether
		if bastion == "" {
			bastion = m.Seed.BastionType
		}
		if bastion != "" {
			v.Bastion = SeedLabel(bastion)
		}
	}
	if t, ok := MatchTime(m.Date); ok {
		v.Date = t
	}
	return v
}

// ratingFor derives the rating annotation. A change record's eloRate is the
// post-match rating; the player's static eloRate stands in when it is absent.
func ratingFor(m Match, p Player) Rating {
	after := p.EloRate
	var change Number
	for _, c := range m.Changes {
		if c.UUID == p.UUID {
			change = c.Change
			if c.EloRate.Valid {
				after = c.EloRate
			}
			break
		}
	}
	if !finite(after) {
		return Rating{}
	}
	if finite(change) {
		return Rating{
			Before:   after.Value - change.Value,
			After:    after.Value,
			Delta:    change.Value,
			HasDelta: true,
			HasValue: true,
		}
	}
	return Rating{After: after.Value, HasValue: true}
}

// CountryFlag renders a two-letter code as regional indicator symbols. Other
// codes are shown verbatim in upper case; an empty code shows globe.
func CountryFlag(country, globe string) string {
	if country == "" {
		return globe
	}
	code := strings.ToUpper(country)
	if len(code) != 2 || !isASCIIUpper(code[0]) || !isASCIIUpper(code[1]) {
		return code
	}
	const base = 0x1F1E6
	return string([]rune{rune(base + int(code[0]-'A')), rune(base + int(code[1]-'A'))})
}

func isASCIIUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// SeedLabel translates a seed code. Lookup is case-insensitive; unknown codes pass through.
func SeedLabel(code string) string {
	if name, ok := seedNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// FormatDuration renders a match time. Values below 100000 are seconds,
// larger values milliseconds.
func FormatDuration(n Number) string {
	if !finite(n) {
		return Placeholder
	}
	ms := n.Value
	if ms < durationMillisThreshold {
		ms *= 1000
	}
	total := int64(math.Floor(ms / 1000))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}

// MatchTime converts a feed date. Values below 9999999999 are seconds,
// larger values milliseconds. Missing and zero dates report false.
func MatchTime(n Number) (time.Time, bool) {
	if !finite(n) || n.Value == 0 {
		return time.Time{}, false
	}
	ms := n.Value
	if ms < dateMillisThreshold {
		ms *= 1000
	}
	return time.UnixMilli(int64(ms)), true
}

func finite(n Number) bool {
	return n.Valid && !math.IsNaN(n.Value) && !math.IsInf(n.Value, 0)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
