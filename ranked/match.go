// Package ranked watches the MCSR Ranked match feed and announces new matches
// with at least one player from a watched region.
//
// A tick fetches the feed, walks the matches in chronological order, skips ids
// that were already announced or are being announced by an overlapping tick,
// renders an embed for each new regional match and delivers it. Only a
// successful delivery records the id as posted.
package ranked

import (
	"bytes"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Match is one upstream match record. Only the fields the announcer reads are decoded.
type Match struct {
	ID        MatchID  `json:"id"`
	Date      Number   `json:"date"`
	Players   []Player `json:"players"`
	Result    *Result  `json:"result"`
	Forfeited Flag     `json:"forfeited"`
	Changes   []Change `json:"changes"`
	Seed      *Seed    `json:"seed"`
}

// Player is a match participant.
type Player struct {
	UUID     string `json:"uuid"`
	Nickname string `json:"nickname"`
	Country  string `json:"country"`
	EloRate  Number `json:"eloRate"`
}

// Result names the winner and the completion time.
type Result struct {
	UUID string `json:"uuid"`
	Time Number `json:"time"`
}

// Change is the rating movement of one player. EloRate is the post-match rating.
type Change struct {
	UUID    string `json:"uuid"`
	Change  Number `json:"change"`
	EloRate Number `json:"eloRate"`
}

// Seed describes the generated world.
type Seed struct {
	Overworld   string `json:"overworld"`
	Nether      string `json:"nether"`
	BastionType string `json:"bastionType"`
}

// WinnerUUID returns the declared winner, or "".
func (m Match) WinnerUUID() string {
	if m.Result == nil {
		return ""
	}
	return m.Result.UUID
}

// MatchID is the upstream identifier. The feed has served it both as a string
// and as a number; both decode to the same text.
type MatchID string

func (id *MatchID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MatchID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("match id: %w", err)
	}
	*id = MatchID(n.String())
	return nil
}

func (id MatchID) String() string { return string(id) }

// Number is an optional numeric field. Numeric strings are accepted; null,
// absent and non-numeric values leave it invalid.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a valid Number.
func Num(v float64) Number { return Number{Value: v, Valid: true} }

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = Num(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		// booleans, objects and arrays are not numbers
		return nil
	}
	*n = Num(v)
	return nil
}

// Flag is a loosely typed boolean: true, non-zero numbers and non-empty
// strings other than "false" and "0" are set.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")), bytes.Equal(b, []byte("false")):
		*f = false
	case bytes.Equal(b, []byte("true")):
		*f = true
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = Flag(s != "" && s != "false" && s != "0")
	default:
		v, err := strconv.ParseFloat(string(b), 64)
		*f = Flag(err == nil && v != 0)
	}
	return nil
}
