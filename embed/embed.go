// Package embed defines the structured rich-message payload posted by the bot.
// It is transport-neutral: the discord package converts it to the gateway's
// own embed type, tests inspect it directly.
package embed

import "time"

// Colors used by announcements and command replies.
const (
	ColorYellow    = 0xF1C40F // draws
	ColorLightBlue = 0x5DADE2 // regional derby
	ColorGreen     = 0x2ECC71 // regional win / default win
	ColorRed       = 0xE74C3C // regional loss
	ColorOrange    = 0xFFA500 // forfeits
)

// Embed is a rich message card.
type Embed struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Color       int       `json:"color,omitempty"`
	Author      *Author   `json:"author,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Fields      []Field   `json:"fields,omitempty"`
	Footer      *Footer   `json:"footer,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// Field is a name/value pair rendered inside an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Footer is the small text line at the bottom of an embed.
type Footer struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// Author is the header line above the title.
type Author struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

// HasTimestamp reports whether a timestamp should be rendered.
func (e Embed) HasTimestamp() bool { return !e.Timestamp.IsZero() }
