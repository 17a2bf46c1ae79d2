package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/mcsr-br/ranked-bot/embed"
	"github.com/mcsr-br/ranked-bot/ranked"
)

// channelTypeNames covers the types the bot can meet; others print as numbers.
var channelTypeNames = map[discordgo.ChannelType]string{
	discordgo.ChannelTypeGuildText:          "GuildText",
	discordgo.ChannelTypeDM:                 "DM",
	discordgo.ChannelTypeGuildVoice:         "GuildVoice",
	discordgo.ChannelTypeGroupDM:            "GroupDM",
	discordgo.ChannelTypeGuildCategory:      "GuildCategory",
	discordgo.ChannelTypeGuildNews:          "GuildNews",
	discordgo.ChannelTypeGuildNewsThread:    "GuildNewsThread",
	discordgo.ChannelTypeGuildPublicThread:  "GuildPublicThread",
	discordgo.ChannelTypeGuildPrivateThread: "GuildPrivateThread",
	discordgo.ChannelTypeGuildStageVoice:    "GuildStageVoice",
	discordgo.ChannelTypeGuildForum:         "GuildForum",
}

// ChannelTypeName names a channel type.
func ChannelTypeName(t discordgo.ChannelType) string {
	if name, ok := channelTypeNames[t]; ok {
		return name
	}
	return "ChannelType(" + strconv.Itoa(int(t)) + ")"
}

// TextBased reports whether messages can be sent to channels of type t.
func TextBased(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread,
		discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildStageVoice:
		return true
	}
	return false
}

// ChannelAPI is the subset of *discordgo.Session used for delivery.
type ChannelAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Messenger delivers announcements through the Discord REST API.
type Messenger struct {
	api ChannelAPI
}

// NewMessenger wraps a session (or any ChannelAPI).
func NewMessenger(api ChannelAPI) *Messenger { return &Messenger{api: api} }

// FetchChannel resolves channelID. Unknown channels map to ranked.ErrChannelNotFound.
func (m *Messenger) FetchChannel(ctx context.Context, channelID string) (ranked.ChannelInfo, error) {
	ch, err := m.api.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return ranked.ChannelInfo{}, fmt.Errorf("%w: %s", ranked.ErrChannelNotFound, channelID)
		}
		return ranked.ChannelInfo{}, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	if ch == nil {
		return ranked.ChannelInfo{}, fmt.Errorf("%w: %s", ranked.ErrChannelNotFound, channelID)
	}
	return ranked.ChannelInfo{
		ID:       ch.ID,
		Type:     ChannelTypeName(ch.Type),
		GuildID:  ch.GuildID,
		Postable: TextBased(ch.Type),
	}, nil
}

// Send posts e as a single-embed message.
func (m *Messenger) Send(ctx context.Context, channelID string, e embed.Embed) error {
	if _, err := m.api.ChannelMessageSendEmbed(channelID, ToMessageEmbed(e), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send embed to %s: %w", channelID, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return false
	}
	if rest.Message != nil && rest.Message.Code == discordgo.ErrCodeUnknownChannel {
		return true
	}
	return rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound
}
