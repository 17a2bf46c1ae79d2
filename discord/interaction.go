package discord

import (
	"context"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
)

// InteractionAPI is the subset of *discordgo.Session used to answer interactions.
type InteractionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildWithCounts(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
}

// sessionInteraction implements Interaction over a gateway event.
type sessionInteraction struct {
	api     InteractionAPI
	state   *discordgo.State
	i       *discordgo.Interaction
	options map[string]*discordgo.ApplicationCommandInteractionDataOption
	replied atomic.Bool
}

func newSessionInteraction(api InteractionAPI, state *discordgo.State, i *discordgo.Interaction) *sessionInteraction {
	si := &sessionInteraction{api: api, state: state, i: i, options: map[string]*discordgo.ApplicationCommandInteractionDataOption{}}
	for _, opt := range i.ApplicationCommandData().Options {
		si.options[opt.Name] = opt
	}
	return si
}

func (s *sessionInteraction) CommandName() string { return s.i.ApplicationCommandData().Name }

func (s *sessionInteraction) StringOption(name string) (string, bool) {
	opt, ok := s.options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return "", false
	}
	return opt.StringValue(), true
}

func (s *sessionInteraction) NumberOption(name string) (float64, bool) {
	opt, ok := s.options[name]
	if !ok {
		return 0, false
	}
	switch opt.Type {
	case discordgo.ApplicationCommandOptionNumber:
		return opt.FloatValue(), true
	case discordgo.ApplicationCommandOptionInteger:
		return float64(opt.IntValue()), true
	}
	return 0, false
}

func (s *sessionInteraction) BoolOption(name string) (bool, bool) {
	opt, ok := s.options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionBoolean {
		return false, false
	}
	return opt.BoolValue(), true
}

func (s *sessionInteraction) User() User {
	u := s.i.User
	if s.i.Member != nil && s.i.Member.User != nil {
		u = s.i.Member.User
	}
	if u == nil {
		return User{}
	}
	return User{ID: u.ID, Username: u.Username, Discriminator: u.Discriminator}
}

func (s *sessionInteraction) Guild(ctx context.Context) (*Guild, error) {
	if s.i.GuildID == "" {
		return nil, nil
	}
	if s.state != nil {
		if g, err := s.state.Guild(s.i.GuildID); err == nil && g.MemberCount > 0 {
			return &Guild{ID: g.ID, Name: g.Name, MemberCount: g.MemberCount}, nil
		}
	}
	g, err := s.api.GuildWithCounts(s.i.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &Guild{ID: g.ID, Name: g.Name, MemberCount: g.ApproximateMemberCount}, nil
}

func flags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func (s *sessionInteraction) Reply(ctx context.Context, r Response) error {
	err := s.api.InteractionRespond(s.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: r.Content,
			Embeds:  toMessageEmbeds(r.Embeds),
			Flags:   flags(r.Ephemeral),
		},
	}, discordgo.WithContext(ctx))
	if err == nil {
		s.replied.Store(true)
	}
	return err
}

func (s *sessionInteraction) FollowUp(ctx context.Context, r Response) error {
	_, err := s.api.FollowupMessageCreate(s.i, true, &discordgo.WebhookParams{
		Content: r.Content,
		Embeds:  toMessageEmbeds(r.Embeds),
		Flags:   flags(r.Ephemeral),
	}, discordgo.WithContext(ctx))
	return err
}

func (s *sessionInteraction) EditReply(ctx context.Context, content string) error {
	_, err := s.api.InteractionResponseEdit(s.i, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx))
	return err
}

func (s *sessionInteraction) Replied() bool { return s.replied.Load() }
