// Command register-commands publishes the bot's slash commands to a guild.
//
// Usage:
//
//	register-commands
//	register-commands --guild 123456789012345678
//	register-commands --dry-run
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bwmarrin/discordgo"
	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mcsr-br/ranked-bot/commands"
	"github.com/mcsr-br/ranked-bot/config"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// commandAPI is the subset of *discordgo.Session used for registration.
type commandAPI interface {
	ApplicationCommandBulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		guildID string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:          "register-commands",
		Short:        "Overwrite the guild's slash commands with the bot's definitions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				return printDefinitions(cmd.OutOrStdout())
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if guildID != "" {
				cfg.GuildID = guildID
			}
			if cfg.Token == "" || cfg.ClientID == "" || cfg.GuildID == "" {
				logger.Error("missing TOKEN, CLIENT_ID or GUILD_ID in environment")
				return errors.New("missing TOKEN, CLIENT_ID or GUILD_ID")
			}
			session, err := discordgo.New("Bot " + cfg.Token)
			if err != nil {
				return fmt.Errorf("create discord session: %w", err)
			}
			return register(session, cfg.ClientID, cfg.GuildID)
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "Guild to register into (default GUILD_ID)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command definitions as JSON and exit")
	return cmd
}

func register(api commandAPI, appID, guildID string) error {
	defs := commands.Definitions()
	logger.Info("started refreshing application (/) commands", slog.Int("count", len(defs)), slog.String("guild", guildID))
	out, err := api.ApplicationCommandBulkOverwrite(appID, guildID, defs)
	if err != nil {
		logger.Error("command registration failed", slog.Any("err", err))
		return fmt.Errorf("bulk overwrite commands: %w", err)
	}
	logger.Info("successfully reloaded application (/) commands", slog.Int("count", len(out)))
	return nil
}

func printDefinitions(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(commands.Definitions())
}
