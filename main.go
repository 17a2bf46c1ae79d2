// Command ranked-bot is the MCSR BR Discord bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Opens the posted-match dedup store (JSON file or Postgres).
//   - Connects to Discord and serves the slash commands.
//   - Runs the ranked matches watcher, announcing regional results to a channel
//     and optionally mirroring them into Twitch chat.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcsr-br/ranked-bot/chat"
	"github.com/mcsr-br/ranked-bot/commands"
	"github.com/mcsr-br/ranked-bot/config"
	"github.com/mcsr-br/ranked-bot/db"
	"github.com/mcsr-br/ranked-bot/discord"
	"github.com/mcsr-br/ranked-bot/jobs"
	"github.com/mcsr-br/ranked-bot/postcache"
	"github.com/mcsr-br/ranked-bot/ranked"
	"github.com/mcsr-br/ranked-bot/scoreapi"
	"github.com/mcsr-br/ranked-bot/server"
	"github.com/mcsr-br/ranked-bot/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	setupLogger()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if cfg.Token == "" {
		slog.Error("TOKEN is required")
		os.Exit(1)
	}

	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdownTracing, err := telemetry.InitTracing("ranked-bot", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()
	slog.Info("telemetry initialized", slog.Bool("tracing", telemetry.IsTracingEnabled()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready []server.Check
	backend, database, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open posted store", slog.Any("err", err))
		os.Exit(1)
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		ready = append(ready, server.Check{Name: "database", Fn: database.PingContext})
	}
	posted := postcache.Open(ctx, backend, slog.Default())

	router := discord.NewRouter(slog.Default())
	scores := scoreapi.New(cfg.ScoreAPIURL, cfg.ScoreAPIRPM, nil, slog.Default())
	router.Register(commands.All(commands.Deps{Scores: scores, FooterIconURL: cfg.FooterIconURL})...)

	bot, err := discord.NewBot(cfg.Token, router, slog.Default())
	if err != nil {
		slog.Error("discord setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := bot.Open(ctx); err != nil {
		slog.Error("discord login failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := bot.Close(); err != nil {
			slog.Error("failed to close discord session", slog.Any("err", err))
		}
	}()
	ready = append(ready, server.Check{Name: "discord", Fn: func(context.Context) error {
		if !bot.Ready() {
			return errors.New("discord gateway not ready")
		}
		return nil
	}})

	registry := jobs.NewRegistry(slog.Default())
	var watcher *ranked.Watcher
	if err := cfg.ValidateWatcher(); err != nil {
		slog.Warn("ranked watcher disabled", slog.Any("err", err))
	} else {
		source := &ranked.Fetcher{URL: cfg.RankedAPIURL, Debug: cfg.RankedDebug, Logger: slog.Default()}
		watcher = ranked.NewWatcher(source, bot.Messenger(), posted, ranked.WatcherConfig{
			ChannelID: cfg.RankedChannelID,
			Regions:   ranked.Regions(cfg.Regions),
			Renderer:  ranked.Renderer{Glyphs: cfg.Glyphs, FooterIconURL: cfg.FooterIconURL},
		}, slog.Default())

		if err := cfg.ValidateChatReady(); err == nil {
			mirror := chat.NewMirror(cfg.TwitchChannel, cfg.TwitchBotUsername, cfg.TwitchOAuthToken, slog.Default())
			watcher.SetMirror(mirror)
			go func() {
				if err := mirror.Run(ctx); err != nil {
					slog.Error("twitch chat mirror stopped", slog.Any("err", err))
				}
			}()
		} else {
			slog.Info("twitch chat mirror disabled (missing twitch creds)")
		}

		registry.Register(watcher.Job(cfg.RankedPoll))
	}
	registry.StartAll(ctx)
	defer registry.StopAll()

	opts := server.Options{
		PostedCount: posted.Len,
		Jobs:        registry.Running,
		Ready:       ready,
		StatusToken: cfg.StatusToken,
	}
	if watcher != nil {
		opts.Watcher = watcher
	}
	go func() {
		if err := server.Start(ctx, cfg.HTTPAddr, opts); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}

// setupLogger configures slog from LOG_LEVEL and LOG_FORMAT. Defaults: level=info, format=text.
func setupLogger() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", map[bool]string{true: "json", false: "text"}[format == "json"]))
}

// openStore builds the dedup backend. The database is returned so main can
// close it and probe it for readiness; it is nil for the file store.
func openStore(ctx context.Context, cfg *config.Config) (postcache.Backend, *sql.DB, error) {
	if cfg.PostedStore != "postgres" {
		return postcache.NewFileBackend(cfg.CacheDir), nil, nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	database, err := db.Connect(connectCtx, cfg.DBDsn)
	if err != nil {
		return nil, nil, err
	}

	// Versioned migrations first; embedded SQL covers deployments without the migrations directory.
	slog.Info("running database migrations", slog.String("component", "db_migrate"))
	if err := db.RunMigrations(database); err != nil {
		slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
			slog.Any("err", err),
			slog.String("component", "db_migrate"))
		if err := db.Migrate(ctx, database); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
	}
	return &db.PostedMatches{DB: database}, database, nil
}
