package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RANKED_POLL_MS", "")
	t.Setenv("RANKED_REGIONS", "")
	t.Setenv("POSTED_STORE", "")
	t.Setenv("WIN_EMOJI", "")
	t.Setenv("VILLAGE_EMOJI", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.RankedPoll != DefaultPollInterval {
		t.Errorf("RankedPoll = %v, want %v", cfg.RankedPoll, DefaultPollInterval)
	}
	if len(cfg.Regions) != 2 || cfg.Regions[0] != "br" || cfg.Regions[1] != "bra" {
		t.Errorf("Regions = %v, want [br bra]", cfg.Regions)
	}
	if cfg.PostedStore != "file" {
		t.Errorf("PostedStore = %q, want file", cfg.PostedStore)
	}
	if cfg.Glyphs.Win != "🏆" {
		t.Errorf("Glyphs.Win = %q, want default trophy", cfg.Glyphs.Win)
	}
	if cfg.Glyphs.Structures["VILLAGE"] != "" {
		t.Errorf("village glyph should default to empty, got %q", cfg.Glyphs.Structures["VILLAGE"])
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadPollInterval(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"30000", 30 * time.Second},
		{"0", DefaultPollInterval},
		{"-5", DefaultPollInterval},
		{"abc", DefaultPollInterval},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("RANKED_POLL_MS", tt.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if cfg.RankedPoll != tt.want {
				t.Errorf("RankedPoll = %v, want %v", cfg.RankedPoll, tt.want)
			}
		})
	}
}

func TestLoadDebugFlag(t *testing.T) {
	for _, v := range []string{"1", "true", "YES"} {
		t.Setenv("RANKED_DEBUG", v)
		cfg, _ := Load()
		if !cfg.RankedDebug {
			t.Errorf("RANKED_DEBUG=%q should enable debug", v)
		}
	}
	for _, v := range []string{"", "0", "no", "truee"} {
		t.Setenv("RANKED_DEBUG", v)
		cfg, _ := Load()
		if cfg.RankedDebug {
			t.Errorf("RANKED_DEBUG=%q should not enable debug", v)
		}
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RANKED_REGIONS", " PT , br ,")
	t.Setenv("WIN_EMOJI", "<:ok:1408286736181891072>")
	t.Setenv("SHIP_EMOJI", "<:ship:1>")
	t.Setenv("MCSR_FOOTER_ICON_URL", "https://example.com/icon.png")
	t.Setenv("FOOTER_ICON_URL", "")
	t.Setenv("SCORE_API_URL", "https://scores.example.com/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Regions) != 2 || cfg.Regions[0] != "pt" || cfg.Regions[1] != "br" {
		t.Errorf("Regions = %v, want [pt br]", cfg.Regions)
	}
	if cfg.Glyphs.Win != "<:ok:1408286736181891072>" {
		t.Errorf("Glyphs.Win = %q", cfg.Glyphs.Win)
	}
	if cfg.Glyphs.Structures["SHIPWRECK"] != "<:ship:1>" {
		t.Errorf("shipwreck glyph = %q", cfg.Glyphs.Structures["SHIPWRECK"])
	}
	if cfg.FooterIconURL != "https://example.com/icon.png" {
		t.Errorf("FooterIconURL = %q, want alias value", cfg.FooterIconURL)
	}
	if cfg.ScoreAPIURL != "https://scores.example.com" {
		t.Errorf("ScoreAPIURL = %q, want trailing slash trimmed", cfg.ScoreAPIURL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("POSTED_STORE", "redis")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown POSTED_STORE")
	}
	t.Setenv("POSTED_STORE", "")
	t.Setenv("SCORE_API_RPM", "zero")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid SCORE_API_RPM")
	}
}

func TestValidateWatcher(t *testing.T) {
	t.Setenv("RANKED_API_URL", "https://api.example.com/matches")
	t.Setenv("RANKED_ANNOUNCE_CHANNEL_ID", "123")
	cfg, _ := Load()
	if err := cfg.ValidateWatcher(); err != nil {
		t.Errorf("expected valid watcher config, got %v", err)
	}

	t.Setenv("RANKED_ANNOUNCE_CHANNEL_ID", "")
	cfg, _ = Load()
	err := cfg.ValidateWatcher()
	if !errors.Is(err, ErrWatcherDisabled) {
		t.Errorf("expected ErrWatcherDisabled, got %v", err)
	}
}

func TestValidateChatReady(t *testing.T) {
	t.Setenv("TWITCH_CHANNEL", "chan")
	t.Setenv("TWITCH_BOT_USERNAME", "bot")
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:token")
	cfg, _ := Load()
	if err := cfg.ValidateChatReady(); err != nil {
		t.Errorf("expected valid chat config, got %v", err)
	}
	t.Setenv("TWITCH_CHANNEL", "")
	cfg, _ = Load()
	if err := cfg.ValidateChatReady(); err == nil {
		t.Errorf("expected error when missing twitch envs")
	}
}
