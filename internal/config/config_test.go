package config

import (
	"os"
	"testing"
	"time"

	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
)

var envVars = []string{
	"CUETRACK_LOG_LEVEL", "CUETRACK_LOG_FILE", "CUETRACK_FRAME_RATE", "CUETRACK_POLL_MS",
	"CUETRACK_WIDTH", "CUETRACK_HEIGHT", "CUETRACK_MIN_CUE_DURATION", "CUETRACK_MAX_CUE_DURATION",
	"CUETRACK_MAX_CHARS_PER_CUE", "CUETRACK_DEFAULT_LANG", "CUETRACK_ALLOC_MODE",
	"CUETRACK_MEDIA_BASE_URL", "CUETRACK_MEDIA_ALLOWED_HOSTS", "CUETRACK_FFPROBE",
	"CUETRACK_STORE", "CUETRACK_REDIS_ADDR", "CUETRACK_REDIS_PASSWORD", "CUETRACK_REDIS_DB",
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range envVars {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", cfg.PollInterval)
	}
	if cfg.MinCueDuration != 2.7 || cfg.MaxCueDuration != 7.0 {
		t.Errorf("cue bounds = %v/%v, want 2.7/7.0", cfg.MinCueDuration, cfg.MaxCueDuration)
	}
	if cfg.MaxCharsPerCue != 42 {
		t.Errorf("MaxCharsPerCue = %d, want 42", cfg.MaxCharsPerCue)
	}
	if cfg.Store != "memory" || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("store = %q at %q, want memory default", cfg.Store, cfg.RedisAddr)
	}
	if len(cfg.MediaAllowedHosts) != 0 {
		t.Errorf("MediaAllowedHosts = %v, want empty", cfg.MediaAllowedHosts)
	}
	if cfg.FrameInterval() != time.Second/30 {
		t.Errorf("FrameInterval = %v", cfg.FrameInterval())
	}

	sc, err := cfg.Subtitles()
	if err != nil {
		t.Fatalf("subtitles config: %v", err)
	}
	if sc.Mode != subtitles.WaterFill || sc.DefaultLang != "en" {
		t.Errorf("unexpected subtitles config: %+v", sc)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CUETRACK_LOG_LEVEL", "debug")
	t.Setenv("CUETRACK_FRAME_RATE", "25")
	t.Setenv("CUETRACK_POLL_MS", "250")
	t.Setenv("CUETRACK_MIN_CUE_DURATION", "1.5")
	t.Setenv("CUETRACK_MAX_CHARS_PER_CUE", "32")
	t.Setenv("CUETRACK_DEFAULT_LANG", "es-MX")
	t.Setenv("CUETRACK_ALLOC_MODE", "proportional")
	t.Setenv("CUETRACK_MEDIA_ALLOWED_HOSTS", " cdn.example.com, ,media.example.com ")
	t.Setenv("CUETRACK_STORE", "redis")
	t.Setenv("CUETRACK_REDIS_DB", "3")

	cfg := Load()

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
	if cfg.FrameInterval() != 40*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 40ms", cfg.FrameInterval())
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.PollInterval)
	}
	if len(cfg.MediaAllowedHosts) != 2 || cfg.MediaAllowedHosts[1] != "media.example.com" {
		t.Errorf("MediaAllowedHosts = %v", cfg.MediaAllowedHosts)
	}
	if cfg.Store != "redis" || cfg.RedisDB != 3 {
		t.Errorf("store = %q db %d", cfg.Store, cfg.RedisDB)
	}

	sc, err := cfg.Subtitles()
	if err != nil {
		t.Fatalf("subtitles config: %v", err)
	}
	if sc.Mode != subtitles.Proportional || sc.MinDuration != 1.5 || sc.MaxCharsPerCue != 32 || sc.DefaultLang != "es" {
		t.Errorf("unexpected subtitles config: %+v", sc)
	}
}

func TestEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("CUETRACK_FRAME_RATE", "fast")
	t.Setenv("CUETRACK_MAX_CUE_DURATION", "long")
	cfg := Load()
	if cfg.FrameRate != 30 {
		t.Errorf("invalid int env should fall back: got %d", cfg.FrameRate)
	}
	if cfg.MaxCueDuration != 7.0 {
		t.Errorf("invalid float env should fall back: got %v", cfg.MaxCueDuration)
	}
}

func TestSubtitles_RejectsUnknownMode(t *testing.T) {
	t.Setenv("CUETRACK_ALLOC_MODE", "greedy")
	if _, err := Load().Subtitles(); err == nil {
		t.Fatalf("expected error for unknown allocation mode")
	}
}
