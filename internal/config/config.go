package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
)

// Config holds runtime configuration, loaded from environment variables.
type Config struct {
	LogLevel string
	LogFile  string

	// Playback
	FrameRate    int
	PollInterval time.Duration
	Width        int
	Height       int

	// Cue timing
	MinCueDuration float64 // seconds
	MaxCueDuration float64 // seconds
	MaxCharsPerCue int
	DefaultLang    string
	AllocMode      string // waterfill or proportional

	// Media
	MediaBaseURL      string
	MediaAllowedHosts []string
	FFprobePath       string

	// Store backend: memory or redis
	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		LogLevel: envStr("CUETRACK_LOG_LEVEL", "info"),
		LogFile:  envStr("CUETRACK_LOG_FILE", ""),

		FrameRate:    envInt("CUETRACK_FRAME_RATE", 30),
		PollInterval: time.Duration(envInt("CUETRACK_POLL_MS", 100)) * time.Millisecond,
		Width:        envInt("CUETRACK_WIDTH", 1280),
		Height:       envInt("CUETRACK_HEIGHT", 720),

		MinCueDuration: envFloat("CUETRACK_MIN_CUE_DURATION", 2.7),
		MaxCueDuration: envFloat("CUETRACK_MAX_CUE_DURATION", 7.0),
		MaxCharsPerCue: envInt("CUETRACK_MAX_CHARS_PER_CUE", 42),
		DefaultLang:    envStr("CUETRACK_DEFAULT_LANG", "en"),
		AllocMode:      envStr("CUETRACK_ALLOC_MODE", "waterfill"),

		MediaBaseURL:      envStr("CUETRACK_MEDIA_BASE_URL", ""),
		MediaAllowedHosts: envList("CUETRACK_MEDIA_ALLOWED_HOSTS"),
		FFprobePath:       envStr("CUETRACK_FFPROBE", "ffprobe"),

		Store:         envStr("CUETRACK_STORE", "memory"),
		RedisAddr:     envStr("CUETRACK_REDIS_ADDR", "localhost:6379"),
		RedisPassword: envStr("CUETRACK_REDIS_PASSWORD", ""),
		RedisDB:       envInt("CUETRACK_REDIS_DB", 0),
	}
}

// Subtitles returns the cue timing configuration. Per-language rates start
// from the built-in table; project files may override them.
func (c Config) Subtitles() (subtitles.Config, error) {
	mode, err := subtitles.ParseMode(c.AllocMode)
	if err != nil {
		return subtitles.Config{}, err
	}
	sc := subtitles.DefaultConfig()
	sc.MinDuration = c.MinCueDuration
	sc.MaxDuration = c.MaxCueDuration
	sc.MaxCharsPerCue = c.MaxCharsPerCue
	sc.DefaultLang = subtitles.NormalizeLang(c.DefaultLang)
	sc.Mode = mode
	return sc, nil
}

func (c Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.FrameRate)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
