package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
	"github.com/forPelevin/cuetrack/internal/ports"
	"github.com/forPelevin/cuetrack/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/cuetrack/internal/ports/adapters/media"
	"github.com/forPelevin/cuetrack/internal/ports/adapters/memstore"
	"github.com/forPelevin/cuetrack/internal/ports/adapters/redisstore"
	"github.com/forPelevin/cuetrack/internal/project"
	"github.com/forPelevin/cuetrack/internal/usecase"
)

const manifestFile = "cues.json"

type Config struct {
	ProjectPath string
	OutDir      string
	Subtitles   subtitles.Config
	Width       int
	Height      int
	Logf        func(format string, args ...any)

	// ProbeMissing fills absent track durations with ffprobe.
	ProbeMissing bool
	FFprobePath  string

	MediaBaseURL      string
	MediaAllowedHosts []string

	// now is overridden in tests.
	now func() time.Time
}

func (c Config) Validate() error {
	if c.ProjectPath == "" {
		return errors.New("project is empty")
	}
	if _, err := os.Stat(c.ProjectPath); err != nil {
		return fmt.Errorf("stat project: %w", err)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("frame size must be >= 0")
	}
	if c.Subtitles.MinDuration < 0 {
		return fmt.Errorf("min cue duration must be >= 0")
	}
	if c.Subtitles.MaxDuration > 0 && c.Subtitles.MaxDuration < c.Subtitles.MinDuration {
		return fmt.Errorf("max cue duration must be >= min cue duration")
	}
	if c.Subtitles.MaxCharsPerCue < 0 {
		return fmt.Errorf("max chars per cue must be >= 0")
	}
	return media.ValidateBaseURL(c.MediaBaseURL, c.MediaAllowedHosts)
}

// Run exports subtitles.ass and cues.json for a project into a fresh run
// directory under OutDir and returns that directory.
func Run(ctx context.Context, cfg Config) (string, error) {
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	now := cfg.now
	if now == nil {
		now = time.Now
	}

	logf("loading project: %s", cfg.ProjectPath)
	p, err := project.Load(cfg.ProjectPath)
	if err != nil {
		return "", err
	}

	var deps usecase.Deps
	if cfg.ProbeMissing {
		resolver, err := media.NewResolver(cfg.MediaBaseURL, cfg.MediaAllowedHosts)
		if err != nil {
			return "", err
		}
		deps.Prober = ffmpeg.New(cfg.FFprobePath)
		deps.Resolve = resolver.Resolve
	}
	uc := usecase.New(deps)

	res, err := uc.Export(ctx, usecase.Input{
		Project:   p,
		Subtitles: cfg.Subtitles,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Logf:      logf,
	})
	if err != nil {
		return "", err
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.ProjectPath, now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return "", err
	}
	logf("output run dir: %s", runOutDir)

	assPath := filepath.Join(runOutDir, usecase.SubtitlesFile)
	if err := os.WriteFile(assPath, []byte(res.ASS), 0o644); err != nil {
		return "", err
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, manifestFile)
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return "", err
	}
	logf("manifest written (%d tracks): %s", len(res.Manifest.Tracks), manifestPath)
	return runOutDir, nil
}

func buildRunOutDir(outRoot, projectPath string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(projectPath), filepath.Ext(projectPath))
	name = normalizePathSegment(name)
	if name == "" {
		name = "project"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", projectPath, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.Prober = (*ffmpeg.Adapter)(nil)
var _ ports.Store = (*memstore.Store)(nil)
var _ ports.Store = (*redisstore.Store)(nil)
