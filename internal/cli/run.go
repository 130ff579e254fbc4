package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forPelevin/cuetrack/internal/config"
	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
	"github.com/forPelevin/cuetrack/internal/domain/timeline"
	"github.com/forPelevin/cuetrack/internal/logger"
	"github.com/forPelevin/cuetrack/internal/pipeline"
	"github.com/forPelevin/cuetrack/internal/ports"
	"github.com/forPelevin/cuetrack/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/cuetrack/internal/ports/adapters/media"
	"github.com/forPelevin/cuetrack/internal/ports/adapters/memstore"
	"github.com/forPelevin/cuetrack/internal/ports/adapters/redisstore"
	"github.com/forPelevin/cuetrack/internal/project"
	"github.com/forPelevin/cuetrack/internal/render"
	"github.com/forPelevin/cuetrack/internal/usecase"
)

const exportTimeout = 10 * time.Minute

type env struct {
	cfg  config.Config
	subs subtitles.Config
	log  *zap.Logger
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg := config.Load()
	subs, err := cfg.Subtitles()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
	}, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return &env{cfg: cfg, subs: subs, log: log}, nil
}

func (e *env) renderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.Width = e.cfg.Width
	opts.Height = e.cfg.Height
	return opts
}

func runCues(cmd *cobra.Command, path string) error {
	at, _ := cmd.Flags().GetFloat64("at")
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	p, err := project.Load(path)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	subs := p.Subtitles(e.subs)

	if at >= 0 {
		f := usecase.FrameAt(p.Timeline, subs, e.renderOptions(), render.NewFontMeasurer(), at)
		fmt.Fprintln(cmd.OutOrStdout(), usecase.Describe(f))
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(timeline.Cues(p.Timeline, subs))
}

func runExport(cmd *cobra.Command, path string) error {
	outDir, _ := cmd.Flags().GetString("out")
	probe, _ := cmd.Flags().GetBool("probe")
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	absIn, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	cfg := pipeline.Config{
		ProjectPath:       absIn,
		OutDir:            outDir,
		Subtitles:         e.subs,
		Width:             e.cfg.Width,
		Height:            e.cfg.Height,
		Logf:              logger.Logf(e.log),
		ProbeMissing:      probe,
		FFprobePath:       e.cfg.FFprobePath,
		MediaBaseURL:      e.cfg.MediaBaseURL,
		MediaAllowedHosts: e.cfg.MediaAllowedHosts,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dir, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), dir)
	return nil
}

func runPlay(cmd *cobra.Command, path string) error {
	from, _ := cmd.Flags().GetFloat64("from")
	dur, _ := cmd.Flags().GetDuration("for")
	watch, _ := cmd.Flags().GetBool("watch")
	probe, _ := cmd.Flags().GetBool("probe")
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	p, err := project.Load(path)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resolver, err := media.NewResolver(e.cfg.MediaBaseURL, e.cfg.MediaAllowedHosts)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fc := media.FactoryConfig{Resolver: resolver, Logger: e.log.Named("media")}
	if probe {
		fc.Prober = ffmpeg.New(e.cfg.FFprobePath)
	}

	store, closeStore, err := openStore(ctx, e, p)
	if err != nil {
		return err
	}
	defer closeStore()

	s := usecase.NewSession(usecase.SessionConfig{
		Project:       p,
		ProjectPath:   path,
		Watch:         watch,
		Subtitles:     e.subs,
		Render:        e.renderOptions(),
		Measurer:      render.NewFontMeasurer(),
		Store:         store,
		Media:         media.NewFactory(ctx, fc),
		From:          from,
		For:           dur,
		FrameInterval: e.cfg.FrameInterval(),
		PollInterval:  e.cfg.PollInterval,
		Out:           cmd.OutOrStdout(),
		Logger:        e.log,
	})
	e.log.Info("playing", zap.String("project", p.Name), zap.Float64("from", from), zap.Float64("total", s.Player().Total()))
	return s.Run(ctx)
}

func openStore(ctx context.Context, e *env, p *project.Project) (ports.Store, func(), error) {
	switch e.cfg.Store {
	case "", "memory":
		return memstore.New(p.Timeline), func() {}, nil
	case "redis":
		client := redisstore.NewClient(redisstore.Options{
			Addr:     e.cfg.RedisAddr,
			Password: e.cfg.RedisPassword,
			DB:       e.cfg.RedisDB,
		})
		s := redisstore.New(client, p.Name)
		if err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		e.log.Info("redis store connected", zap.String("addr", e.cfg.RedisAddr))
		return s, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("config: unknown store %q", e.cfg.Store)
	}
}

func runSnapshot(cmd *cobra.Command, path string) error {
	at, _ := cmd.Flags().GetFloat64("at")
	out, _ := cmd.Flags().GetString("out")
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	p, err := project.Load(path)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}

	opts := e.renderOptions()
	f := usecase.FrameAt(p.Timeline, p.Subtitles(e.subs), opts, render.NewFontMeasurer(), at)
	img := render.Rasterize(f, opts)

	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	e.log.Info("snapshot written", zap.String("path", out), zap.String("frame", usecase.Describe(f)))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
