package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
	"github.com/forPelevin/cuetrack/internal/playback"
	"github.com/forPelevin/cuetrack/internal/ports"
	"github.com/forPelevin/cuetrack/internal/project"
	"github.com/forPelevin/cuetrack/internal/render"
	"github.com/forPelevin/cuetrack/internal/types"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	dispatchTimeout     = 2 * time.Second
)

type SessionConfig struct {
	Project     *project.Project
	ProjectPath string // watched when Watch is set
	Watch       bool

	Subtitles subtitles.Config
	Render    render.Options
	Measurer  render.Measurer

	Store ports.Store
	Media playback.MediaFactory

	From          float64
	For           time.Duration // 0 plays to the end
	FrameInterval time.Duration
	PollInterval  time.Duration

	// Out receives one line per visible change.
	Out    io.Writer
	Logger *zap.Logger
}

// Session is a real-time preview: a player driving the renderer, with the
// store kept in sync.
type Session struct {
	cfg    SessionConfig
	log    *zap.Logger
	player *playback.Player

	mu       sync.Mutex
	tl       types.Timeline
	subs     subtitles.Config
	renderer *render.Renderer
	last     string
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	s := &Session{cfg: cfg, log: cfg.Logger}
	s.tl = cfg.Project.Timeline
	s.subs = cfg.Project.Subtitles(cfg.Subtitles)
	s.renderer = render.New(cfg.Render, cfg.Measurer, s.subs)
	s.player = playback.New(playback.Config{
		Timeline:      s.tl,
		Media:         cfg.Media,
		Publish:       s.publish,
		OnFrame:       s.frame,
		FrameInterval: cfg.FrameInterval,
		Logger:        cfg.Logger.Named("player"),
	})
	return s
}

func (s *Session) Player() *playback.Player { return s.player }

// Seek moves playback to t and forgets lane assignments.
func (s *Session) Seek(t float64) {
	s.resetLanes()
	s.player.CommitSeek(t)
}

// Play starts playback with fresh lanes. It does nothing while playing.
func (s *Session) Play() {
	if s.player.Playing() {
		return
	}
	s.resetLanes()
	s.player.Play()
}

// Run plays from cfg.From until the timeline ends, cfg.For elapses or ctx is
// cancelled.
func (s *Session) Run(ctx context.Context) error {
	if s.cfg.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.For)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.cfg.Store.SetTimeline(ctx, s.tl); err != nil {
		return fmt.Errorf("store timeline: %w", err)
	}

	s.Seek(s.cfg.From)
	s.Play()
	defer s.player.Stop()

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return s.poll(gctx, cancel) })
	if s.cfg.Watch && s.cfg.ProjectPath != "" {
		eg.Go(func() error { return project.Watch(gctx, s.cfg.ProjectPath, s.log, s.reload) })
	}

	err := eg.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// poll reconciles the stopped player with the store and ends the session
// once playback has stopped on its own.
func (s *Session) poll(ctx context.Context, done context.CancelFunc) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if s.player.Playing() {
			continue
		}
		// The stop actions are published after the player flips its flag.
		if playing, err := s.cfg.Store.Playing(ctx); err != nil || playing {
			continue
		}
		t, err := s.cfg.Store.Time(ctx)
		if err != nil {
			s.log.Warn("store time read failed", zap.Error(err))
			continue
		}
		s.player.Sync(t)
		s.log.Info("playback finished", zap.Float64("time", s.player.Time()))
		done()
		return nil
	}
}

func (s *Session) reload(p *project.Project) {
	tl := p.Timeline
	if err := s.cfg.Store.SetTimeline(context.Background(), tl); err != nil {
		s.log.Warn("store timeline update failed", zap.Error(err))
	}
	s.mu.Lock()
	s.tl = tl
	s.subs = p.Subtitles(s.cfg.Subtitles)
	s.renderer = render.New(s.cfg.Render, s.cfg.Measurer, s.subs)
	s.last = ""
	s.mu.Unlock()
	s.player.SetTimeline(tl)
}

func (s *Session) publish(a types.Action) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()
	if err := s.cfg.Store.Dispatch(ctx, a); err != nil {
		s.log.Warn("store dispatch failed", zap.String("action", string(a.Type)), zap.Error(err))
	}
}

func (s *Session) frame(t float64) {
	s.mu.Lock()
	f := s.renderer.Render(s.tl, t)
	key := frameKey(f)
	changed := key != s.last
	s.last = key
	s.mu.Unlock()
	if changed {
		fmt.Fprintln(s.cfg.Out, Describe(f))
	}
}

func (s *Session) resetLanes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer.Reset()
	s.last = ""
}

// frameKey identifies what is visible, ignoring the clock.
func frameKey(f render.Frame) string {
	var b strings.Builder
	for _, box := range []*render.Box{f.Bottom, f.Top} {
		if box != nil {
			fmt.Fprintf(&b, "%s:%s|", box.SpeakerID, strings.Join(box.Lines, "\n"))
		} else {
			b.WriteString("-|")
		}
	}
	for _, l := range f.Layers {
		b.WriteString(l.TrackID)
		b.WriteByte(',')
	}
	fmt.Fprintf(&b, "|%d", f.Overflow)
	return b.String()
}
