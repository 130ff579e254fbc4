package media

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/forPelevin/cuetrack/internal/playback"
	"github.com/forPelevin/cuetrack/internal/ports"
	"github.com/forPelevin/cuetrack/internal/types"
)

const defaultProbeTimeout = 10 * time.Second

// Element is a virtual media element: it keeps position and play state in
// memory without decoding anything. Readiness comes from probing the source.
type Element struct {
	TrackID string
	URL     string

	now    func() time.Time
	probed chan struct{}

	mu       sync.Mutex
	ready    bool
	duration float64
	playing  bool
	pos      float64
	since    time.Time
	volume   float64
}

func (e *Element) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *Element) Seek(sec float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos = sec
	e.since = e.now()
}

func (e *Element) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		return
	}
	e.playing = true
	e.since = e.now()
}

func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return
	}
	e.pos = e.positionLocked()
	e.playing = false
}

func (e *Element) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
}

func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Element) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Position is the current media time in seconds, capped at the probed
// duration when one is known.
func (e *Element) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

// Probed is closed once readiness has been decided.
func (e *Element) Probed() <-chan struct{} { return e.probed }

func (e *Element) positionLocked() float64 {
	p := e.pos
	if e.playing {
		p += e.now().Sub(e.since).Seconds()
	}
	if e.duration > 0 && p > e.duration {
		p = e.duration
	}
	return p
}

type FactoryConfig struct {
	Resolver     *Resolver
	Prober       ports.Prober // nil: every resolvable element is ready at once
	ProbeTimeout time.Duration
	Now          func() time.Time
	Logger       *zap.Logger
}

// Factory builds virtual elements for the player. Probing runs in the
// background so a slow source only delays its own track.
type Factory struct {
	cfg FactoryConfig
	ctx context.Context

	mu  sync.Mutex
	els map[string]*Element
}

func NewFactory(ctx context.Context, cfg FactoryConfig) *Factory {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = &Resolver{}
	}
	return &Factory{cfg: cfg, ctx: ctx, els: map[string]*Element{}}
}

func (f *Factory) New(tr types.Track) playback.MediaElement {
	url, err := f.cfg.Resolver.Resolve(tr.URL)
	if err != nil {
		f.cfg.Logger.Warn("media unavailable", zap.String("track", tr.ID), zap.Error(err))
		return nil
	}
	el := &Element{TrackID: tr.ID, URL: url, now: f.cfg.Now, probed: make(chan struct{}), volume: 1}

	f.mu.Lock()
	f.els[tr.ID] = el
	f.mu.Unlock()

	if f.cfg.Prober == nil {
		el.ready = true
		close(el.probed)
		return el
	}
	go f.probe(el)
	return el
}

// Element returns the latest element built for a track.
func (f *Factory) Element(trackID string) (*Element, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, ok := f.els[trackID]
	return el, ok
}

func (f *Factory) probe(el *Element) {
	defer close(el.probed)
	ctx, cancel := context.WithTimeout(f.ctx, f.cfg.ProbeTimeout)
	defer cancel()

	d, err := f.cfg.Prober.ProbeDuration(ctx, el.URL)
	if err != nil || d <= 0 {
		f.cfg.Logger.Warn("media probe failed",
			zap.String("track", el.TrackID),
			zap.String("url", el.URL),
			zap.Error(err),
		)
		return
	}
	el.mu.Lock()
	el.ready = true
	el.duration = d
	el.mu.Unlock()
	f.cfg.Logger.Debug("media ready", zap.String("track", el.TrackID), zap.Float64("duration", d))
}
