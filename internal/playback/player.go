// Package playback drives a shared clock across independently scheduled media
// elements and publishes time and play state to the editor store.
package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/forPelevin/cuetrack/internal/domain/timeline"
	"github.com/forPelevin/cuetrack/internal/types"
)

const defaultFrameInterval = time.Second / 30

type Config struct {
	Timeline types.Timeline
	Media    MediaFactory
	// Publish receives store commands. It is never called with the player
	// lock held.
	Publish func(types.Action)
	// OnFrame is called from the render loop with the current time, and on
	// every scrub.
	OnFrame       func(t float64)
	FrameInterval time.Duration
	Timers        Timers
	Now           func() time.Time
	Logger        *zap.Logger
}

type Player struct {
	publish  func(types.Action)
	onFrame  func(float64)
	interval time.Duration
	timers   Timers
	now      func() time.Time
	log      *zap.Logger

	mu         sync.Mutex
	tl         types.Timeline
	total      float64
	playing    bool
	globalTime float64
	anchor     time.Time
	scrubbing  bool
	scrubTime  float64
	// epoch changes on every play and stop; callbacks from an older epoch
	// are ignored.
	epoch    uint64
	tasks    *TaskSet
	pool     *pool
	stopLoop context.CancelFunc
	// pending holds tracks inside their window whose media was not ready; the
	// render loop starts them once it is.
	pending map[string]pendingTrack
}

type pendingTrack struct {
	track  types.Track
	volume float64
}

func New(cfg Config) *Player {
	p := &Player{
		publish:  cfg.Publish,
		onFrame:  cfg.OnFrame,
		interval: cfg.FrameInterval,
		timers:   cfg.Timers,
		now:      cfg.Now,
		log:      cfg.Logger,
		tasks:    NewTaskSet(),
		pool:     newPool(cfg.Media),
		pending:  map[string]pendingTrack{},
	}
	if p.publish == nil {
		p.publish = func(types.Action) {}
	}
	if p.interval <= 0 {
		p.interval = defaultFrameInterval
	}
	if p.timers == nil {
		p.timers = realTimers{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	p.setTimelineLocked(cfg.Timeline)
	return p
}

// Play starts every track from the current time. Calling it while playing
// does nothing.
func (p *Player) Play() {
	p.mu.Lock()
	acts := p.playLocked()
	p.mu.Unlock()
	p.emit(acts)
}

// Stop pauses every element in place and reports the stop time.
func (p *Player) Stop() {
	p.mu.Lock()
	acts := p.stopLocked()
	p.mu.Unlock()
	p.emit(acts)
}

// Seek previews t while scrubbing. Media is left alone until CommitSeek.
func (p *Player) Seek(t float64) {
	p.mu.Lock()
	p.scrubbing = true
	p.scrubTime = p.clamp(t)
	t = p.scrubTime
	p.mu.Unlock()
	if p.onFrame != nil {
		p.onFrame(t)
	}
}

// CommitSeek moves the clock to t. A playing timeline is restarted from t.
func (p *Player) CommitSeek(t float64) {
	p.mu.Lock()
	t = p.clamp(t)
	p.scrubbing = false
	acts := []types.Action{types.SetTimeAction(t)}
	if p.playing {
		p.haltLocked()
		p.globalTime = t
		acts = append(acts, p.playLocked()...)
	} else {
		p.globalTime = t
	}
	p.mu.Unlock()
	p.emit(acts)
}

// Sync adopts the store time while stopped. It is ignored during playback
// and scrubbing, when the player itself is the source of truth.
func (p *Player) Sync(t float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing || p.scrubbing {
		return
	}
	p.globalTime = p.clamp(t)
}

// SetTimeline swaps the track list. While playing, schedules are rebuilt from
// the current time.
func (p *Player) SetTimeline(tl types.Timeline) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		p.setTimelineLocked(tl)
		p.globalTime = p.clamp(p.globalTime)
		return
	}
	t := p.elapsedLocked()
	p.haltLocked()
	p.setTimelineLocked(tl)
	p.globalTime = p.clamp(t)
	_ = p.playLocked()
	p.log.Debug("timeline replaced during playback", zap.Float64("time", p.globalTime))
}

func (p *Player) Time() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.scrubbing:
		return p.scrubTime
	case p.playing:
		return p.elapsedLocked()
	default:
		return p.globalTime
	}
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Player) Total() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

func (p *Player) playLocked() []types.Action {
	if p.playing {
		return nil
	}
	now := p.now()
	g := p.clamp(p.globalTime)
	p.globalTime = g
	p.anchor = now.Add(-secs(g))
	p.playing = true
	p.scrubbing = false
	p.epoch++
	ep := p.epoch

	for _, grp := range p.tl.Groups() {
		vol := volume(grp.Volume)
		for _, tr := range grp.Tracks {
			p.scheduleLocked(ep, g, vol, tr)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.stopLoop = cancel
	go p.loop(ctx, ep)

	p.log.Info("playback started", zap.Float64("from", g), zap.Int("scheduled", p.tasks.Len()))
	return []types.Action{types.SetPlayingAction(true)}
}

func (p *Player) scheduleLocked(ep uint64, g, vol float64, tr types.Track) {
	offset := g - tr.StartTime
	id := tr.ID
	switch {
	case offset < 0:
		start := p.timers.AfterFunc(secs(-offset), func() { p.startDeferred(ep, tr, vol) })
		stop := p.timers.AfterFunc(secs(-offset+tr.Duration), func() { p.stopTrack(ep, id) })
		p.tasks.Schedule(id, start, stop)
	case offset <= tr.Duration:
		if !p.startLocked(ep, tr, vol, offset) {
			p.log.Debug("media not ready, waiting", zap.String("track", id))
			p.pending[id] = pendingTrack{track: tr, volume: vol}
		}
	}
}

// startLocked plays tr from offset and schedules its stop. It reports false
// when the element is absent or not ready.
func (p *Player) startLocked(ep uint64, tr types.Track, vol, offset float64) bool {
	el := p.pool.get(tr.ID)
	if el == nil || !el.Ready() {
		return false
	}
	id := tr.ID
	el.SetVolume(vol)
	el.Seek(offset)
	el.Play()
	stop := p.timers.AfterFunc(secs(tr.Duration-offset), func() { p.stopTrack(ep, id) })
	p.tasks.Schedule(id, stop)
	return true
}

// startDeferred fires at the track start. The offset is taken from the clock
// so a late timer does not leave the track behind.
func (p *Player) startDeferred(ep uint64, tr types.Track, vol float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ep != p.epoch || !p.playing {
		return
	}
	offset := math.Max(p.elapsedLocked()-tr.StartTime, 0)
	if offset > tr.Duration {
		return
	}
	if !p.startLocked(ep, tr, vol, offset) {
		p.log.Debug("media not ready at start, waiting", zap.String("track", tr.ID))
		p.pending[tr.ID] = pendingTrack{track: tr, volume: vol}
	}
}

// retryPendingLocked starts waiting tracks whose media became ready and drops
// the ones whose window has passed.
func (p *Player) retryPendingLocked(ep uint64, t float64) {
	for id, pt := range p.pending {
		offset := t - pt.track.StartTime
		if offset < 0 {
			continue
		}
		if offset >= pt.track.Duration {
			delete(p.pending, id)
			continue
		}
		if p.startLocked(ep, pt.track, pt.volume, offset) {
			delete(p.pending, id)
		}
	}
}

func (p *Player) stopTrack(ep uint64, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ep != p.epoch || !p.playing {
		return
	}
	delete(p.pending, id)
	if el := p.pool.get(id); el != nil {
		el.Pause()
	}
}

func (p *Player) stopLocked() []types.Action {
	if !p.playing {
		return nil
	}
	t := p.elapsedLocked()
	p.haltLocked()
	p.globalTime = t
	p.log.Info("playback stopped", zap.Float64("at", t))
	return []types.Action{types.SetTimeAction(t), types.SetPlayingAction(false)}
}

// haltLocked cancels every pending timer and the render loop before pausing
// elements.
func (p *Player) haltLocked() {
	p.epoch++
	p.tasks.CancelAll()
	if p.stopLoop != nil {
		p.stopLoop()
		p.stopLoop = nil
	}
	p.pool.pauseAll()
	clear(p.pending)
	p.playing = false
}

func (p *Player) setTimelineLocked(tl types.Timeline) {
	p.tl = tl
	p.total = timeline.Total(tl)
	p.pool.sync(tl)
}

func (p *Player) loop(ctx context.Context, ep uint64) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ep)
		}
	}
}

// tick advances one frame and stops at the end of the timeline.
func (p *Player) tick(ep uint64) {
	p.mu.Lock()
	if ep != p.epoch || !p.playing {
		p.mu.Unlock()
		return
	}
	t := p.elapsedLocked()
	var acts []types.Action
	if t >= p.total {
		acts = p.stopLocked()
	} else {
		p.retryPendingLocked(ep, t)
	}
	p.mu.Unlock()

	p.emit(acts)
	if p.onFrame != nil {
		p.onFrame(t)
	}
}

func (p *Player) elapsedLocked() float64 {
	return p.clamp(p.now().Sub(p.anchor).Seconds())
}

func (p *Player) clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > p.total {
		return p.total
	}
	return t
}

func (p *Player) emit(acts []types.Action) {
	for _, a := range acts {
		p.publish(a)
	}
}

func volume(v float64) float64 {
	v /= 100
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
