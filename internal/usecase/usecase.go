package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/forPelevin/cuetrack/internal/domain/lanes"
	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
	"github.com/forPelevin/cuetrack/internal/domain/timeline"
	"github.com/forPelevin/cuetrack/internal/ports"
	"github.com/forPelevin/cuetrack/internal/project"
	"github.com/forPelevin/cuetrack/internal/render"
	"github.com/forPelevin/cuetrack/internal/types"
)

const SubtitlesFile = "subtitles.ass"

type Deps struct {
	// Prober fills in missing track durations. Optional.
	Prober ports.Prober
	// Resolve maps track URLs for the prober. Optional.
	Resolve func(string) (string, error)
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Project   *project.Project
	Subtitles subtitles.Config
	Width     int
	Height    int
	Logf      func(format string, args ...any)
}

type Result struct {
	Manifest types.Manifest
	ASS      string
}

// Export allocates cues for every audio track and lays them out in lanes
// over the whole timeline.
func (u Usecase) Export(ctx context.Context, in Input) (Result, error) {
	logf := in.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	if in.Project == nil {
		return Result{}, fmt.Errorf("project is nil")
	}

	if u.d.Prober != nil {
		logf("probing tracks without duration")
		if err := in.Project.FillDurations(ctx, u.d.Prober, u.d.Resolve); err != nil {
			return Result{}, fmt.Errorf("probe durations: %w", err)
		}
	}
	if err := in.Project.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid project: %w", err)
	}

	tl := in.Project.Timeline
	cfg := in.Project.Subtitles(in.Subtitles)

	tracks := timeline.Cues(tl, cfg)
	events := Events(tl, cfg)
	logf("allocated cues for %d tracks, %d subtitle events", len(tracks), len(events))

	return Result{
		Manifest: types.Manifest{
			Project:   in.Project.Name,
			Duration:  timeline.Total(tl),
			Subtitles: SubtitlesFile,
			Tracks:    tracks,
		},
		ASS: subtitles.RenderASS(events, in.Width, in.Height),
	}, nil
}

// Events replays the lane resolver over every cue boundary, so each event
// lands in the lane it occupies during playback. Adjacent pieces of the same
// line are merged.
func Events(tl types.Timeline, cfg subtitles.Config) []subtitles.Event {
	bounds := timeline.Boundaries(timeline.Cues(tl, cfg))
	var out []subtitles.Event
	var st lanes.State
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		var l lanes.Layout
		st, l = lanes.Resolve(st, timeline.Items(tl, start, cfg))
		if l.Bottom != nil {
			out = appendEvent(out, start, end, subtitles.LaneBottom, *l.Bottom)
		}
		if l.Top != nil {
			out = appendEvent(out, start, end, subtitles.LaneTop, *l.Top)
		}
		for _, it := range l.Overflow {
			out = appendEvent(out, start, end, subtitles.LaneOverflow, it)
		}
	}
	return out
}

func appendEvent(out []subtitles.Event, start, end float64, lane string, it lanes.Item) []subtitles.Event {
	for i := len(out) - 1; i >= 0 && out[i].End >= start; i-- {
		e := &out[i]
		if e.End == start && e.Lane == lane && e.Speaker == it.SpeakerID && e.Text == it.Text {
			e.End = end
			return out
		}
	}
	return append(out, subtitles.Event{Start: start, End: end, Lane: lane, Speaker: it.SpeakerID, Text: it.Text})
}

// FrameAt renders the frame at t with the lane state playback from zero
// would have reached.
func FrameAt(tl types.Timeline, cfg subtitles.Config, opts render.Options, m render.Measurer, t float64) render.Frame {
	r := render.New(opts, m, cfg)
	for _, b := range timeline.Boundaries(timeline.Cues(tl, cfg)) {
		if b >= t {
			break
		}
		r.Render(tl, b)
	}
	return r.Render(tl, t)
}

// Describe prints a frame on one line.
func Describe(f render.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "t=%.2f", f.Time)
	if f.Bottom != nil {
		fmt.Fprintf(&b, " bottom[%s]=%q", f.Bottom.SpeakerID, strings.Join(f.Bottom.Lines, " "))
	}
	if f.Top != nil {
		fmt.Fprintf(&b, " top[%s]=%q", f.Top.SpeakerID, strings.Join(f.Top.Lines, " "))
	}
	if f.Overflow > 0 {
		fmt.Fprintf(&b, " overflow=%d", f.Overflow)
	}
	if len(f.Layers) > 0 {
		ids := make([]string, 0, len(f.Layers))
		for _, l := range f.Layers {
			ids = append(ids, fmt.Sprintf("%s@%.2f", l.TrackID, l.Offset))
		}
		fmt.Fprintf(&b, " video=%s", strings.Join(ids, ","))
	}
	return b.String()
}
