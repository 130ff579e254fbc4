// Package render turns the timeline state at one instant into a frame: two
// subtitle boxes placed by the lane resolver and the list of visible video
// layers.
package render

import (
	"github.com/forPelevin/cuetrack/internal/domain/lanes"
	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
	"github.com/forPelevin/cuetrack/internal/domain/timeline"
	"github.com/forPelevin/cuetrack/internal/types"
)

type Options struct {
	Width        int
	Height       int
	BoxWidth     float64 // fraction of the frame width
	BottomMargin float64
	Padding      float64
}

func DefaultOptions() Options {
	return Options{Width: 1280, Height: 720, BoxWidth: 0.8, BottomMargin: 48, Padding: 8}
}

// Box is a subtitle box in frame pixels; Y is the top edge.
type Box struct {
	SpeakerID string
	Color     string
	Lines     []string
	X, Y      float64
	W, H      float64
}

type Layer struct {
	TrackID string
	URL     string
	Offset  float64
}

type Frame struct {
	Time     float64
	Width    int
	Height   int
	Bottom   *Box
	Top      *Box
	Layers   []Layer
	Overflow int
}

// Renderer keeps lane state between frames. It is not safe for concurrent
// use.
type Renderer struct {
	opts Options
	m    Measurer
	cfg  subtitles.Config
	st   lanes.State
}

func New(opts Options, m Measurer, cfg subtitles.Config) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.BoxWidth <= 0 || opts.BoxWidth > 1 {
		opts.BoxWidth = def.BoxWidth
	}
	if m == nil {
		m = NewFontMeasurer()
	}
	return &Renderer{opts: opts, m: m, cfg: cfg}
}

// Reset forgets lane assignments. Call it on seek and on every play.
func (r *Renderer) Reset() { r.st = lanes.State{} }

func (r *Renderer) State() lanes.State { return r.st }

func (r *Renderer) Render(tl types.Timeline, t float64) Frame {
	f := Frame{Time: t, Width: r.opts.Width, Height: r.opts.Height}
	for _, a := range timeline.At(tl, t) {
		if a.Kind == timeline.Video {
			f.Layers = append(f.Layers, Layer{TrackID: a.Track.ID, URL: a.Track.URL, Offset: a.Offset})
		}
	}

	st, l := lanes.Resolve(r.st, timeline.Items(tl, t, r.cfg))
	f.Overflow = len(l.Overflow)

	baseline := float64(r.opts.Height) - r.opts.BottomMargin
	bottomTop := baseline
	if l.Bottom != nil {
		f.Bottom = r.box(*l.Bottom, baseline)
		bottomTop = f.Bottom.Y
	}
	st, anchor := lanes.PlaceTop(st, l, bottomTop, baseline)
	if l.Top != nil {
		f.Top = r.box(*l.Top, anchor)
	}
	r.st = st
	return f
}

// box lays out one item with its bottom edge at bottom.
func (r *Renderer) box(it lanes.Item, bottom float64) *Box {
	w := float64(r.opts.Width) * r.opts.BoxWidth
	lines := Wrap(it.Text, w-2*r.opts.Padding, r.m)
	h := float64(len(lines))*r.m.LineHeight() + 2*r.opts.Padding
	return &Box{
		SpeakerID: it.SpeakerID,
		Color:     it.Color,
		Lines:     lines,
		X:         (float64(r.opts.Width) - w) / 2,
		Y:         bottom - h,
		W:         w,
		H:         h,
	}
}
