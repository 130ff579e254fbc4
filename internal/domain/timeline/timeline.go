// Package timeline answers point-in-time questions about a track layout:
// which tracks play, how long the whole thing runs and which cues are on screen.
package timeline

import (
	"sort"
	"strings"

	"github.com/forPelevin/cuetrack/internal/domain/lanes"
	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
	"github.com/forPelevin/cuetrack/internal/types"
)

type Kind string

const (
	Video Kind = "video"
	Audio Kind = "audio"
)

// Active is a track whose window contains the queried time.
type Active struct {
	Kind    Kind
	GroupID string
	Volume  float64
	Track   types.Track
	Offset  float64 // seconds into the track
}

var palette = []string{"#FFFFFF", "#FFE066", "#7FDBFF", "#FF851B", "#B10DC9", "#2ECC40"}

// Total is the end of the last track, or 0 for an empty timeline.
func Total(tl types.Timeline) float64 {
	var total float64
	for _, g := range tl.Groups() {
		for _, tr := range g.Tracks {
			if e := tr.End(); e > total {
				total = e
			}
		}
	}
	return total
}

// At lists active tracks, video groups first, in timeline order.
func At(tl types.Timeline, t float64) []Active {
	var out []Active
	collect := func(kind Kind, groups []types.TrackGroup) {
		for _, g := range groups {
			for _, tr := range g.Tracks {
				if !tr.Contains(t) {
					continue
				}
				out = append(out, Active{
					Kind:    kind,
					GroupID: g.ID,
					Volume:  g.Volume,
					Track:   tr,
					Offset:  t - tr.StartTime,
				})
			}
		}
	}
	collect(Video, tl.VideoTracks)
	collect(Audio, tl.AudioTracks)
	return out
}

// Lang resolves the language used for cue timing: track, then group, then def.
func Lang(tr types.Track, g types.TrackGroup, def string) string {
	if l := strings.TrimSpace(tr.Lang); l != "" {
		return l
	}
	if l := strings.TrimSpace(g.Lang); l != "" {
		return l
	}
	return def
}

// Color is the display color of an audio group, stable by group position.
func Color(groupIndex int) string {
	if groupIndex < 0 {
		groupIndex = 0
	}
	return palette[groupIndex%len(palette)]
}

// Items returns one lane item per active audio track that has text, using the
// cue that contains t. Each audio group is one speaker.
func Items(tl types.Timeline, t float64, cfg subtitles.Config) []lanes.Item {
	var out []lanes.Item
	for gi, g := range tl.AudioTracks {
		for _, tr := range g.Tracks {
			if !tr.Contains(t) || strings.TrimSpace(tr.TranslatedText) == "" {
				continue
			}
			cues := subtitles.Allocate(window(tr), tr.TranslatedText, Lang(tr, g, cfg.DefaultLang), cfg)
			c, ok := subtitles.CueAt(cues, t)
			if !ok || c.Text == "" {
				continue
			}
			out = append(out, lanes.Item{
				SpeakerID: g.ID,
				Color:     Color(gi),
				Text:      c.Text,
				Start:     c.Start,
				End:       c.End,
			})
		}
	}
	return out
}

// Cues allocates every audio track with text, in timeline order.
func Cues(tl types.Timeline, cfg subtitles.Config) []types.TrackCues {
	var out []types.TrackCues
	for _, g := range tl.AudioTracks {
		for _, tr := range g.Tracks {
			if strings.TrimSpace(tr.TranslatedText) == "" {
				continue
			}
			lang := Lang(tr, g, cfg.DefaultLang)
			out = append(out, types.TrackCues{
				GroupID: g.ID,
				TrackID: tr.ID,
				Lang:    lang,
				Cues:    subtitles.Allocate(window(tr), tr.TranslatedText, lang, cfg),
			})
		}
	}
	return out
}

// Boundaries returns the sorted distinct cue edges in [0, total]. Lane state
// only changes at these times, so sweeping them reproduces playback.
func Boundaries(all []types.TrackCues) []float64 {
	seen := map[float64]bool{}
	var out []float64
	add := func(v float64) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, tc := range all {
		for _, c := range tc.Cues {
			add(c.Start)
			add(c.End)
		}
	}
	sort.Float64s(out)
	return out
}

func window(tr types.Track) types.Window {
	return types.Window{Start: tr.StartTime, End: tr.End()}
}
