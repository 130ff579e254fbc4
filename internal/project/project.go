// Package project reads and writes the yaml project file that describes a
// timeline.
package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/cuetrack/internal/domain/subtitles"
	"github.com/forPelevin/cuetrack/internal/ports"
	"github.com/forPelevin/cuetrack/internal/types"
)

const (
	defaultVolume = 100
	probeWorkers  = 4
)

type Project struct {
	Name        string
	DefaultLang string
	CPS         map[string]float64
	Timeline    types.Timeline
}

type file struct {
	Name        string             `yaml:"name"`
	DefaultLang string             `yaml:"defaultLang,omitempty"`
	CPS         map[string]float64 `yaml:"cps,omitempty"`
	VideoTracks []fileGroup        `yaml:"videoTracks"`
	AudioTracks []fileGroup        `yaml:"audioTracks"`
}

// fileGroup keeps volume optional so an omitted volume is full volume rather
// than muted.
type fileGroup struct {
	ID     string        `yaml:"id"`
	Volume *float64      `yaml:"volume,omitempty"`
	Lang   string        `yaml:"lang,omitempty"`
	Tracks []types.Track `yaml:"tracks"`
}

// Load reads a project file. Groups and tracks without an id get a random
// one; a missing name falls back to the file name.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

func Parse(data []byte) (*Project, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	p := &Project{
		Name:        strings.TrimSpace(f.Name),
		DefaultLang: f.DefaultLang,
		CPS:         f.CPS,
		Timeline: types.Timeline{
			VideoTracks: fromFile(f.VideoTracks),
			AudioTracks: fromFile(f.AudioTracks),
		},
	}
	assignIDs("video", p.Timeline.VideoTracks)
	assignIDs("audio", p.Timeline.AudioTracks)
	return p, nil
}

// Save writes the project back in the same format, ids included.
func Save(path string, p *Project) error {
	f := file{
		Name:        p.Name,
		DefaultLang: p.DefaultLang,
		CPS:         p.CPS,
		VideoTracks: toFile(p.Timeline.VideoTracks),
		AudioTracks: toFile(p.Timeline.AudioTracks),
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *Project) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for _, g := range p.Timeline.Groups() {
		if g.Volume < 0 || g.Volume > 100 {
			errs = append(errs, fmt.Errorf("group %s: volume %v outside 0..100", g.ID, g.Volume))
		}
		for _, tr := range g.Tracks {
			if seen[tr.ID] {
				errs = append(errs, fmt.Errorf("track %s: duplicate id", tr.ID))
			}
			seen[tr.ID] = true
			if tr.StartTime < 0 {
				errs = append(errs, fmt.Errorf("track %s: negative start time", tr.ID))
			}
			if tr.Duration < 0 {
				errs = append(errs, fmt.Errorf("track %s: negative duration", tr.ID))
			}
		}
	}
	for lang, v := range p.CPS {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("cps %s: must be > 0", lang))
		}
	}
	return errors.Join(errs...)
}

// Subtitles layers the project's language settings over cfg.
func (p *Project) Subtitles(cfg subtitles.Config) subtitles.Config {
	if l := subtitles.NormalizeLang(p.DefaultLang); l != "" {
		cfg.DefaultLang = l
	}
	if len(p.CPS) == 0 {
		return cfg
	}
	cps := make(map[string]float64, len(cfg.CPS)+len(p.CPS))
	for k, v := range cfg.CPS {
		cps[k] = v
	}
	for k, v := range p.CPS {
		cps[subtitles.NormalizeLang(k)] = v
	}
	cfg.CPS = cps
	return cfg
}

// FillDurations probes every track that has no duration. resolve maps a
// track URL to what the prober can open.
func (p *Project) FillDurations(ctx context.Context, prober ports.Prober, resolve func(string) (string, error)) error {
	if prober == nil {
		return nil
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(probeWorkers)
	for _, groups := range [][]types.TrackGroup{p.Timeline.VideoTracks, p.Timeline.AudioTracks} {
		for gi := range groups {
			for k := range groups[gi].Tracks {
				tr := &groups[gi].Tracks[k]
				if tr.Duration > 0 {
					continue
				}
				eg.Go(func() error {
					url := tr.URL
					if resolve != nil {
						u, err := resolve(url)
						if err != nil {
							return fmt.Errorf("track %s: %w", tr.ID, err)
						}
						url = u
					}
					d, err := prober.ProbeDuration(ctx, url)
					if err != nil {
						return fmt.Errorf("track %s: %w", tr.ID, err)
					}
					tr.Duration = d
					return nil
				})
			}
		}
	}
	return eg.Wait()
}

func fromFile(in []fileGroup) []types.TrackGroup {
	out := make([]types.TrackGroup, 0, len(in))
	for _, g := range in {
		vol := float64(defaultVolume)
		if g.Volume != nil {
			vol = *g.Volume
		}
		out = append(out, types.TrackGroup{ID: g.ID, Volume: vol, Lang: g.Lang, Tracks: g.Tracks})
	}
	return out
}

func toFile(in []types.TrackGroup) []fileGroup {
	out := make([]fileGroup, 0, len(in))
	for _, g := range in {
		vol := g.Volume
		out = append(out, fileGroup{ID: g.ID, Volume: &vol, Lang: g.Lang, Tracks: g.Tracks})
	}
	return out
}

// idSpace scopes generated ids so they depend only on position and URL, which
// keeps them stable when a watched file is reloaded.
var idSpace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("cuetrack"))

func assignIDs(kind string, groups []types.TrackGroup) {
	for i := range groups {
		if strings.TrimSpace(groups[i].ID) == "" {
			groups[i].ID = uuid.NewSHA1(idSpace, []byte(fmt.Sprintf("%s/%d", kind, i))).String()
		}
		for k := range groups[i].Tracks {
			tr := &groups[i].Tracks[k]
			if strings.TrimSpace(tr.ID) == "" {
				tr.ID = uuid.NewSHA1(idSpace, []byte(fmt.Sprintf("%s/%d/%d/%s", kind, i, k, tr.URL))).String()
			}
		}
	}
}
