package playback

import "github.com/forPelevin/cuetrack/internal/types"

// MediaElement is one playable clip. Positions are in seconds from the start
// of the clip.
type MediaElement interface {
	Ready() bool
	Seek(sec float64)
	Play()
	Pause()
	SetVolume(v float64)
}

// MediaFactory creates the element for a track. A nil element means the
// media is absent and the track is skipped.
type MediaFactory interface {
	New(tr types.Track) MediaElement
}

type pooled struct {
	url string
	el  MediaElement
}

// pool owns one element per track id.
type pool struct {
	factory MediaFactory
	els     map[string]pooled
}

func newPool(f MediaFactory) *pool {
	return &pool{factory: f, els: map[string]pooled{}}
}

// sync creates elements for new tracks, recreates those whose URL changed and
// drops the ones no longer on the timeline.
func (p *pool) sync(tl types.Timeline) {
	seen := map[string]bool{}
	for _, g := range tl.Groups() {
		for _, tr := range g.Tracks {
			seen[tr.ID] = true
			cur, ok := p.els[tr.ID]
			if ok && cur.url == tr.URL {
				continue
			}
			if ok && cur.el != nil {
				cur.el.Pause()
			}
			var el MediaElement
			if p.factory != nil {
				el = p.factory.New(tr)
			}
			p.els[tr.ID] = pooled{url: tr.URL, el: el}
		}
	}
	for id, cur := range p.els {
		if seen[id] {
			continue
		}
		if cur.el != nil {
			cur.el.Pause()
		}
		delete(p.els, id)
	}
}

func (p *pool) get(id string) MediaElement {
	return p.els[id].el
}

func (p *pool) pauseAll() {
	for _, cur := range p.els {
		if cur.el != nil {
			cur.el.Pause()
		}
	}
}
