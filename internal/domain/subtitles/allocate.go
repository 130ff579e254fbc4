package subtitles

import (
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/cuetrack/internal/types"
)

type Mode int

const (
	// WaterFill keeps every cue inside [MinDuration, MaxDuration] whenever the
	// window allows it.
	WaterFill Mode = iota
	// Proportional clamps once and rescales, so bounds are best-effort.
	Proportional
)

func (m Mode) String() string {
	switch m {
	case Proportional:
		return "proportional"
	default:
		return "waterfill"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "waterfill", "water-fill":
		return WaterFill, nil
	case "proportional":
		return Proportional, nil
	}
	return WaterFill, fmt.Errorf("unknown allocation mode %q", s)
}

type Config struct {
	MinDuration    float64
	MaxDuration    float64
	MaxCharsPerCue int
	CPS            map[string]float64
	DefaultLang    string
	Mode           Mode
}

func DefaultConfig() Config {
	return Config{
		MinDuration:    2.7,
		MaxDuration:    7.0,
		MaxCharsPerCue: 42,
		CPS:            DefaultCPS(),
		DefaultLang:    defaultLang,
		Mode:           WaterFill,
	}
}

const (
	waterFillIterations = 8
	waterFillEpsilon    = 1e-3
)

// Allocate splits text into cues that partition w exactly: the first cue
// starts at w.Start, the last ends at w.End and neighbours share boundaries.
func Allocate(w types.Window, text, lang string, cfg Config) []types.Cue {
	total := w.Len()
	if total <= 0 {
		return []types.Cue{{Text: normalizeSpace(text), Start: w.Start, End: w.End}}
	}
	chunks := Segment(text, cfg.MaxCharsPerCue, lang)
	if len(chunks) == 0 {
		return []types.Cue{{Start: w.Start, End: w.End}}
	}

	cps := cfg.cps(lang)
	weights := make([]float64, len(chunks))
	for i, c := range chunks {
		weights[i] = float64(nonSpaceRunes(c)) / cps
	}

	lo, hi := cfg.bounds()
	var durs []float64
	switch cfg.Mode {
	case Proportional:
		durs = proportional(weights, total, lo, hi)
	default:
		durs = waterFill(weights, total, lo, hi)
	}
	return buildCues(w, chunks, durs)
}

// CueAt returns the cue whose [Start, End) contains t.
func CueAt(cues []types.Cue, t float64) (types.Cue, bool) {
	for _, c := range cues {
		if t >= c.Start && t < c.End {
			return c, true
		}
	}
	return types.Cue{}, false
}

func (c Config) bounds() (float64, float64) {
	lo := math.Max(c.MinDuration, 0)
	hi := c.MaxDuration
	if hi <= 0 {
		hi = math.Inf(1)
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func proportional(weights []float64, total, lo, hi float64) []float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	d := make([]float64, len(weights))
	for i, w := range weights {
		share := total / float64(len(weights))
		if sum > 0 {
			share = w / sum * total
		}
		d[i] = clamp(share, lo, hi)
	}
	return scaleTo(d, total)
}

func waterFill(weights []float64, total, lo, hi float64) []float64 {
	n := len(weights)
	d := make([]float64, n)
	for i, w := range weights {
		d[i] = clamp(math.Max(w, lo), lo, hi)
	}
	// No assignment can honour the bounds; keep the shape and fit the total.
	if total < float64(n)*lo || total > float64(n)*hi {
		return scaleTo(d, total)
	}

	fixed := make([]bool, n)
	iters := waterFillIterations
	if n+1 > iters {
		// Every unconverged pass pins at least one chunk.
		iters = n + 1
	}
	for it := 0; it < iters; it++ {
		diff := total - sumOf(d)
		if math.Abs(diff) < waterFillEpsilon {
			break
		}
		free, freeN := 0.0, 0
		for i := range d {
			if !fixed[i] {
				free += d[i]
				freeN++
			}
		}
		if freeN == 0 {
			break
		}
		for i := range d {
			if fixed[i] {
				continue
			}
			if free > 0 {
				d[i] += diff * d[i] / free
			} else {
				d[i] += diff / float64(freeN)
			}
			if d[i] <= lo {
				d[i] = lo
				fixed[i] = true
			} else if d[i] >= hi {
				d[i] = hi
				fixed[i] = true
			}
		}
	}
	settle(d, total-sumOf(d), lo, hi)
	return d
}

// settle spreads the residual left by the loop over chunks that still have
// room, last first, so no chunk leaves [lo, hi].
func settle(d []float64, rest, lo, hi float64) {
	for i := len(d) - 1; i >= 0 && rest != 0; i-- {
		switch {
		case rest > 0 && d[i] < hi:
			if room := hi - d[i]; rest >= room {
				d[i] = hi
				rest -= room
			} else {
				d[i] += rest
				rest = 0
			}
		case rest < 0 && d[i] > lo:
			if room := d[i] - lo; -rest >= room {
				d[i] = lo
				rest += room
			} else {
				d[i] += rest
				rest = 0
			}
		}
	}
	d[len(d)-1] += rest
}

func scaleTo(d []float64, total float64) []float64 {
	sum := sumOf(d)
	if sum <= 0 {
		for i := range d {
			d[i] = total / float64(len(d))
		}
		return d
	}
	k := total / sum
	for i := range d {
		d[i] *= k
	}
	return d
}

func buildCues(w types.Window, chunks []string, durs []float64) []types.Cue {
	cues := make([]types.Cue, len(chunks))
	t := w.Start
	for i, text := range chunks {
		end := t + durs[i]
		if i == len(chunks)-1 {
			end = w.End
		}
		cues[i] = types.Cue{Text: text, Start: t, End: end}
		t = end
	}
	return cues
}

func sumOf(d []float64) float64 {
	s := 0.0
	for _, v := range d {
		s += v
	}
	return s
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}
