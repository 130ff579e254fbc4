package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Measurer reports text extents in pixels.
type Measurer interface {
	Width(s string) float64
	LineHeight() float64
}

// FontMeasurer measures with the face used by Rasterize.
type FontMeasurer struct {
	Face font.Face
}

func NewFontMeasurer() FontMeasurer {
	return FontMeasurer{Face: basicfont.Face7x13}
}

func (m FontMeasurer) Width(s string) float64 {
	return float64(font.MeasureString(m.face(), s).Ceil())
}

func (m FontMeasurer) LineHeight() float64 {
	return float64(m.face().Metrics().Height.Ceil())
}

func (m FontMeasurer) face() font.Face {
	if m.Face == nil {
		return basicfont.Face7x13
	}
	return m.Face
}

// FixedMeasurer gives every rune the same advance.
type FixedMeasurer struct {
	Advance float64
	Line    float64
}

func (m FixedMeasurer) Width(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * m.Advance
}

func (m FixedMeasurer) LineHeight() float64 { return m.Line }

// Wrap breaks text into lines no wider than maxWidth. Words wider than the
// box are split by rune.
func Wrap(text string, maxWidth float64, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	cur := ""
	for _, w := range words {
		cand := w
		if cur != "" {
			cand = cur + " " + w
		}
		if m.Width(cand) <= maxWidth {
			cur = cand
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		for m.Width(w) > maxWidth {
			head, tail := splitAt(w, maxWidth, m)
			lines = append(lines, head)
			w = tail
		}
		cur = w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// splitAt returns the longest prefix that fits, never less than one rune.
func splitAt(w string, maxWidth float64, m Measurer) (string, string) {
	end := 0
	for i, r := range w {
		next := i + utf8.RuneLen(r)
		if end > 0 && m.Width(w[:next]) > maxWidth {
			break
		}
		end = next
	}
	return w[:end], w[end:]
}
