package subtitles

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Segment splits text into ordered sub-cue chunks. Sentences are cut after
// terminal punctuation; sentences wider than maxChars are packed word by word
// and words wider than maxChars are hard-cut. maxChars <= 0 disables the
// length split.
func Segment(text string, maxChars int, lang string) []string {
	text = normalizeSpace(text)
	if text == "" {
		return nil
	}
	cjk := IsCJK(lang)

	var out []string
	for _, s := range splitSentences(text) {
		if maxChars <= 0 || textWidth(s, cjk) <= maxChars {
			out = appendChunk(out, s)
			continue
		}
		out = packWords(out, s, maxChars, cjk)
	}
	return out
}

func normalizeSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func isTerminal(r rune) bool {
	switch r {
	case '.', '?', '!', '…', ',', '。', '，', '！', '？':
		return true
	}
	return false
}

// Full-width stops end a clause even when the next glyph follows directly,
// which is the normal case in CJK text.
func isFullWidthStop(r rune) bool {
	switch r {
	case '。', '，', '！', '？':
		return true
	}
	return false
}

func splitSentences(s string) []string {
	rs := []rune(s)
	var out []string
	start := 0
	for i, r := range rs {
		if !isTerminal(r) {
			continue
		}
		next := i + 1
		if (next < len(rs) && rs[next] == ' ') || isFullWidthStop(r) {
			out = appendChunk(out, string(rs[start:next]))
			start = next
		}
	}
	if start < len(rs) {
		out = appendChunk(out, string(rs[start:]))
	}
	return out
}

func packWords(out []string, s string, maxChars int, cjk bool) []string {
	var buf strings.Builder
	bufW := 0
	flush := func() {
		if bufW > 0 {
			out = appendChunk(out, buf.String())
		}
		buf.Reset()
		bufW = 0
	}
	for _, w := range strings.Split(s, " ") {
		ww := textWidth(w, cjk)
		if ww == 0 {
			continue
		}
		if ww > maxChars {
			flush()
			out = hardCut(out, w, maxChars, cjk)
			continue
		}
		next := ww
		if bufW > 0 {
			next += bufW + 1
		}
		if next > maxChars {
			flush()
			next = ww
		}
		if bufW > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(w)
		bufW = next
	}
	flush()
	return out
}

func hardCut(out []string, word string, maxChars int, cjk bool) []string {
	var cur []rune
	curW := 0
	for _, r := range word {
		rw := runeWidth(r, cjk)
		if curW > 0 && curW+rw > maxChars {
			out = appendChunk(out, string(cur))
			cur = cur[:0]
			curW = 0
		}
		cur = append(cur, r)
		curW += rw
	}
	if len(cur) > 0 {
		out = appendChunk(out, string(cur))
	}
	return out
}

func appendChunk(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	return append(out, s)
}

// textWidth counts runes; in CJK mode wide glyphs count twice.
func textWidth(s string, cjk bool) int {
	if !cjk {
		return utf8.RuneCountInString(s)
	}
	n := 0
	for _, r := range s {
		n += runeWidth(r, true)
	}
	return n
}

func runeWidth(r rune, cjk bool) int {
	if !cjk {
		return 1
	}
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

func nonSpaceRunes(s string) int {
	n := 0
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			n++
		}
	}
	return n
}
