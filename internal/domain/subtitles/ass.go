package subtitles

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	LaneBottom   = "Bottom"
	LaneTop      = "Top"
	LaneOverflow = "Overflow"
)

// Event is one subtitle line placed in a lane on the global timeline.
type Event struct {
	Start   float64
	End     float64
	Lane    string
	Speaker string
	Text    string
}

// RenderASS writes events as an ASS script with one style per lane.
func RenderASS(events []Event, width, height int) string {
	sorted := make([]Event, 0, len(events))
	for _, e := range events {
		if e.End <= e.Start || strings.TrimSpace(e.Text) == "" {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	b.WriteString(assHeader(width, height))
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, e := range sorted {
		lane := e.Lane
		if lane == "" {
			lane = LaneBottom
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(dur(e.Start)))
		b.WriteString(",")
		b.WriteString(assTime(dur(e.End)))
		b.WriteString(",")
		b.WriteString(lane)
		b.WriteString(",")
		b.WriteString(sanitizeName(e.Speaker))
		b.WriteString(",0,0,0,,")
		b.WriteString(sanitizeASS(e.Text))
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader(width, height int) string {
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}
	// Top sits one line above Bottom; both are bottom-centred (alignment 2).
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Bottom, Inter, 54, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,3,2,0,2, 80,80,60,1
Style: Top, Inter, 54, &H00FFE8B0, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,3,2,0,2, 80,80,150,1
Style: Overflow, Inter, 32, &H00C0C0C0, &H00FFD200, &H00000000, &H64000000, 0,1,0,0,100,100,0,0,1,1,0,9, 40,40,40,1
`, width, height))
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", "\\N")
	return strings.TrimSpace(s)
}

// Name is a comma-separated field, so commas would shift the columns.
func sanitizeName(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", " "))
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
