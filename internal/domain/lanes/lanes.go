// Package lanes assigns simultaneously active speakers to two stable
// on-screen slots so overlapping speech does not swap places between frames.
package lanes

import "sort"

// Item is one active cue for one speaker.
type Item struct {
	SpeakerID string
	Color     string
	Text      string
	Start     float64
	End       float64
}

// State is carried by the caller from one frame to the next. The zero value
// is the reset state.
type State struct {
	BottomID       string
	TopID          string
	LastTopBottomY float64
	HasTopAnchor   bool
}

// Layout is what a single frame shows.
type Layout struct {
	Bottom   *Item
	Top      *Item
	Overflow []Item
}

// Resolve evaluates one frame. Items are ordered by start time before the
// rules are applied; the input slice is not modified.
func Resolve(st State, items []Item) (State, Layout) {
	if len(items) == 0 {
		return State{}, Layout{}
	}
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	first := firstBySpeaker(sorted)
	speakers := speakerOrder(sorted)

	// A lane is released only when its speaker is gone; the partner lane keeps
	// its identity.
	if _, ok := first[st.BottomID]; !ok {
		st.BottomID = ""
	}
	if _, ok := first[st.TopID]; !ok {
		st.TopID = ""
	}

	switch {
	case st.BottomID == "" && st.TopID == "":
		if len(speakers) == 1 {
			it := first[speakers[0]]
			return st, Layout{Bottom: &it, Overflow: rest(sorted, speakers[0], "")}
		}
		st.BottomID = speakers[0]
		st.TopID = speakers[1]
	case st.TopID == "":
		if id := nextSpeaker(speakers, st.BottomID); id != "" {
			st.TopID = id
		}
	case st.BottomID == "":
		if id := nextSpeaker(speakers, st.TopID); id != "" {
			st.BottomID = id
		}
	}

	var l Layout
	if it, ok := first[st.BottomID]; ok {
		l.Bottom = &it
	}
	if it, ok := first[st.TopID]; ok {
		l.Top = &it
	}
	l.Overflow = rest(sorted, st.BottomID, st.TopID)
	return st, l
}

// PlaceTop returns the bottom edge for the top box. With a bottom box present
// the top box sits on bottomBoxTop and that position is remembered; when the
// partner has ended the top box holds the remembered position instead of
// dropping into the bottom slot.
func PlaceTop(st State, l Layout, bottomBoxTop, fallback float64) (State, float64) {
	if l.Top == nil {
		return st, fallback
	}
	if l.Bottom != nil {
		st.LastTopBottomY = bottomBoxTop
		st.HasTopAnchor = true
		return st, bottomBoxTop
	}
	if st.HasTopAnchor {
		return st, st.LastTopBottomY
	}
	return st, fallback
}

func firstBySpeaker(items []Item) map[string]Item {
	out := make(map[string]Item, len(items))
	for _, it := range items {
		if _, ok := out[it.SpeakerID]; !ok {
			out[it.SpeakerID] = it
		}
	}
	return out
}

func speakerOrder(items []Item) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if !seen[it.SpeakerID] {
			seen[it.SpeakerID] = true
			out = append(out, it.SpeakerID)
		}
	}
	return out
}

func nextSpeaker(speakers []string, holder string) string {
	for _, id := range speakers {
		if id != holder {
			return id
		}
	}
	return ""
}

// rest returns everything not shown in a lane, including extra cues of a
// lane holder.
func rest(items []Item, bottomID, topID string) []Item {
	var out []Item
	shown := map[string]bool{}
	for _, it := range items {
		if (it.SpeakerID == bottomID || it.SpeakerID == topID) && !shown[it.SpeakerID] {
			shown[it.SpeakerID] = true
			continue
		}
		out = append(out, it)
	}
	return out
}
