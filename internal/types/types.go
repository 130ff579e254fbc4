package types

// Track is one clip placed on the timeline. Times are in seconds.
type Track struct {
	ID             string  `json:"id" yaml:"id"`
	StartTime      float64 `json:"startTime" yaml:"startTime"`
	Duration       float64 `json:"duration" yaml:"duration"`
	URL            string  `json:"url" yaml:"url"`
	TranslatedText string  `json:"translatedText,omitempty" yaml:"translatedText,omitempty"`
	Lang           string  `json:"lang,omitempty" yaml:"lang,omitempty"`
}

// End returns the exclusive end of the track window.
func (t Track) End() float64 { return t.StartTime + t.Duration }

// Contains reports whether sec lies in [StartTime, StartTime+Duration).
func (t Track) Contains(sec float64) bool {
	return sec >= t.StartTime && sec < t.End()
}

type TrackGroup struct {
	ID     string  `json:"id" yaml:"id"`
	Volume float64 `json:"volume" yaml:"volume"`
	Lang   string  `json:"lang,omitempty" yaml:"lang,omitempty"`
	Tracks []Track `json:"tracks" yaml:"tracks"`
}

// Timeline is the read model of the editor store.
type Timeline struct {
	VideoTracks []TrackGroup `json:"videoTracks" yaml:"videoTracks"`
	AudioTracks []TrackGroup `json:"audioTracks" yaml:"audioTracks"`
}

// Groups returns video groups followed by audio groups.
func (tl Timeline) Groups() []TrackGroup {
	out := make([]TrackGroup, 0, len(tl.VideoTracks)+len(tl.AudioTracks))
	out = append(out, tl.VideoTracks...)
	return append(out, tl.AudioTracks...)
}

type Window struct {
	Start float64
	End   float64
}

func (w Window) Len() float64 { return w.End - w.Start }

type Cue struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type ActionType string

const (
	SetTime    ActionType = "SET_TIME"
	SetPlaying ActionType = "SET_PLAYING"
)

// Action is a command published to the editor store.
// SET_PLAYING carries 0 or 1.
type Action struct {
	Type    ActionType `json:"type"`
	Payload float64    `json:"payload"`
}

func SetTimeAction(sec float64) Action { return Action{Type: SetTime, Payload: sec} }

func SetPlayingAction(playing bool) Action {
	if playing {
		return Action{Type: SetPlaying, Payload: 1}
	}
	return Action{Type: SetPlaying, Payload: 0}
}

// TrackCues is the allocation result for one audio track.
type TrackCues struct {
	GroupID string `json:"groupId"`
	TrackID string `json:"trackId"`
	Lang    string `json:"lang"`
	Cues    []Cue  `json:"cues"`
}

type Manifest struct {
	Project   string      `json:"project"`
	Duration  float64     `json:"duration"`
	Subtitles string      `json:"subtitles"`
	Tracks    []TrackCues `json:"tracks"`
}
