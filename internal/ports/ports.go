package ports

import (
	"context"

	"github.com/forPelevin/cuetrack/internal/types"
)

// Store is the editor's authoritative state: the track layout plus the
// global playback time and flag.
type Store interface {
	Timeline(ctx context.Context) (types.Timeline, error)
	SetTimeline(ctx context.Context, tl types.Timeline) error
	Time(ctx context.Context) (float64, error)
	Playing(ctx context.Context) (bool, error)
	Dispatch(ctx context.Context, a types.Action) error
}

// Prober reports media duration in seconds.
type Prober interface {
	ProbeDuration(ctx context.Context, url string) (float64, error)
}
