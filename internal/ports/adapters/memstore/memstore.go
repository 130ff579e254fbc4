package memstore

import (
	"context"
	"sync"

	"github.com/forPelevin/cuetrack/internal/types"
)

type State struct {
	Timeline types.Timeline
	Time     float64
	Playing  bool
}

// Reduce applies one action. Unknown actions leave the state unchanged.
func Reduce(s State, a types.Action) State {
	switch a.Type {
	case types.SetTime:
		s.Time = a.Payload
		if s.Time < 0 {
			s.Time = 0
		}
	case types.SetPlaying:
		s.Playing = a.Payload != 0
	}
	return s
}

// Store keeps the state in process.
type Store struct {
	mu      sync.RWMutex
	st      State
	history []types.Action
}

func New(tl types.Timeline) *Store {
	return &Store{st: State{Timeline: tl}}
}

func (s *Store) Timeline(context.Context) (types.Timeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Timeline, nil
}

func (s *Store) SetTimeline(_ context.Context, tl types.Timeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Timeline = tl
	return nil
}

func (s *Store) Time(context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Time, nil
}

func (s *Store) Playing(context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Playing, nil
}

func (s *Store) Dispatch(_ context.Context, a types.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = Reduce(s.st, a)
	s.history = append(s.history, a)
	return nil
}

// History returns every dispatched action in order.
func (s *Store) History() []types.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Action, len(s.history))
	copy(out, s.history)
	return out
}
