package playback

import "time"

type Timer interface {
	Stop() bool
}

// Timers schedules callbacks. The default implementation wraps time.AfterFunc.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realTimers struct{}

func (realTimers) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// TaskSet holds the pending timers of each track so a start/stop pair is
// always cancelled together. It is not safe for concurrent use; the player
// guards it with its own lock.
type TaskSet struct {
	tasks map[string][]Timer
}

func NewTaskSet() *TaskSet {
	return &TaskSet{tasks: map[string][]Timer{}}
}

// Schedule replaces whatever was pending for id.
func (s *TaskSet) Schedule(id string, timers ...Timer) {
	s.Cancel(id)
	if len(timers) > 0 {
		s.tasks[id] = timers
	}
}

func (s *TaskSet) Cancel(id string) {
	for _, t := range s.tasks[id] {
		t.Stop()
	}
	delete(s.tasks, id)
}

func (s *TaskSet) CancelAll() {
	for id := range s.tasks {
		s.Cancel(id)
	}
}

func (s *TaskSet) Len() int { return len(s.tasks) }
