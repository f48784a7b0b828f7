package crawl

import (
	"context"
	"sync"
	"time"
)

// taskSet tracks the fetch tasks of one crawl. Tasks spawn further tasks,
// so the set grows while it is being drained; the driver polls it with
// prune and waitAny rather than joining a fixed group.
type taskSet struct {
	mu    sync.Mutex
	tasks map[*task]struct{}
	wg    sync.WaitGroup

	// finished receives a token whenever any task ends. Sends never block.
	finished chan struct{}
}

type task struct {
	url  string
	done chan struct{}
}

func newTaskSet() *taskSet {
	return &taskSet{
		tasks:    make(map[*task]struct{}),
		finished: make(chan struct{}, 1),
	}
}

// spawn registers a task for url and runs fn on a new goroutine.
// The task is visible to prune before spawn returns.
func (s *taskSet) spawn(url string, fn func()) {
	t := &task{url: url, done: make(chan struct{})}

	s.mu.Lock()
	s.tasks[t] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			close(t.done)
			select {
			case s.finished <- struct{}{}:
			default:
			}
		}()
		fn()
	}()
}

// prune drops finished tasks and returns how many are still running.
func (s *taskSet) prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for t := range s.tasks {
		select {
		case <-t.done:
			delete(s.tasks, t)
		default:
		}
	}
	return len(s.tasks)
}

// waitAny blocks until some task finishes, the poll interval passes, or
// ctx is done.
func (s *taskSet) waitAny(ctx context.Context, poll time.Duration) {
	timer := time.NewTimer(poll)
	defer timer.Stop()

	select {
	case <-s.finished:
	case <-timer.C:
	case <-ctx.Done():
	}
}

// waitAll blocks until every task has returned or grace elapses.
// It reports whether all tasks returned.
func (s *taskSet) waitAll(grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	if grace <= 0 {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
