package timer

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

var ErrSchedulerStopped = errors.New("scheduler is stopped")

// Job is a callback scheduled for a point in time
type Job struct {
	ID    string
	RunAt time.Time
	Run   func()
	index int
}

// jobHeap is a min-heap of jobs ordered by RunAt
type jobHeap []*Job

func (h jobHeap) Len() int           { return len(h) }
func (h jobHeap) Less(i, j int) bool { return h[i].RunAt.Before(h[j].RunAt) }

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x interface{}) {
	job := x.(*Job)
	job.index = len(*h)
	*h = append(*h, job)
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	job.index = -1
	*h = old[:n-1]
	return job
}

// Scheduler runs jobs at their due time. Due jobs run one at a time on the
// scheduler goroutine, so a pipeline run never overlaps the next one.
type Scheduler struct {
	mu      sync.Mutex
	heap    jobHeap
	jobs    map[string]*Job
	wakeup  chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	started bool
	stopped bool
}

// NewScheduler creates a scheduler; call Start to begin running jobs
func NewScheduler() *Scheduler {
	return &Scheduler{
		jobs:   make(map[string]*Job),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the scheduler loop
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	go s.run()
}

// Stop stops the loop and waits for a running job to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stopCh)
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

// Schedule adds a job, replacing any pending job with the same ID
func (s *Scheduler) Schedule(id string, runAt time.Time, run func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}

	if existing, ok := s.jobs[id]; ok {
		heap.Remove(&s.heap, existing.index)
	}

	job := &Job{ID: id, RunAt: runAt, Run: run}
	heap.Push(&s.heap, job)
	s.jobs[id] = job

	if s.heap[0] == job {
		select {
		case s.wakeup <- struct{}{}:
		default:
		}
	}

	return nil
}

// Cancel removes a pending job
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}

	heap.Remove(&s.heap, job.index)
	delete(s.jobs, id)
	return true
}

// Pending returns the number of scheduled jobs
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) run() {
	defer close(s.done)

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		s.mu.Lock()
		wait := 24 * time.Hour
		var due *Job
		if s.heap.Len() > 0 {
			wait = time.Until(s.heap[0].RunAt)
			if wait <= 0 {
				due = heap.Pop(&s.heap).(*Job)
				delete(s.jobs, due.ID)
			}
		}
		s.mu.Unlock()

		if due != nil {
			due.Run()
			continue
		}

		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-s.wakeup:
			t.Stop()
		case <-s.stopCh:
			t.Stop()
			return
		}
	}
}

// NextHourly returns the next HH:00+delay after now
func NextHourly(now time.Time, delay time.Duration) time.Time {
	next := now.Truncate(time.Hour).Add(delay)
	for !next.After(now) {
		next = next.Add(time.Hour)
	}
	return next
}
