package sched

import (
	"container/heap"
	"time"
)

// Scheduler is a min-heap of timed callbacks pumped by the game loop.
// All methods run on the game loop goroutine — no locks. Callbacks fire
// inline from Run, so they see (and may mutate) world state between
// handlers only, never mid-handler.
type Scheduler struct {
	tasks  taskHeap
	nextID int64
}

// Handle refers to a scheduled task and supports cancellation.
// Cancelling a fired one-shot task is a no-op.
type Handle struct {
	task *task
}

type task struct {
	id       int64
	fireAt   time.Time
	interval time.Duration // 0 = one-shot
	fn       func()
	index    int // heap index, -1 when popped
	dead     bool
}

func New() *Scheduler {
	return &Scheduler{}
}

// After schedules fn to run once when d has elapsed past now.
func (s *Scheduler) After(now time.Time, d time.Duration, fn func()) *Handle {
	return s.push(now.Add(d), 0, fn)
}

// Every schedules fn to run repeatedly with period d, first firing at now+d.
func (s *Scheduler) Every(now time.Time, d time.Duration, fn func()) *Handle {
	return s.push(now.Add(d), d, fn)
}

func (s *Scheduler) push(at time.Time, interval time.Duration, fn func()) *Handle {
	s.nextID++
	t := &task{id: s.nextID, fireAt: at, interval: interval, fn: fn}
	heap.Push(&s.tasks, t)
	return &Handle{task: t}
}

// Run fires every task due at or before now, in fire-time order, and
// re-arms repeating tasks. Returns the number of callbacks run.
func (s *Scheduler) Run(now time.Time) int {
	fired := 0
	for s.tasks.Len() > 0 {
		head := s.tasks[0]
		if head.dead {
			heap.Pop(&s.tasks)
			continue
		}
		if head.fireAt.After(now) {
			break
		}
		heap.Pop(&s.tasks)
		if head.interval > 0 {
			head.fireAt = head.fireAt.Add(head.interval)
			heap.Push(&s.tasks, head)
		}
		head.fn()
		fired++
	}
	return fired
}

// Pending reports the number of live tasks still queued.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.dead {
			n++
		}
	}
	return n
}

// Cancel marks the task dead; it will never fire again. Safe to call on
// a nil handle or more than once.
func (h *Handle) Cancel() {
	if h == nil || h.task == nil {
		return
	}
	h.task.dead = true
}

// Active reports whether the task can still fire.
func (h *Handle) Active() bool {
	return h != nil && h.task != nil && !h.task.dead && h.task.index >= 0
}

// taskHeap orders tasks by fire time, ties broken by creation order so
// same-instant tasks fire in the order they were scheduled.
type taskHeap []*task

func (q taskHeap) Len() int { return len(q) }

func (q taskHeap) Less(i, j int) bool {
	if q[i].fireAt.Equal(q[j].fireAt) {
		return q[i].id < q[j].id
	}
	return q[i].fireAt.Before(q[j].fireAt)
}

func (q taskHeap) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskHeap) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
