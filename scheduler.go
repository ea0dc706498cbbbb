package spill

import "golang.org/x/sync/errgroup"

// Scheduler runs drain passes. The stage never schedules a pass while another one of the same
// subscription is running, so a scheduler doesn't need to serialise tasks.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function to [Scheduler].
type SchedulerFunc func(task func())

func (f SchedulerFunc) Schedule(task func()) {
	f(task)
}

// GoScheduler runs every task on its own goroutine.
type GoScheduler struct {
	group errgroup.Group
}

var _ Scheduler = (*GoScheduler)(nil)

func NewGoScheduler() *GoScheduler {
	return &GoScheduler{}
}

func (s *GoScheduler) Schedule(task func()) {
	s.group.Go(func() error {
		task()
		return nil
	})
}

// Wait blocks until every scheduled task has returned.
func (s *GoScheduler) Wait() {
	_ = s.group.Wait()
}
