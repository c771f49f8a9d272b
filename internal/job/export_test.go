package job

import "time"

// SetClock pins the scheduler's clock.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}
