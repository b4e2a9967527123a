package lib

import "sync/atomic"

// StopFlag is the run-scoped cooperative cancellation signal. The stop
// trigger is its only writer; the coordinator and the pool workers poll it.
type StopFlag struct {
	stopped atomic.Bool
}

// Stop raises the flag. It reports true only for the call that raised it,
// so repeated stop requests are harmless.
func (s *StopFlag) Stop() bool {
	return s.stopped.CompareAndSwap(false, true)
}

func (s *StopFlag) Stopped() bool {
	return s.stopped.Load()
}

// Reset lowers the flag for a new run.
func (s *StopFlag) Reset() {
	s.stopped.Store(false)
}
