package chipset

import "time"

// timerHandle is a cancellable scheduled callback. Only channel 0 ever
// holds one at a time.
type timerHandle interface {
	Stop()
}

type timerHandleFunc func()

func (f timerHandleFunc) Stop() {
	if f != nil {
		f()
	}
}

// timerFactory arms a one-shot callback after d elapses. The scheduler
// always rearms from the newly predicted transition rather than relying
// on a recurring ticker, so one-shot is all it ever needs.
type timerFactory func(d time.Duration, cb func()) timerHandle

func defaultTimerFactory(d time.Duration, cb func()) timerHandle {
	if d <= 0 || cb == nil {
		return nil
	}
	t := time.AfterFunc(d, cb)
	return timerHandleFunc(func() { t.Stop() })
}
