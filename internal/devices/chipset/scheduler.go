package chipset

import "time"

// rescheduleChannel0Locked is the channel-0 IRQ scheduler: a pure
// function of channel 0's state, current_time, and the IRQ line. It runs
// after every event that can change channel 0's OUT trajectory — a count
// load, a gate rising edge, a host-timer expiry, an HPET re-enable, or a
// reset — and does exactly five things: predict the next transition,
// read the current OUT level, assert that level on the IRQ line,
// remember the prediction, and arm (or cancel) the one-shot host timer
// for it. Called with p.mu held.
func (p *PIT) rescheduleChannel0Locked(now int64) {
	ch := p.channels[0]
	if ch.timer != nil {
		ch.timer.Stop()
		ch.timer = nil
	}

	expire, ok := ch.nextTransitionTimeAt(now)
	out := ch.getOut(now)

	if p.irq != nil {
		p.irq.SetIRQ(p.irqLine, out)
	}

	ch.hasNextTransition = ok
	if !ok {
		ch.nextTransitionTime = 0
		return
	}
	ch.nextTransitionTime = expire

	d := time.Duration(expire - now)
	ch.timer = p.timerFactory(d, func() { p.onChannel0Timer(expire) })
}

// onChannel0Timer fires when a previously armed channel-0 transition
// deadline elapses. It reruns the scheduler using the deadline it was
// armed for as current_time (not wall-clock "now"), so a delayed
// callback does not compound phase drift into the next period.
func (p *PIT) onChannel0Timer(transitionTime int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := p.channels[0]
	if ch.timer == nil {
		return
	}
	ch.timer = nil

	p.rescheduleChannel0Locked(transitionTime)
}
