package debouncez

import "time"

// closeSignal identifies the path and arming a fire came from. It is checked
// against the current epoch (and idle arming) before it may close anything.
type closeSignal struct {
	reason CloseReason
	epoch  uint64
	seq    uint64 // idle arming sequence, zero for max-age signals
}

// idleTimer is the restart-on-every-item path. Each reset stops the pending
// timer and arms a new one a full timeout in the future.
type idleTimer struct {
	deadline time.Time
	clock    Clock
	timer    Timer
	timeout  time.Duration
	seq      uint64
}

func (t *idleTimer) reset() {
	t.cancel()
	t.seq++
	t.deadline = t.clock.Now().Add(t.timeout)
	t.timer = t.clock.NewTimer(t.timeout)
}

func (t *idleTimer) cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *idleTimer) armed() bool {
	return t.timer != nil
}

// C returns the fire channel of the current arming, nil when disarmed.
func (t *idleTimer) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}
	return t.timer.C()
}

// current reports whether sig came from the latest arming.
func (t *idleTimer) current(sig closeSignal) bool {
	return t.armed() && sig.seq == t.seq
}

// maxAgeTimer fires once per epoch at openedAt + maxAge and is re-armed
// by the arbiter for every new batch.
type maxAgeTimer struct {
	deadline time.Time
	clock    Clock
	timer    Timer
	maxAge   time.Duration
}

func (t *maxAgeTimer) arm(openedAt time.Time) {
	t.cancel()
	t.deadline = openedAt.Add(t.maxAge)
	wait := t.deadline.Sub(t.clock.Now())
	if wait < 0 {
		wait = 0
	}
	t.timer = t.clock.NewTimer(wait)
}

func (t *maxAgeTimer) cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// C returns the fire channel of the current arming, nil when disarmed.
func (t *maxAgeTimer) C() <-chan time.Time {
	if t.timer == nil {
		return nil
	}
	return t.timer.C()
}

// fired takes a fire already waiting on c without blocking.
func fired(c <-chan time.Time) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}
