package possync

import "sync"

// Monitor owns the single authoritative online/offline flag. Platform
// reachability signals land through SetOnline; the remote adapter feeds back
// per-request outcomes through ReportFailure/ReportSuccess so a failed write
// can flip the state before any native signal arrives.
//
// Transitions are edge-triggered: subscribers only hear changes.
type Monitor struct {
	mu           sync.Mutex
	online       bool
	failedProbes int
	nextSubId    int
	subs         map[int]func(online bool)
}

func NewMonitor(initialOnline bool) *Monitor {
	return &Monitor{
		online: initialOnline,
		subs:   map[int]func(bool){},
	}
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// FailedProbes returns the count of consecutive failed reachability reports
// since the last success.
func (m *Monitor) FailedProbes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failedProbes
}

// Subscribe registers a transition listener and returns its unsubscribe
// handle. The listener runs outside the monitor lock.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSubId
	m.nextSubId++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// SetOnline applies a platform-level reachability signal.
func (m *Monitor) SetOnline(online bool) {
	m.transition(online)
}

// ReportFailure is adapter feedback for one failed remote request.
func (m *Monitor) ReportFailure() {
	m.transition(false)
}

// ReportSuccess is adapter feedback for one successful remote request.
func (m *Monitor) ReportSuccess() {
	m.transition(true)
}

func (m *Monitor) transition(online bool) {
	m.mu.Lock()
	if online {
		m.failedProbes = 0
	} else {
		m.failedProbes++
	}
	changed := m.online != online
	m.online = online

	var listeners []func(bool)
	if changed {
		listeners = make([]func(bool), 0, len(m.subs))
		for _, fn := range m.subs {
			listeners = append(listeners, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(online)
	}
}
