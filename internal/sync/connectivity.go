package sync

import (
	"sync"

	"github.com/perbakken/clubtrack/backend/internal/logging"
)

// ConnectivityMonitor tracks the environment's online/offline state and
// notifies subscribers of transitions. The hosting platform reports state
// changes via SetOnline; the coordinator subscribes so an offline-to-online
// transition triggers an immediate sync pass.
type ConnectivityMonitor struct {
	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	nextID int
}

// NewConnectivityMonitor creates a monitor with the given initial state.
func NewConnectivityMonitor(online bool) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		online: online,
		subs:   make(map[int]chan bool),
	}
}

// IsOnline returns the current connectivity state.
func (m *ConnectivityMonitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// SetOnline records a connectivity change reported by the environment and
// notifies subscribers. Repeated reports of the same state are ignored.
func (m *ConnectivityMonitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]chan bool, 0, len(m.subs))
	for _, ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.Unlock()

	logging.Info("Connectivity changed", map[string]interface{}{"online": online})

	for _, ch := range subs {
		select {
		case ch <- online:
		default:
			// Subscriber is not keeping up; drop rather than block the
			// platform's connectivity callback.
		}
	}
}

// Subscribe registers for connectivity transitions. The returned channel
// receives the new state on each change; the id unregisters it.
func (m *ConnectivityMonitor) Subscribe() (int, <-chan bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 4)
	m.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (m *ConnectivityMonitor) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, id)
}
