package selection

import (
	"sync"

	"github.com/kbukum/wavechat/logger"
)

// Listener receives every accepted selection. Listeners run synchronously
// on the goroutine that called Set and must not call Set themselves.
type Listener func(Selection)

type subscription struct {
	id int
	fn Listener
}

// Model owns the current selection. Set is the only way to change it.
type Model struct {
	// setMu serializes commit+notify so listeners see commits in order.
	setMu sync.Mutex

	mu        sync.RWMutex
	current   Selection
	has       bool
	listeners []subscription
	nextID    int

	log *logger.Logger
}

// NewModel creates an empty selection model.
func NewModel() *Model {
	return &Model{log: logger.WithComponent("selection")}
}

// Current returns the current selection, if any.
func (m *Model) Current() (Selection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.has
}

// Set validates next, commits it and notifies every listener in
// subscription order. An invalid selection is rejected with
// InvalidSelection and the previous one stays in place.
func (m *Model) Set(next Selection) error {
	if err := next.Validate(); err != nil {
		m.log.Debug("selection rejected", logger.Fields(
			"selection", next.String(),
			logger.FieldError, err.Error(),
		))
		return err
	}

	m.setMu.Lock()
	defer m.setMu.Unlock()

	m.mu.Lock()
	m.current = next
	m.has = true
	listeners := make([]Listener, len(m.listeners))
	for i, s := range m.listeners {
		listeners[i] = s.fn
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return nil
}

// Clear drops the current selection without notifying listeners.
func (m *Model) Clear() {
	m.setMu.Lock()
	defer m.setMu.Unlock()

	m.mu.Lock()
	m.current = Selection{}
	m.has = false
	m.mu.Unlock()
}

// Subscribe registers l and returns a function that removes it.
func (m *Model) Subscribe(l Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, subscription{id: id, fn: l})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.listeners {
				if s.id == id {
					m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
