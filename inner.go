package canopy

import (
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

type observer struct {
	id uint64
	fn func(domain.InnerChange)
}

// innerWidgets tracks embedded foreign widgets. It is kept apart from Widget so that a
// Layout holding it as its sink does not keep the Widget reachable.
type innerWidgets struct {
	mu        sync.Mutex
	ids       []string
	observers []observer
	next      uint64
	closed    bool
}

func newInnerWidgets() *innerWidgets {
	return &innerWidgets{}
}

func (s *innerWidgets) AddInner(widgetID string) {
	s.mu.Lock()
	if slices.Contains(s.ids, widgetID) {
		s.mu.Unlock()
		return
	}
	s.ids = append(s.ids, widgetID)
	obs := slices.Clone(s.observers)
	s.mu.Unlock()

	notify(obs, domain.InnerChange{WidgetID: widgetID, Added: true})
}

func (s *innerWidgets) RemoveInner(widgetID string) {
	s.mu.Lock()
	i := slices.Index(s.ids, widgetID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.ids = slices.Delete(s.ids, i, i+1)
	obs := slices.Clone(s.observers)
	s.mu.Unlock()

	notify(obs, domain.InnerChange{WidgetID: widgetID, Added: false})
}

func notify(obs []observer, change domain.InnerChange) {
	for _, o := range obs {
		o.fn(change)
	}
}

func (s *innerWidgets) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ids)
}

func (s *innerWidgets) observe(fn func(domain.InnerChange)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || fn == nil {
		return func() {}
	}
	s.next++
	id := s.next
	s.observers = append(s.observers, observer{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.observers = slices.DeleteFunc(s.observers, func(o observer) bool { return o.id == id })
		})
	}
}

func (s *innerWidgets) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.observers = nil
}
