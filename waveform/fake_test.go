package waveform

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/wavechat/audio"
)

type fakeEngine struct {
	mu        sync.Mutex
	durations map[string]float64
	autoLoad  bool
	createErr error
	configure func(*fakeSurface)
	surfaces  []*fakeSurface
}

func newFakeEngine(durations map[string]float64) *fakeEngine {
	return &fakeEngine{durations: durations}
}

func (e *fakeEngine) Create(h *audio.Handle) (Surface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.createErr != nil {
		return nil, e.createErr
	}
	s := &fakeSurface{
		name:     h.Source().Name(),
		duration: e.durations[h.Source().Name()],
		gate:     make(chan error, 1),
	}
	if e.autoLoad {
		s.gate <- nil
	}
	if e.configure != nil {
		e.configure(s)
	}
	e.surfaces = append(e.surfaces, s)
	return s, nil
}

func (e *fakeEngine) surface(i int) *fakeSurface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surfaces[i]
}

func (e *fakeEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.surfaces)
}

type fakeSurface struct {
	name string
	gate chan error

	mu           sync.Mutex
	duration     float64
	handlers     []func(Event)
	calls        []string
	regions      []*fakeRegion
	playing      bool
	panicOnPause bool
	destroyErr   error
}

func (s *fakeSurface) finishLoad(err error) { s.gate <- err }

func (s *fakeSurface) Load(ctx context.Context) error {
	select {
	case err := <-s.gate:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *fakeSurface) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *fakeSurface) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *fakeSurface) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSurface) emit(ev Event) {
	s.mu.Lock()
	handlers := append(([]func(Event))(nil), s.handlers...)
	s.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (s *fakeSurface) PlayPause() error {
	s.mu.Lock()
	s.playing = !s.playing
	playing := s.playing
	s.calls = append(s.calls, "playpause")
	s.mu.Unlock()
	if playing {
		s.emit(Event{Kind: EventPlay})
	} else {
		s.emit(Event{Kind: EventPause})
	}
	return nil
}

func (s *fakeSurface) Play(start, end float64) error {
	s.mu.Lock()
	s.playing = true
	s.calls = append(s.calls, fmt.Sprintf("play %g %g", start, end))
	s.mu.Unlock()
	s.emit(Event{Kind: EventPlay})
	return nil
}

func (s *fakeSurface) Pause() error {
	s.record("pause")
	s.mu.Lock()
	panicking := s.panicOnPause
	s.playing = false
	s.mu.Unlock()
	if panicking {
		panic("pause on a dead media element")
	}
	s.emit(Event{Kind: EventPause})
	return nil
}

func (s *fakeSurface) AddRegion(start, end float64) (Region, error) {
	r := &fakeRegion{surface: s, start: start, end: end}
	s.mu.Lock()
	s.regions = append(s.regions, r)
	s.mu.Unlock()
	return r, nil
}

func (s *fakeSurface) regionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions)
}

func (s *fakeSurface) region() *fakeRegion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regions[0]
}

func (s *fakeSurface) On(handler func(Event)) {
	s.mu.Lock()
	s.handlers = append(s.handlers, handler)
	s.mu.Unlock()
}

func (s *fakeSurface) UnAll() error {
	s.record("unall")
	s.mu.Lock()
	s.handlers = nil
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) Destroy() error {
	s.record("destroy")
	return s.destroyErr
}

type fakeRegion struct {
	surface *fakeSurface

	mu         sync.Mutex
	start, end float64
}

func (r *fakeRegion) Bounds() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.start, r.end
}

func (r *fakeRegion) SetBounds(start, end float64) error {
	r.mu.Lock()
	r.start, r.end = start, end
	r.mu.Unlock()
	return nil
}

// drag simulates the user moving the overlay.
func (r *fakeRegion) drag(start, end float64) {
	r.SetBounds(start, end)
	r.surface.emit(Event{Kind: EventRegionUpdated, Start: start, End: end})
}
