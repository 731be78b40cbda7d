package waveform

import (
	"context"

	"github.com/kbukum/wavechat/audio"
)

// EventKind names a surface or region event.
type EventKind string

const (
	EventPlay          EventKind = "play"
	EventPause         EventKind = "pause"
	EventFinish        EventKind = "finish"
	EventRegionUpdated EventKind = "region-updated"
	EventRegionOut     EventKind = "region-out"
)

// Event is emitted by a Surface. Start and End are set for region events.
type Event struct {
	Kind  EventKind
	Start float64
	End   float64
}

// Engine builds rendering surfaces. One surface is built per playable handle.
type Engine interface {
	Create(h *audio.Handle) (Surface, error)
}

// Surface renders and plays one audio handle. Methods are only called from
// the controller's loop goroutine; Load is the exception and runs on its own
// goroutine.
type Surface interface {
	// Load decodes the audio. It blocks until the surface is ready or fails.
	Load(ctx context.Context) error
	// Duration is the decoded length in seconds, valid after Load.
	Duration() float64
	PlayPause() error
	Play(start, end float64) error
	Pause() error
	// AddRegion creates the draggable overlay.
	AddRegion(start, end float64) (Region, error)
	// On registers an event handler. Handlers may be called from any goroutine.
	On(handler func(Event))
	// UnAll removes every registered handler.
	UnAll() error
	Destroy() error
}

// Region is the draggable, resizable overlay on a surface.
type Region interface {
	Bounds() (start, end float64)
	// SetBounds moves the overlay without emitting region events.
	SetBounds(start, end float64) error
}
