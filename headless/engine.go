// Package headless is a rendering engine with no display: durations come
// from ffprobe, playback is simulated on the wall clock and the region
// overlay is plain state. It lets the waveform controller run in a
// terminal and in tests.
package headless

import (
	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/logger"
	"github.com/kbukum/wavechat/waveform"
)

// Engine builds headless surfaces.
type Engine struct {
	prober Prober
	log    *logger.Logger
}

var _ waveform.Engine = (*Engine)(nil)

// New creates an engine that probes durations with prober.
func New(prober Prober) *Engine {
	return &Engine{prober: prober, log: logger.WithComponent("headless")}
}

// Create implements waveform.Engine.
func (e *Engine) Create(h *audio.Handle) (waveform.Surface, error) {
	return newSurface(h, e.prober, e.log), nil
}
