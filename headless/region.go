package headless

import (
	"sync"

	"github.com/kbukum/wavechat/waveform"
)

// Region is the overlay state on a headless surface.
type Region struct {
	surface *Surface

	mu         sync.Mutex
	start, end float64
}

var _ waveform.Region = (*Region)(nil)

// Bounds implements waveform.Region.
func (r *Region) Bounds() (float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.start, r.end
}

// SetBounds moves the overlay silently.
func (r *Region) SetBounds(start, end float64) error {
	r.mu.Lock()
	r.start, r.end = start, end
	r.mu.Unlock()
	return nil
}

// Drag moves the overlay as a user would and emits region-updated.
func (r *Region) Drag(start, end float64) {
	_ = r.SetBounds(start, end)
	r.surface.emit(waveform.Event{Kind: waveform.EventRegionUpdated, Start: start, End: end})
}
