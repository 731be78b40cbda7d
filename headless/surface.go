package headless

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/logger"
	"github.com/kbukum/wavechat/waveform"
)

// Surface simulates playback of one handle.
type Surface struct {
	handle *audio.Handle
	prober Prober
	log    *logger.Logger

	mu        sync.Mutex
	duration  float64
	loaded    bool
	destroyed bool
	handlers  []func(waveform.Event)
	regions   []*Region

	playing   bool
	position  float64
	startedAt time.Time
	until     float64
	timer     *time.Timer
}

var _ waveform.Surface = (*Surface)(nil)

func newSurface(h *audio.Handle, prober Prober, log *logger.Logger) *Surface {
	return &Surface{handle: h, prober: prober, log: log}
}

// Load probes the duration.
func (s *Surface) Load(ctx context.Context) error {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed {
		return fmt.Errorf("surface destroyed")
	}

	d, err := s.prober.Probe(ctx, s.handle)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("surface destroyed")
	}
	s.duration = d
	s.loaded = true
	s.log.Debug("audio probed", logger.Fields(
		logger.FieldSource, s.handle.Source().Name(),
		"duration_sec", d,
	))
	return nil
}

// Duration implements waveform.Surface.
func (s *Surface) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Position returns the playhead in seconds.
func (s *Surface) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *Surface) positionLocked() float64 {
	if !s.playing {
		return s.position
	}
	p := s.position + time.Since(s.startedAt).Seconds()
	if p > s.until {
		p = s.until
	}
	return p
}

// PlayPause toggles playback from the playhead to the end of the file.
func (s *Surface) PlayPause() error {
	s.mu.Lock()
	if s.playing {
		s.mu.Unlock()
		return s.Pause()
	}
	from := s.position
	if from >= s.duration {
		from = 0
	}
	until := s.duration
	s.mu.Unlock()
	return s.Play(from, until)
}

// Play plays [start, end).
func (s *Surface) Play(start, end float64) error {
	s.mu.Lock()
	if !s.loaded || s.destroyed {
		s.mu.Unlock()
		return fmt.Errorf("surface not loaded")
	}
	if start < 0 || end > s.duration || start >= end {
		s.mu.Unlock()
		return fmt.Errorf("play range [%g, %g] outside [0, %g]", start, end, s.duration)
	}
	s.stopTimerLocked()
	s.playing = true
	s.position = start
	s.until = end
	s.startedAt = time.Now()
	s.timer = time.AfterFunc(seconds(end-start), s.reachedEnd)
	s.mu.Unlock()

	s.emit(waveform.Event{Kind: waveform.EventPlay})
	return nil
}

// Pause stops playback at the playhead.
func (s *Surface) Pause() error {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return nil
	}
	s.position = s.positionLocked()
	s.playing = false
	s.stopTimerLocked()
	s.mu.Unlock()

	s.emit(waveform.Event{Kind: waveform.EventPause})
	return nil
}

// reachedEnd fires when the playhead hits the end of the played range.
// Reaching the end of the file is a finish; stopping at a region edge
// is a region-out followed by a pause.
func (s *Surface) reachedEnd() {
	s.mu.Lock()
	if !s.playing || s.destroyed {
		s.mu.Unlock()
		return
	}
	s.playing = false
	s.position = s.until
	s.timer = nil
	atEnd := s.until >= s.duration
	var left *Region
	for _, r := range s.regions {
		if _, end := r.Bounds(); end == s.until {
			left = r
			break
		}
	}
	s.mu.Unlock()

	if left != nil {
		start, end := left.Bounds()
		s.emit(waveform.Event{Kind: waveform.EventRegionOut, Start: start, End: end})
	}
	if atEnd {
		s.emit(waveform.Event{Kind: waveform.EventFinish})
		return
	}
	s.emit(waveform.Event{Kind: waveform.EventPause})
}

// AddRegion implements waveform.Surface.
func (s *Surface) AddRegion(start, end float64) (waveform.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || s.destroyed {
		return nil, fmt.Errorf("surface not loaded")
	}
	r := &Region{surface: s, start: start, end: end}
	s.regions = append(s.regions, r)
	return r, nil
}

// On implements waveform.Surface.
func (s *Surface) On(handler func(waveform.Event)) {
	s.mu.Lock()
	s.handlers = append(s.handlers, handler)
	s.mu.Unlock()
}

// UnAll implements waveform.Surface.
func (s *Surface) UnAll() error {
	s.mu.Lock()
	s.handlers = nil
	s.mu.Unlock()
	return nil
}

// Destroy stops playback and drops the overlay.
func (s *Surface) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("surface already destroyed")
	}
	s.destroyed = true
	s.playing = false
	s.stopTimerLocked()
	s.handlers = nil
	s.regions = nil
	return nil
}

func (s *Surface) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Surface) emit(ev waveform.Event) {
	s.mu.Lock()
	handlers := append(([]func(waveform.Event))(nil), s.handlers...)
	s.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
