// Package waveform owns the rendering surface for the current audio source
// and keeps the selection model in step with its region overlay.
//
// All state lives on a single loop goroutine. Public methods and surface
// callbacks only enqueue work, so they never block on the surface and a
// callback fired from inside a surface call cannot re-enter the controller.
package waveform

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/component"
	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/logger"
	"github.com/kbukum/wavechat/observability"
	"github.com/kbukum/wavechat/selection"
)

// MaxDefaultSelection caps the selection seeded when audio becomes ready.
const MaxDefaultSelection = 600.0

// ErrStopped is returned by Flush once the controller has stopped.
var ErrStopped = errors.New(errors.ErrCodeInternal, "waveform controller stopped", 0)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMaxDefaultSelection overrides MaxDefaultSelection.
func WithMaxDefaultSelection(sec float64) Option {
	return func(c *Controller) { c.maxDefault = sec }
}

// WithStatusListener registers fn to receive every status change. fn runs
// on the loop goroutine and must not block.
func WithStatusListener(fn func(Status)) Option {
	return func(c *Controller) { c.statusListeners = append(c.statusListeners, fn) }
}

// Controller drives one rendering surface at a time through
// Empty -> Loading -> Ready.
type Controller struct {
	engine     Engine
	handles    *audio.Registry
	model      *selection.Model
	log        *logger.Logger
	maxDefault float64

	box       *mailbox
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopped   atomic.Bool

	statusMu        sync.RWMutex
	status          Status
	statusListeners []func(Status)

	// owned by the loop goroutine
	state      State
	source     audio.Source
	current    *lifecycle
	generation uint64
	playing    bool
	duration   float64
	loadErr    error
	exiting    bool

	// loadHook observes every load outcome once it reaches the loop.
	loadHook func(generation uint64, err error)
}

var _ component.Component = (*Controller)(nil)

// New creates a controller. handles issues playable handles, model receives
// the selection.
func New(engine Engine, handles *audio.Registry, model *selection.Model, opts ...Option) *Controller {
	c := &Controller{
		engine:     engine,
		handles:    handles,
		model:      model,
		log:        logger.WithComponent("waveform"),
		maxDefault: MaxDefaultSelection,
		box:        newMailbox(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements component.Component.
func (c *Controller) Name() string { return "waveform" }

// Start launches the loop goroutine.
func (c *Controller) Start(context.Context) error {
	if c.stopped.Load() {
		return ErrStopped
	}
	c.startOnce.Do(func() {
		c.started.Store(true)
		go c.run()
	})
	return nil
}

// Stop tears down the current lifecycle and ends the loop. It waits for the
// loop to exit or ctx to end.
func (c *Controller) Stop(ctx context.Context) error {
	var wait bool
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		if !c.started.Load() {
			c.box.close()
			return
		}
		wait = c.box.post(func() {
			c.unmount("stop")
			c.exiting = true
		})
	})
	if !wait {
		return nil
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports degraded while the current source failed to load.
func (c *Controller) Health(context.Context) component.Health {
	st := c.Status()
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: st.State.String()}
	if st.LoadErr != nil {
		h.Status = component.StatusDegraded
		h.Message = st.LoadErr.Error()
	}
	return h
}

// Describe implements component.Describable.
func (c *Controller) Describe() component.Description {
	return component.Description{
		Type:    "waveform",
		Details: fmt.Sprintf("default selection up to %gs", c.maxDefault),
	}
}

// Status returns the latest status snapshot.
func (c *Controller) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// SetSource replaces the audio source. A nil source unmounts to Empty.
func (c *Controller) SetSource(src audio.Source) {
	c.box.post(func() { c.setSource(src) })
}

// Retry rebuilds the surface from the current source.
func (c *Controller) Retry() {
	c.box.post(func() {
		if c.source == nil {
			return
		}
		c.setSource(c.source)
	})
}

// Teardown releases the current surface and returns to Empty. The loop
// keeps running; a later SetSource starts over.
func (c *Controller) Teardown() {
	c.box.post(func() { c.unmount("teardown") })
}

// TogglePlay plays or pauses the whole file.
func (c *Controller) TogglePlay() {
	c.box.post(func() {
		lc := c.readyLifecycle()
		if lc == nil {
			return
		}
		if err := lc.surface.PlayPause(); err != nil {
			c.log.Warn("play/pause failed", logger.ErrorFields("toggle_play", err))
		}
	})
}

// PlayRegion plays the span under the region overlay.
func (c *Controller) PlayRegion() {
	c.box.post(func() {
		lc := c.readyLifecycle()
		if lc == nil || lc.region == nil {
			return
		}
		start, end := lc.region.Bounds()
		if err := lc.surface.Play(start, end); err != nil {
			c.log.Warn("play region failed", logger.ErrorFields("play_region", err))
		}
	})
}

// SelectFull stretches the overlay over the whole file and selects it.
func (c *Controller) SelectFull() {
	c.box.post(func() {
		lc := c.readyLifecycle()
		if lc == nil || lc.region == nil {
			return
		}
		dur := lc.surface.Duration()
		if err := lc.region.SetBounds(0, dur); err != nil {
			c.log.Warn("select full failed", logger.ErrorFields("select_full", err))
			return
		}
		c.commit(lc, selection.Full(dur))
	})
}

// MoveRegion shifts the overlay edges by the given deltas, the way a drag
// (equal deltas) or a resize (one delta) would.
func (c *Controller) MoveRegion(deltaStart, deltaEnd float64) {
	c.box.post(func() {
		lc := c.readyLifecycle()
		if lc == nil || lc.region == nil {
			return
		}
		start, end := lc.region.Bounds()
		if err := lc.region.SetBounds(start+deltaStart, end+deltaEnd); err != nil {
			c.log.Warn("move region failed", logger.ErrorFields("move_region", err))
			return
		}
		c.pushRegion(lc)
	})
}

// Flush waits until everything posted before it has been handled.
func (c *Controller) Flush(ctx context.Context) error {
	reached := make(chan struct{})
	if !c.box.post(func() { close(reached) }) {
		return ErrStopped
	}
	select {
	case <-reached:
		return nil
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for range c.box.signal {
		for {
			fn, ok := c.box.next()
			if !ok {
				break
			}
			fn()
			c.publish()
			if c.exiting {
				c.box.close()
				return
			}
		}
	}
}

func (c *Controller) post(fn func()) {
	c.box.post(fn)
}

func (c *Controller) setSource(src audio.Source) {
	if src == nil {
		c.unmount("source cleared")
		return
	}

	h, err := c.handles.Acquire(src)
	if err != nil {
		c.unmount("source rejected")
		c.log.Warn("cannot acquire audio handle", logger.ErrorFields("set_source", err))
		return
	}

	c.teardown(c.current, "source changed")
	c.current = nil
	c.model.Clear()
	c.source = src
	c.playing = false
	c.duration = 0
	c.loadErr = nil
	c.state = StateLoading

	c.generation++
	lc := &lifecycle{generation: c.generation, source: src, handle: h}
	c.current = lc

	surface, err := c.engine.Create(h)
	if err != nil {
		c.fail(lc, err)
		return
	}
	lc.surface = surface
	surface.On(func(ev Event) {
		c.post(func() { c.handleEvent(lc, ev) })
	})

	c.log.Debug("loading audio", logger.Fields(
		"generation", lc.generation,
		logger.FieldSource, src.Name(),
		"handle", h.URL(),
	))
	go c.load(lc)
}

func (c *Controller) unmount(reason string) {
	c.teardown(c.current, reason)
	c.current = nil
	c.model.Clear()
	c.source = nil
	c.playing = false
	c.duration = 0
	c.loadErr = nil
	c.state = StateEmpty
}

// load runs off the loop and reports back through the mailbox.
func (c *Controller) load(lc *lifecycle) {
	ctx, span := observability.StartSpan(context.Background(), observability.SpanLoad)
	observability.SetSpanAttribute(ctx, observability.AttrSource, lc.sourceName())
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("surface load panicked: %v", r)
			}
		}()
		return lc.surface.Load(ctx)
	}()

	observability.SetSpanError(ctx, err)
	span.End()

	c.post(func() { c.loadCompleted(lc, err, time.Since(start)) })
}

func (c *Controller) loadCompleted(lc *lifecycle, loadErr error, took time.Duration) {
	if c.loadHook != nil {
		defer c.loadHook(lc.generation, loadErr)
	}

	if lc != c.current || lc.aborted {
		aborted := errors.LoadAborted(lc.sourceName())
		if loadErr != nil {
			aborted = aborted.WithCause(loadErr)
		}
		c.log.Debug("load result discarded", logger.Fields(
			"generation", lc.generation,
			logger.FieldError, aborted.Error(),
		))
		return
	}
	if loadErr != nil {
		c.fail(lc, loadErr)
		return
	}

	dur := lc.surface.Duration()
	if math.IsNaN(dur) || math.IsInf(dur, 0) || dur <= 0 {
		c.fail(lc, fmt.Errorf("surface reported duration %v", dur))
		return
	}
	c.enterReady(lc, dur, took)
}

// enterReady seeds the default selection and builds the overlay. It runs
// once per lifecycle.
func (c *Controller) enterReady(lc *lifecycle, dur float64, took time.Duration) {
	if lc.ready {
		return
	}
	end := math.Min(dur, c.maxDefault)
	region, err := lc.surface.AddRegion(0, end)
	if err != nil {
		c.fail(lc, fmt.Errorf("add region: %w", err))
		return
	}
	lc.region = region
	lc.ready = true
	c.duration = dur
	c.state = StateReady

	c.log.Info("audio ready", logger.Fields(
		"generation", lc.generation,
		logger.FieldSource, lc.sourceName(),
		logger.FieldState, c.state.String(),
		"duration_sec", dur,
		logger.FieldDuration, took.Milliseconds(),
	))
	c.commit(lc, selection.Selection{StartSec: 0, EndSec: end, DurationSec: dur})
}

func (c *Controller) fail(lc *lifecycle, cause error) {
	c.loadErr = errors.LoadFailed(lc.sourceName(), cause)
	c.log.Warn("audio load failed", logger.Fields(
		"generation", lc.generation,
		logger.FieldSource, lc.sourceName(),
		logger.FieldState, c.state.String(),
		logger.FieldError, cause.Error(),
	))
}

func (c *Controller) handleEvent(lc *lifecycle, ev Event) {
	if lc != c.current || lc.aborted {
		return
	}
	switch ev.Kind {
	case EventPlay:
		c.playing = true
	case EventPause, EventFinish:
		c.playing = false
	case EventRegionUpdated, EventRegionOut:
		if lc.ready && lc.region != nil {
			c.pushRegion(lc)
		}
	}
}

// pushRegion commits the overlay bounds with the duration read from the
// live surface.
func (c *Controller) pushRegion(lc *lifecycle) {
	start, end := lc.region.Bounds()
	c.commit(lc, selection.Selection{StartSec: start, EndSec: end, DurationSec: lc.surface.Duration()})
}

// commit sets the selection. A rejected value snaps the overlay back to the
// last accepted selection.
func (c *Controller) commit(lc *lifecycle, sel selection.Selection) {
	err := c.model.Set(sel)
	if err == nil {
		return
	}
	c.log.Warn("selection rejected", logger.Fields(
		"selection", sel.String(),
		logger.FieldError, err.Error(),
	))
	if prev, ok := c.model.Current(); ok && lc.region != nil {
		if err := lc.region.SetBounds(prev.StartSec, prev.EndSec); err != nil {
			c.log.Warn("overlay snap back failed", logger.ErrorFields("snap_back", err))
		}
	}
}

func (c *Controller) readyLifecycle() *lifecycle {
	if c.state != StateReady || c.current == nil || !c.current.ready {
		return nil
	}
	return c.current
}

func (c *Controller) publish() {
	next := Status{
		State:      c.state,
		Duration:   c.duration,
		Playing:    c.playing,
		LoadErr:    c.loadErr,
		Generation: c.generation,
	}
	if c.source != nil {
		next.Source = c.source.Name()
	}

	c.statusMu.Lock()
	changed := next != c.status
	c.status = next
	c.statusMu.Unlock()

	if changed {
		for _, fn := range c.statusListeners {
			fn(next)
		}
	}
}
