package audio

import (
	"io"
	"sync"

	"github.com/kbukum/wavechat/errors"
)

// Handle is a playable reference derived from a Source. Whoever acquired it
// must Release it exactly once; further calls are no-ops.
type Handle struct {
	id  string
	src Source
	reg *Registry

	mu       sync.Mutex
	released bool
}

// ID returns the handle identifier.
func (h *Handle) ID() string { return h.id }

// Source returns the source the handle was derived from.
func (h *Handle) Source() Source { return h.src }

// URL returns an opaque locator for the handle, suitable for logs.
func (h *Handle) URL() string { return "blob:wavechat/" + h.id }

// Open reads the underlying audio. A released handle refuses.
func (h *Handle) Open() (io.ReadCloser, error) {
	h.mu.Lock()
	released := h.released
	h.mu.Unlock()
	if released {
		return nil, errors.InvalidInput("handle", "handle "+h.id+" was released")
	}
	return h.src.Open()
}

// Release frees the handle. Safe to call more than once.
func (h *Handle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.mu.Unlock()
	if h.reg != nil {
		h.reg.forget(h.id)
	}
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
