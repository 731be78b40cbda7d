package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/wavechat/component"
	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/logger"
)

// Registry issues playable handles and tracks the ones not yet released.
type Registry struct {
	mu   sync.Mutex
	live map[string]*Handle
	log  *logger.Logger
}

var _ component.Component = (*Registry)(nil)

// NewRegistry creates an empty handle registry.
func NewRegistry() *Registry {
	return &Registry{
		live: make(map[string]*Handle),
		log:  logger.WithComponent("audio"),
	}
}

// Acquire derives a new playable handle from src.
func (r *Registry) Acquire(src Source) (*Handle, error) {
	if src == nil {
		return nil, errors.InvalidInput("source", "source is required")
	}
	h := &Handle{id: uuid.NewString(), src: src, reg: r}

	r.mu.Lock()
	r.live[h.id] = h
	r.mu.Unlock()

	r.log.Debug("handle acquired", logger.Fields("handle", h.id, logger.FieldSource, src.Name()))
	return h, nil
}

// Live returns the number of handles acquired and not yet released.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

func (r *Registry) forget(id string) {
	r.mu.Lock()
	delete(r.live, id)
	r.mu.Unlock()
	r.log.Debug("handle released", logger.Fields("handle", id))
}

// Name implements component.Component.
func (r *Registry) Name() string { return "audio" }

// Start implements component.Component.
func (r *Registry) Start(context.Context) error { return nil }

// Stop releases any handle still live and reports it as a leak.
func (r *Registry) Stop(context.Context) error {
	r.mu.Lock()
	leaked := make([]*Handle, 0, len(r.live))
	for _, h := range r.live {
		leaked = append(leaked, h)
	}
	r.mu.Unlock()

	for _, h := range leaked {
		h.Release()
	}
	if len(leaked) > 0 {
		r.log.Warn("released leaked handles", logger.Fields("count", len(leaked)))
	}
	return nil
}

// Health reports degraded while more than one handle is live, since a
// single controller never needs two.
func (r *Registry) Health(context.Context) component.Health {
	n := r.Live()
	h := component.Health{Name: r.Name(), Status: component.StatusHealthy}
	if n > 1 {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("%d live handles", n)
	}
	return h
}

// Describe implements component.Describable.
func (r *Registry) Describe() component.Description {
	return component.Description{Type: "audio", Details: fmt.Sprintf("%d live handles", r.Live())}
}
