package httpclient

import (
	"context"
	"sync"

	"github.com/kbukum/wavechat/component"
)

// Component wraps a Client with lifecycle management. The client is built
// in Start so configuration errors surface through the registry.
type Component struct {
	config Config
	opts   []Option

	mu     sync.RWMutex
	client *Client
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new HTTP client component.
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.config.Name == "" {
		return "http"
	}
	return c.config.Name
}

// Start builds the client.
func (c *Component) Start(_ context.Context) error {
	cl, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.client = cl
	c.mu.Unlock()
	return nil
}

// Stop drops idle connections held by the client.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.httpClient.CloseIdleConnections()
		c.client = nil
	}
	return nil
}

// Health reports whether the client has been started.
func (c *Component) Health(_ context.Context) component.Health {
	status := component.StatusHealthy
	if c.Client() == nil {
		status = component.StatusUnhealthy
	}
	return component.Health{Name: c.Name(), Status: status}
}

// Describe returns the component description for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-client",
		Details: c.config.BaseURL,
	}
}

// Client returns the underlying client, or nil before Start.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
