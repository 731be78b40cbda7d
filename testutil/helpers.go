package testutil

import (
	"context"
	"time"

	"github.com/kbukum/wavechat/component"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Cleanup(func())
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// THelper provides testing.T integration for component setup.
type THelper struct {
	t   TB
	ctx context.Context
}

// T wraps a testing.T to provide helper methods.
//
//	func TestController(t *testing.T) {
//	    testutil.T(t).Setup(ctrl)
//	    // ctrl is stopped when the test ends
//	}
func T(t TB) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets a custom context for the helper.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts c and registers its Stop with t.Cleanup.
func (h *THelper) Setup(c component.Component) {
	h.t.Helper()
	if err := c.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start component %s: %v", c.Name(), err)
		return
	}
	h.t.Cleanup(func() {
		if err := c.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop component %s: %v", c.Name(), err)
		}
	})
}

// Eventually polls cond every 5ms until it returns true or timeout elapses.
func (h *THelper) Eventually(timeout time.Duration, cond func() bool, msg string) {
	h.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("condition not met within %v: %s", timeout, msg)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Context returns a context that is canceled when the test ends.
func (h *THelper) Context() context.Context {
	ctx, cancel := context.WithCancel(h.ctx)
	h.t.Cleanup(cancel)
	return ctx
}
