package waveform

import (
	"fmt"

	"github.com/kbukum/wavechat/logger"
)

// teardown releases everything lc holds. Each step runs on its own so a
// failing step never skips the next one. Safe on partial or repeated calls.
func (c *Controller) teardown(lc *lifecycle, reason string) {
	if lc == nil || lc.tornDown {
		return
	}
	lc.tornDown = true
	lc.aborted = true

	c.step(lc, "release handle", func() error {
		if lc.handle != nil {
			lc.handle.Release()
		}
		return nil
	})
	if lc.surface != nil {
		c.step(lc, "pause", lc.surface.Pause)
		c.step(lc, "detach events", lc.surface.UnAll)
		c.step(lc, "destroy surface", lc.surface.Destroy)
	}
	lc.region = nil

	c.log.Debug("lifecycle torn down", logger.Fields(
		"generation", lc.generation,
		logger.FieldSource, lc.sourceName(),
		"reason", reason,
	))
}

// step runs one teardown step, absorbing both errors and panics.
func (c *Controller) step(lc *lifecycle, name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("teardown step panicked", logger.Fields(
				"step", name,
				"generation", lc.generation,
				logger.FieldError, fmt.Sprint(r),
			))
		}
	}()
	if err := fn(); err != nil {
		c.log.Debug("teardown step failed", logger.Fields(
			"step", name,
			"generation", lc.generation,
			logger.FieldError, err.Error(),
		))
	}
}
