// Package selection holds the authoritative time-range selection over the
// loaded audio and notifies listeners whenever it changes.
package selection

import (
	"fmt"

	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/validation"
)

// Selection is a time range within an audio file, in seconds.
// A valid selection satisfies 0 <= StartSec < EndSec <= DurationSec.
type Selection struct {
	StartSec    float64 `json:"startSec" validate:"gte=0"`
	EndSec      float64 `json:"endSec" validate:"gtfield=StartSec"`
	DurationSec float64 `json:"durationSec" validate:"gtefield=EndSec"`
}

// Full returns the selection covering the whole file.
func Full(durationSec float64) Selection {
	return Selection{StartSec: 0, EndSec: durationSec, DurationSec: durationSec}
}

// Length returns EndSec - StartSec.
func (s Selection) Length() float64 {
	return s.EndSec - s.StartSec
}

// String renders the selection for logs and the status line.
func (s Selection) String() string {
	return fmt.Sprintf("[%.2fs, %.2fs] of %.2fs", s.StartSec, s.EndSec, s.DurationSec)
}

// Validate checks the selection invariant and returns InvalidSelection
// describing every violated bound.
func (s Selection) Validate() error {
	v := validation.New().
		Finite("startSec", s.StartSec).
		Finite("endSec", s.EndSec).
		Finite("durationSec", s.DurationSec)
	if v.HasErrors() {
		return errors.InvalidSelection(v.Message())
	}
	if err := validation.Validate(s); err != nil {
		msg := err.Error()
		if appErr, ok := errors.AsAppError(err); ok {
			msg = appErr.Message
		}
		return errors.InvalidSelection(msg).WithCause(err)
	}
	return nil
}
