// Package validation provides input validation for wavechat values.
//
// It supports both struct tag validation (using the go-playground validator)
// and programmatic validation with error collection. Both produce an
// *errors.AppError with per-field details.
//
// # Struct Tag Validation
//
//	type Range struct {
//	    StartSec float64 `json:"startSec" validate:"gte=0"`
//	    EndSec   float64 `json:"endSec" validate:"gtfield=StartSec"`
//	}
//	err := validation.Validate(r)
//
// # Programmatic Validation
//
//	v := validation.New().Required("sessionId", id).Finite("startSec", start)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
