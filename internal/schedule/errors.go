package schedule

import "errors"

var (
	ErrDateNotFound    = errors.New("date not found in schedule")
	ErrCabinetNotFound = errors.New("cabinet not found")
	ErrShiftNotFound   = errors.New("shift not found")
	ErrVisitNotFound   = errors.New("visit not found")
	ErrOutsideShift    = errors.New("time range is outside of the shift")
	ErrNoData          = errors.New("schedule not loaded")
)

// ValidationError carries per-field messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for f, msg := range e.Fields {
			return "validation failed: " + f + ": " + msg
		}
	}
	return "validation failed"
}
