package research

import "errors"

// Stage sentinels. A failed run's error matches exactly one of these via
// errors.Is and also wraps the collaborator's cause.
var (
	ErrPlanning   = errors.New("planning failed")
	ErrSearchTask = errors.New("search task failed")
	ErrWriting    = errors.New("report writing failed")
	ErrNotify     = errors.New("notification failed")
	ErrCanceled   = errors.New("research run canceled")
)
