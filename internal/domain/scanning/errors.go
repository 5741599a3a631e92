package scanning

import "errors"

// Domain errors translated into HTTP status codes at the API boundary.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrTargetNotFound   = errors.New("target not found")
	ErrRunNotFound      = errors.New("run not found")
	ErrFindingNotFound  = errors.New("finding not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrTargetUnverified = errors.New("target is not verified")
	ErrQuotaExceeded    = errors.New("run quota exceeded")
)
