package application

import "errors"

var (
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrAlreadyStarted        = errors.New("recognizer already started")
)
