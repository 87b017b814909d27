package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP status codes; callers test them with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)
