package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotConnected = errors.New("session not connected")
	ErrTooManyRecipients   = errors.New("too many recipients")
	ErrTooManyActiveJobs   = errors.New("too many active bulk jobs for session")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)
