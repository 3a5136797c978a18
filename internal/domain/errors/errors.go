package errors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrMalformedPayload   = errors.New("malformed payment payload")
	ErrIgnoredEvent       = errors.New("ignored event type")
	ErrInvalidOrderState  = errors.New("invalid order state")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidInterval    = errors.New("invalid billing interval")
	ErrMissingIdentity    = errors.New("order requires user uuid or email")
)
