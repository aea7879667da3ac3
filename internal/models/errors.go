package models

import "errors"

// Error taxonomy. Components wrap their failures with one of these so callers
// can decide with errors.Is whether a failure is fatal.
var (
	ErrTransport      = errors.New("transport error")
	ErrClassification = errors.New("classification error")
	ErrPersistence    = errors.New("persistence error")
	ErrConfiguration  = errors.New("configuration error")
)
