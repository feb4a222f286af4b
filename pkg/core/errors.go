package core

import "errors"

// Error taxonomy. Every failure raised inside the pipeline wraps one of these.
var (
	// ErrConfigurationMissing means a template source id or relation entry is absent.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrEntityNotFound means a table or row expected to exist is absent.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrUnsupportedColumnKind means the store cannot create the column kind.
	ErrUnsupportedColumnKind = errors.New("unsupported column kind")

	// ErrRemoteCall means a network or API call to the store failed.
	ErrRemoteCall = errors.New("remote call failed")
)
