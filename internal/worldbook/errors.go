package worldbook

import (
	"errors"

	"personamcp/internal/source"
)

// Error kinds. Every failure returned by this package wraps exactly one of
// them; test with errors.Is.
var (
	// ErrSourceUnavailable: the backing document could not be read.
	ErrSourceUnavailable = source.ErrUnavailable
	// ErrMalformedDocument: the document was read but is not {"entries": [...]}
	// with distinct, non-empty entry ids.
	ErrMalformedDocument = errors.New("malformed worldbook document")
	// ErrEntryNotFound: no entry has the requested id.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrMissingArgument: a required argument is absent or has the wrong type.
	ErrMissingArgument = errors.New("missing argument")
	// ErrUnknownOperation: the dispatcher was asked for an operation it does not implement.
	ErrUnknownOperation = errors.New("unknown operation")
)
