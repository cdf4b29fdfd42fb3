package openhab

import (
	"errors"
	"fmt"
)

// Sentinel errors for openHAB REST operations.
//
//	if errors.Is(err, openhab.ErrItemNotFound) {
//	    // item name is wrong in the bridge config
//	}
var (
	// ErrRequestFailed indicates a transport failure or a non-success status.
	ErrRequestFailed = errors.New("openhab: request failed")

	// ErrItemNotFound indicates openHAB answered 404 for the item.
	ErrItemNotFound = errors.New("openhab: item not found")

	// ErrUnexpectedPayload indicates a response body that could not be interpreted.
	ErrUnexpectedPayload = errors.New("openhab: unexpected payload")

	// ErrEmptyCommand indicates an attempt to send an empty command.
	ErrEmptyCommand = errors.New("openhab: empty command")
)

// StatusError carries the HTTP status of a failed request.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("openhab: %s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("openhab: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Unwrap maps 404 to ErrItemNotFound and everything else to ErrRequestFailed.
func (e *StatusError) Unwrap() error {
	if e.Status == 404 {
		return ErrItemNotFound
	}
	return ErrRequestFailed
}
