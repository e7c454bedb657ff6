package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrRepoNotFound    = errors.New("repository not found")
	ErrNotMaterialized = errors.New("repository not yet cloned")
)

// ClientError is a request the caller can correct. It carries a
// structured payload for the error response.
type ClientError struct {
	Status  int
	Message string
	Detail  string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// NewBadRequest builds a 400 ClientError with the given detail.
func NewBadRequest(format string, args ...any) *ClientError {
	return &ClientError{
		Status:  400,
		Message: "Bad Request",
		Detail:  fmt.Sprintf(format, args...),
	}
}
