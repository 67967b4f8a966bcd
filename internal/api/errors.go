// Package api serves the backend over HTTP and provides a client that
// implements the same operations.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/store"
)

// ErrIncompatibleServer means the server's major version differs from the
// client's.
var ErrIncompatibleServer = errors.New("api: incompatible server version")

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	// Kind is the machine-readable error from the body, when present.
	Kind string
	Body string
}

func (e *StatusError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("api: %d %s", e.Code, e.Kind)
	}
	return fmt.Sprintf("api: %d %s", e.Code, http.StatusText(e.Code))
}

// Is lets callers match a remote failure against the same sentinels the
// local backend returns.
func (e *StatusError) Is(target error) bool {
	switch target {
	case store.ErrNotFound:
		return e.Code == http.StatusNotFound
	case store.ErrSessionFinished:
		return e.Code == http.StatusConflict
	case store.ErrInvalidStatus:
		return e.Code == http.StatusBadRequest && e.Kind == kindInvalidStatus
	case store.ErrUnknownGroup:
		return e.Code == http.StatusBadRequest && e.Kind == kindUnknownGroup
	case backend.ErrInvalidInput:
		return e.Code == http.StatusBadRequest
	}
	return false
}

const (
	kindNotFound        = "not_found"
	kindSessionFinished = "session_finished"
	kindInvalidStatus   = "invalid_status"
	kindUnknownGroup    = "unknown_group"
	kindInvalidInput    = "invalid_input"
	kindInternal        = "internal"
)

// classify maps a backend error to a status code and kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, kindNotFound
	case errors.Is(err, store.ErrSessionFinished):
		return http.StatusConflict, kindSessionFinished
	case errors.Is(err, store.ErrInvalidStatus):
		return http.StatusBadRequest, kindInvalidStatus
	case errors.Is(err, store.ErrUnknownGroup):
		return http.StatusBadRequest, kindUnknownGroup
	case errors.Is(err, backend.ErrInvalidInput):
		return http.StatusBadRequest, kindInvalidInput
	}
	return http.StatusInternalServerError, kindInternal
}
