package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents connection, timeout and body read errors.
	ErrorClassNetwork ErrorClass = "network"
)

// ErrNotModifiedWithoutCache is returned when a server answers 304 to a
// request the client never made conditional.
var ErrNotModifiedWithoutCache = errors.New("304 Not Modified without cached document")

// StatusError is an unsuccessful HTTP status.
type StatusError struct {
	StatusCode int
	Class      ErrorClass
	URL        string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d %s): %s",
		e.Class, e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// classifyStatus maps an unsuccessful status code to an error class.
// Unfollowed redirects count as client errors.
func classifyStatus(code int) ErrorClass {
	switch {
	case code >= 500:
		return ErrorClassServer
	case code >= 300:
		return ErrorClassClient
	default:
		return ""
	}
}

// ClassOf returns the class of a fetch failure, or "" when err carries none.
func ClassOf(err error) ErrorClass {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Class
	}
	if err != nil {
		return ErrorClassNetwork
	}
	return ""
}
