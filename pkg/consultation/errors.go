package consultation

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned while a previous submission is still in flight.
	ErrBusy = errors.New("a request is already in progress")

	ErrEmptySymptoms        = &ValidationError{Message: "Please describe your symptoms before starting the consultation."}
	ErrNoActiveConsultation = &ValidationError{Message: "No active consultation found. Please start a new consultation."}
)

// ValidationError is raised locally, before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError covers network failures and non-2xx responses.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a response body that could not be parsed.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the user for err. Transport failures carry
// the server's own message when it sent one.
func UserMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		return "Error: " + terr.Err.Error()
	}
	var merr *MalformedResponseError
	if errors.As(err, &merr) {
		return "Error: Invalid response from server"
	}
	return "Error: " + err.Error()
}
