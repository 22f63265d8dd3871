package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrorTypeRejected   ErrorType = iota // Procedure completed but reported failure
	ErrorTypeTransport                   // Procedure call never completed
	ErrorTypeBackend                     // Backend raised while running the procedure
	ErrorTypeDecode                      // Backend answered with an unexpected payload
	ErrorTypeValidation                  // Input rejected before any call
	ErrorTypeBusy                        // Another change is still outstanding
	ErrorTypeJournal                     // Local operation journal failed
	ErrorTypeUnknown
)

// String returns a short label used in logs
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRejected:
		return "rejected"
	case ErrorTypeTransport:
		return "transport"
	case ErrorTypeBackend:
		return "backend"
	case ErrorTypeDecode:
		return "decode"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeBusy:
		return "busy"
	case ErrorTypeJournal:
		return "journal"
	default:
		return "unknown"
	}
}

// PanelError represents a structured error with the procedure it came from
type PanelError struct {
	Type       ErrorType
	Procedure  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *PanelError) Error() string {
	if e.Procedure != "" {
		return fmt.Sprintf("%s (procedure=%s)", e.Message, e.Procedure)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *PanelError) Unwrap() error {
	return e.Underlying
}

// Is lets errors.Is match on the error type alone
func (e *PanelError) Is(target error) bool {
	t, ok := target.(*PanelError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Procedure == "" && t.Message == ""
}

// Sentinels for errors.Is checks
var (
	ErrRejected   = &PanelError{Type: ErrorTypeRejected}
	ErrTransport  = &PanelError{Type: ErrorTypeTransport}
	ErrBackend    = &PanelError{Type: ErrorTypeBackend}
	ErrValidation = &PanelError{Type: ErrorTypeValidation}
	ErrBusy       = &PanelError{Type: ErrorTypeBusy}
)

// TypeOf returns the type of a PanelError anywhere in err's chain
func TypeOf(err error) ErrorType {
	var pe *PanelError
	if stderrors.As(err, &pe) {
		return pe.Type
	}
	return ErrorTypeUnknown
}

// Rejected reports a procedure that returned a falsy success signal
func Rejected(procedure string) *PanelError {
	return &PanelError{
		Type:      ErrorTypeRejected,
		Procedure: procedure,
		Message:   "Backend reported failure",
	}
}

// Busy reports a change attempted while another one is outstanding
func Busy(operation string) *PanelError {
	return &PanelError{
		Type:    ErrorTypeBusy,
		Message: fmt.Sprintf("Cannot %s while another TTL change is in progress", operation),
	}
}

// WrapTransportError wraps an error raised while sending a procedure call
func WrapTransportError(err error, procedure string) *PanelError {
	if err == nil {
		return nil
	}

	lowerError := strings.ToLower(err.Error())

	var netErr net.Error
	switch {
	case stderrors.Is(err, context.Canceled):
		return &PanelError{
			Type:       ErrorTypeTransport,
			Procedure:  procedure,
			Message:    "Request cancelled",
			Underlying: err,
		}

	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.As(err, &netErr) && netErr.Timeout(),
		strings.Contains(lowerError, "timeout"):
		return &PanelError{
			Type:       ErrorTypeTransport,
			Procedure:  procedure,
			Message:    "Backend did not answer in time",
			Underlying: err,
		}

	case strings.Contains(lowerError, "connection refused"):
		return &PanelError{
			Type:       ErrorTypeTransport,
			Procedure:  procedure,
			Message:    "Plugin backend is not running",
			Underlying: err,
		}

	case strings.Contains(lowerError, "unauthorized") || strings.Contains(lowerError, "forbidden"):
		return &PanelError{
			Type:       ErrorTypeTransport,
			Procedure:  procedure,
			Message:    "Plugin host refused the request - check the token",
			Underlying: err,
		}

	default:
		return &PanelError{
			Type:       ErrorTypeTransport,
			Procedure:  procedure,
			Message:    fmt.Sprintf("Backend call failed: %s", cleanErrorOutput(err.Error())),
			Underlying: err,
		}
	}
}

// WrapBackendError wraps an exception the backend reported for a call
func WrapBackendError(message, procedure string) *PanelError {
	return &PanelError{
		Type:       ErrorTypeBackend,
		Procedure:  procedure,
		Message:    fmt.Sprintf("Backend raised: %s", cleanErrorOutput(message)),
		Underlying: stderrors.New(message),
	}
}

// WrapDecodeError wraps a malformed procedure result
func WrapDecodeError(err error, procedure string) *PanelError {
	if err == nil {
		return nil
	}

	return &PanelError{
		Type:       ErrorTypeDecode,
		Procedure:  procedure,
		Message:    fmt.Sprintf("Unexpected result: %s", err.Error()),
		Underlying: err,
	}
}

// WrapValidationError wraps validation errors
func WrapValidationError(err error, input string) *PanelError {
	if err == nil {
		return nil
	}

	return &PanelError{
		Type:       ErrorTypeValidation,
		Message:    fmt.Sprintf("Invalid input '%s': %s", input, err.Error()),
		Underlying: err,
	}
}

// WrapJournalError wraps journal-related errors
func WrapJournalError(err error, operation string) *PanelError {
	if err == nil {
		return nil
	}

	return &PanelError{
		Type:       ErrorTypeJournal,
		Message:    fmt.Sprintf("Journal %s failed: %s", operation, err.Error()),
		Underlying: err,
	}
}

// cleanErrorOutput keeps the first meaningful line of a multi-line error
func cleanErrorOutput(errorText string) string {
	cleaned := strings.TrimSpace(errorText)

	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "Traceback") {
			return line
		}
	}

	return cleaned
}

// UserFriendlyMessage returns a user-friendly error message
func (e *PanelError) UserFriendlyMessage() string {
	switch e.Type {
	case ErrorTypeTransport:
		return e.Message + " - is the plugin loaded?"
	case ErrorTypeBackend:
		return e.Message + " - see the plugin log on the device"
	case ErrorTypeValidation:
		return e.Message
	case ErrorTypeBusy:
		return e.Message + " - wait for it to finish"
	default:
		return e.Message
	}
}
