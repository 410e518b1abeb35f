package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrModelUnavailable matches any *UnavailableError via errors.Is.
var ErrModelUnavailable = errors.New("model unavailable")

// Reason classifies why a model could not be used.
type Reason string

const (
	ReasonConnection Reason = "connection"
	ReasonTimeout    Reason = "timeout"
)

const (
	connectionMessage = "cannot reach the model backend; verify it is running and the model is loaded"
	timeoutMessage    = "request exceeded its time budget; the model may be overloaded or the request too complex."
)

// UnavailableError is returned when the backend cannot be reached or a call runs out of time.
type UnavailableError struct {
	Model   string
	Reason  Reason
	Message string
	Cause   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %s", e.Model, e.Message)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrModelUnavailable) true.
func (e *UnavailableError) Is(target error) bool { return target == ErrModelUnavailable }

// IsTimeout reports whether err is an UnavailableError caused by an exhausted time budget.
func IsTimeout(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue) && ue.Reason == ReasonTimeout
}

// classify converts transport failures into *UnavailableError. Anything else is returned as is.
func classify(model string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &UnavailableError{Model: model, Reason: ReasonTimeout, Message: timeoutMessage, Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &UnavailableError{Model: model, Reason: ReasonTimeout, Message: timeoutMessage, Cause: err}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
	case errors.As(err, &opErr) && opErr.Op == "dial":
	case errors.As(err, &dnsErr):
	default:
		return err
	}
	return &UnavailableError{Model: model, Reason: ReasonConnection, Message: connectionMessage, Cause: err}
}
