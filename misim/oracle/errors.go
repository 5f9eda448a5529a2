package oracle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	ports "github.com/ZanzyTHEbar/misim/misim/oracle/ports"
)

// Kind classifies an oracle failure.
type Kind int

const (
	KindFatal Kind = iota
	KindRateLimit
	KindTimeout
	KindConnection
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindServer:
		return "server"
	default:
		return "fatal"
	}
}

// ErrFatal marks failures that retrying cannot fix.
var ErrFatal = errors.New("oracle: fatal error")

// Error is a classified oracle failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFatal) match fatal errors.
func (e *Error) Is(target error) bool {
	return target == ErrFatal && e.Kind == KindFatal
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind != KindFatal
	}
	return false
}

// classify maps a provider error onto the taxonomy. parent is the caller's
// context; a deadline on the per-call context only counts as a timeout while
// parent is still live.
func classify(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}

	var se *ports.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return &Error{Kind: KindRateLimit, Err: err}
		case se.StatusCode == http.StatusRequestTimeout:
			return &Error{Kind: KindTimeout, Err: err}
		case se.StatusCode >= 500:
			return &Error{Kind: KindServer, Err: err}
		default:
			return &Error{Kind: KindFatal, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &Error{Kind: KindTimeout, Err: err}
		}
		return &Error{Kind: KindConnection, Err: err}
	}

	var oe *Error
	if errors.As(err, &oe) {
		return err
	}

	return &Error{Kind: KindFatal, Err: err}
}
