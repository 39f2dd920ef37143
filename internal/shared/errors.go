package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrNoVideo            = fmt.Errorf("no video found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrIndexOutOfRange = fmt.Errorf("index out of range")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ErrorKind is the closed set of failure categories reported by the session manager.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindRemoteFetch
	KindNotFound
	KindInvalidInput
	KindIndex
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRemoteFetch:
		return "remote_fetch"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindIndex:
		return "index"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrMissingCredentials
	case KindRemoteFetch:
		return ErrAPIRequest
	case KindNotFound:
		return ErrPlaylistNotFound
	case KindInvalidInput:
		return ErrInvalidInput
	case KindIndex:
		return ErrIndexOutOfRange
	default:
		return nil
	}
}

// Error tags a failure with its [ErrorKind] and the operation that produced it.
//
// It unwraps to both the kind's sentinel and the underlying cause, so callers may test either with [errors.Is].
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewError builds an [Error]. A nil cause is allowed for purely local failures.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an [Error] whose cause is a formatted message.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if s := e.Kind.sentinel(); s != nil {
		b.WriteString(s.Error())
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ConfigurationError reports credential fields that are absent at startup.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingCredentials, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrMissingCredentials
}

// KindOf classifies err into an [ErrorKind].
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}

	var cfgErr *ConfigurationError
	switch {
	case errors.As(err, &cfgErr), errors.Is(err, ErrMissingCredentials):
		return KindConfiguration
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrIndexOutOfRange):
		return KindIndex
	case errors.Is(err, ErrPlaylistNotFound):
		return KindNotFound
	case errors.Is(err, ErrAPIRequest):
		return KindRemoteFetch
	default:
		return KindUnknown
	}
}
