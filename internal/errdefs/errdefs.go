// Package errdefs defines the typed error taxonomy shared across ax's
// packages so that cmd/ax can map any failure to the right exit code and
// message without type-switching on error strings.
package errdefs

import "fmt"

type ErrorType int

const (
	ErrTypeGeneric ErrorType = iota
	ErrTypeEnv
	ErrTypeLockHeld
	ErrTypeNetwork
	ErrTypeResolution
	ErrTypeBuild
	ErrTypeInstall
	ErrTypeUserAbort
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeEnv:
		return "env"
	case ErrTypeLockHeld:
		return "lock-held"
	case ErrTypeNetwork:
		return "network"
	case ErrTypeResolution:
		return "resolution"
	case ErrTypeBuild:
		return "build"
	case ErrTypeInstall:
		return "install"
	case ErrTypeUserAbort:
		return "user-abort"
	default:
		return "generic"
	}
}

// CustomError is a typed error carrying the offending package/base name,
// where one applies, so callers can report "failed to build foo" instead
// of a bare message.
type CustomError struct {
	Type    ErrorType
	Package string
	Message string
	Err     error
}

func (e *CustomError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s: %s", e.Package, e.Message)
	}
	return e.Message
}

func (e *CustomError) Unwrap() error { return e.Err }

func New(t ErrorType, message string) error {
	return &CustomError{Type: t, Message: message}
}

func Newf(t ErrorType, format string, args ...interface{}) error {
	return &CustomError{Type: t, Message: fmt.Sprintf(format, args...)}
}

func Wrap(t ErrorType, pkg string, err error) error {
	if err == nil {
		return nil
	}
	return &CustomError{Type: t, Package: pkg, Message: err.Error(), Err: err}
}

func NewGenericError(message string, args ...interface{}) error {
	return Newf(ErrTypeGeneric, message, args...)
}

// ExitCode maps an error's taxonomy to a process exit code. Errors that
// don't carry a *CustomError return 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	ce, ok := err.(*CustomError)
	if !ok {
		return 1
	}
	switch ce.Type {
	case ErrTypeUserAbort:
		return 130
	case ErrTypeLockHeld:
		return 75
	case ErrTypeEnv:
		return 71
	case ErrTypeNetwork:
		return 69
	default:
		return 1
	}
}
