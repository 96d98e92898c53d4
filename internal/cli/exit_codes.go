package cli

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/temirov/spp/internal/linebuffer"
)

// Exit statuses of the spp binary.
const (
	ExitCodeSuccess           = 0
	ExitCodeFailure           = 1
	ExitCodeInvalidArgument   = 3
	ExitCodeInvalidOption     = 5
	ExitCodeMissingPath       = 24
	ExitCodeNotAFile          = 26
	ExitCodePermissionDenied  = 77
	ExitCodeUnresolvablePath  = 98
	ExitCodeResourceExhausted = 101
)

// exitStatusError attaches an exit status to an error without changing its message.
type exitStatusError struct {
	code int
	err  error
}

func (statusError exitStatusError) Error() string {
	return statusError.err.Error()
}

func (statusError exitStatusError) Unwrap() error {
	return statusError.err
}

func withExitCode(code int, err error) error {
	return exitStatusError{code: code, err: err}
}

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var statusError exitStatusError
	if errors.As(err, &statusError) {
		return statusError.code
	}
	switch {
	case errors.Is(err, linebuffer.ErrLineTooLong):
		return ExitCodeResourceExhausted
	case errors.Is(err, fs.ErrPermission):
		return ExitCodePermissionDenied
	case errors.Is(err, syscall.ELOOP), errors.Is(err, syscall.ENAMETOOLONG):
		return ExitCodeUnresolvablePath
	default:
		return ExitCodeFailure
	}
}
