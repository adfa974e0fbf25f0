package cli

import (
	"errors"
	"fmt"

	"github.com/Makepad-fr/tada/internal/todos"
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// usageErr is a bad invocation (exit code 2).
func usageErr(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit code:
// 0 ok, 1 runtime failure, 2 usage or configuration problem.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var kind todos.ErrorKind
	if errors.As(err, &kind) && kind == todos.ErrValidation {
		return 2
	}
	return 1
}
