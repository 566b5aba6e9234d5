package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEngineFault is returned when a block panics. The runtime stops and the
// cause is attached to the error.
var ErrEngineFault = errors.New("engine fault")

// Executor executes a single block. Execute returns io.EOF when there is
// nothing left to do.
type Executor interface {
	Start(context.Context) error
	Execute(context.Context) error
	Flush(context.Context) error
}

// Run starts the executor, executes it until io.EOF or an error and then
// flushes it. Flush is called even if execution failed.
func Run(ctx context.Context, e Executor) error {
	if err := e.Start(ctx); err != nil {
		return fmt.Errorf("error starting runtime: %w", err)
	}

	var errs Errors
	var err error
	for err == nil {
		err = execute(ctx, e)
	}
	if err != io.EOF {
		errs = append(errs, fmt.Errorf("error running runtime: %w", err))
	}
	if err := e.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error flushing runtime: %w", err))
	}
	return errs.Ret()
}

func execute(ctx context.Context, e Executor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrEngineFault, r)
		}
	}()
	return e.Execute(ctx)
}

// Errors is a list of errors returned by hooks and blocks.
type Errors []error

// Ret returns nil for an empty list, the single error or the list itself.
func (e Errors) Ret() error {
	switch len(e) {
	case 0:
		return nil
	case 1:
		return e[0]
	default:
		return e
	}
}

func (e Errors) Error() string {
	s := make([]string, 0, len(e))
	for _, err := range e {
		s = append(s, err.Error())
	}
	return strings.Join(s, ", ")
}

// Unwrap exposes the list to errors.Is and errors.As.
func (e Errors) Unwrap() []error {
	return e
}
