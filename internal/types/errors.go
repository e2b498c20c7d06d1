package types

import "fmt"

// InvariantError reports a violated internal assumption. It is raised with
// panic and aborts the compilation unit that hit it; it is never retried.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("internal invariant violated in %s: %s", e.Op, e.Detail)
}

// Invariantf builds an InvariantError for op.
func Invariantf(op, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
