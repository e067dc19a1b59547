package engine

import "fmt"

// DefectError is raised, never returned, when code reaches a branch its
// callers guarantee is impossible, e.g. an AlreadyExists from a command that
// cannot produce one.
type DefectError struct {
	Op  string
	Err error
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("defect in %s: %v", e.Op, e.Err)
}

func (e *DefectError) Unwrap() error { return e.Err }

// Defect panics with a *DefectError. Transports must not recover it into a
// domain response.
func Defect(op string, err error) {
	panic(&DefectError{Op: op, Err: err})
}
