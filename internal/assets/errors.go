package assets

import "fmt"

// Error reports a model asset operation failure.
type Error struct {
	Op    string
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s model %q: %v", e.Op, e.Model, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
