package todos

import "fmt"

// ValidationError reports a server payload that could not be applied to
// the local mirror, such as an update response without an id.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("todos: %s: invalid server response: %s", e.Op, e.Reason)
}
