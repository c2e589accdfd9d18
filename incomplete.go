package patch

import "fmt"

// IncompleteError is returned by operations that need a fully populated record. Incomplete
// holds the record that failed so the caller can inspect the missing fields and retry.
type IncompleteError[P any] struct {
	Operation  string
	ObjectID   string
	Incomplete P
}

// NewIncompleteError creates an IncompleteError.
func NewIncompleteError[P any](operation, objectID string, incomplete P) *IncompleteError[P] {
	return &IncompleteError[P]{Operation: operation, ObjectID: objectID, Incomplete: incomplete}
}

func (e *IncompleteError[P]) Error() string {
	return fmt.Sprintf("IncompleteError: `%s` failed for %s.\nData:\n%+v", e.Operation, e.ObjectID, e.Incomplete)
}
