package audit

import "fmt"

// StorageError reports that the backing store could not persist or read
// records. It never reverses an issuance outcome.
type StorageError struct {
	Op  string // "append" or "recent"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
