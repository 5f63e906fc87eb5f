package service

import "fmt"

// BatchError reports a batch that stopped early. Recalculated counts the
// products whose snapshots were already committed.
type BatchError struct {
	Scope        string
	Recalculated int
	Err          error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("recalculate %s: stopped after %d products: %v", e.Scope, e.Recalculated, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
