// Package task defines the data model of a cooperatively scheduled task:
// its identifier, its suspended computation, the suspension requests it can
// yield, and the handle it uses to call back into the scheduler that owns
// it. The package has no knowledge of scheduling policy; that lives in
// internal/scheduler.
package task

import "fmt"

// TID is a task identifier. It is monotonically increasing within a
// scheduler's lifetime and is never reused.
type TID int64

// String renders the TID the way it appears in logs and API responses.
func (t TID) String() string {
	return fmt.Sprintf("tid-%d", int64(t))
}
