package entity

// ResultStatus tags a Result as success or failure.
type ResultStatus string

const (
	StatusSucceeded ResultStatus = "succeeded"
	StatusFailed    ResultStatus = "failed"
)

// Result is the outcome of one external call within a cycle.
// A failed Result carries the reason instead of a value; callers branch on Status.
type Result[T any] struct {
	Status ResultStatus
	Value  T
	Reason error
}

// Succeeded wraps a value in a successful Result.
func Succeeded[T any](v T) Result[T] {
	return Result[T]{Status: StatusSucceeded, Value: v}
}

// Failed wraps a reason in a failed Result.
func Failed[T any](reason error) Result[T] {
	return Result[T]{Status: StatusFailed, Reason: reason}
}

// OK reports whether the Result succeeded.
func (r Result[T]) OK() bool {
	return r.Status == StatusSucceeded
}
