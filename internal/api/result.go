package api

// Page carries pagination metadata from the response envelope
type Page struct {
	Page         int `json:"page,omitempty"`
	TotalPages   int `json:"totalPages,omitempty"`
	TotalResults int `json:"totalResults,omitempty"`
}

// Result is the outcome of one API call: either OK with a Value, or a non-nil Err
type Result[T any] struct {
	OK    bool
	Value T
	Page  Page
	Err   *Error
}

// Unwrap returns the value, or the error as a plain error value
func (r Result[T]) Unwrap() (T, error) {
	if !r.OK {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}

func success[T any](v T, p Page) Result[T] {
	return Result[T]{OK: true, Value: v, Page: p}
}

func failure[T any](err *Error) Result[T] {
	return Result[T]{Err: err}
}
