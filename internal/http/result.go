package httpapi

// Result is the uniform JSON envelope for every endpoint.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func Ok[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

func Fail(message string) Result[any] {
	return Result[any]{Success: false, Data: nil, Message: message}
}
