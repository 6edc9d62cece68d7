package mock

// CallLog records arguments passed to a mocked method, in order.
type CallLog[T any] []T

func (c CallLog[T]) Times() int {
	return len(c)
}

func (c CallLog[T]) Last() T {
	if len(c) == 0 {
		return *new(T)
	}
	return c[len(c)-1]
}
