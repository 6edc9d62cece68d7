package slices

// Map applies f to each element of sl and collects the results,
// keeping order.
func Map[T any, R any](sl []T, f func(T) R) []R {
	if sl == nil {
		return nil
	}
	ret := make([]R, len(sl))
	for i, e := range sl {
		ret[i] = f(e)
	}
	return ret
}

// Filter collects elements of sl satisfying pred, keeping order.
func Filter[T any](sl []T, pred func(T) bool) []T {
	ret := []T{}
	for _, e := range sl {
		if pred(e) {
			ret = append(ret, e)
		}
	}
	return ret
}

// First returns the first element of sl satisfying pred.
//
// When no elements satisfy pred, it returns (zero-value, false).
func First[T any](sl []T, pred func(T) bool) (T, bool) {
	for _, e := range sl {
		if pred(e) {
			return e, true
		}
	}
	return *new(T), false
}

// Contains returns true when at least one element of sl satisfies pred.
func Contains[T any](sl []T, pred func(T) bool) bool {
	_, ok := First(sl, pred)
	return ok
}
