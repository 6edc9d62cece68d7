package cmp

// SliceEqWith verifies that a and b have equivalent elements in the same
// order, in the sense of pred.
func SliceEqWith[T any, U any](a []T, b []U, pred func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !pred(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SliceEq verifies that a and b have the same elements in the same order.
func SliceEq[T comparable](a []T, b []T) bool {
	return SliceEqWith(a, b, func(x T, y T) bool { return x == y })
}

// SliceContentEqWith verifies that a and b have equivalent elements,
// ignoring order, in the sense of pred.
func SliceContentEqWith[T any, U any](a []T, b []U, pred func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}

	used := make([]bool, len(b))
A:
	for _, ea := range a {
		for i, eb := range b {
			if used[i] {
				continue
			}
			if pred(ea, eb) {
				used[i] = true
				continue A
			}
		}
		return false
	}
	return true
}

// SliceContentEq verifies that a and b have the same elements, ignoring order.
func SliceContentEq[T comparable](a []T, b []T) bool {
	return SliceContentEqWith(a, b, func(x T, y T) bool { return x == y })
}
