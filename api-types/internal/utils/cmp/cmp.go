package cmp

// SliceEqualUnordered returns true when a and b have the same elements,
// ignoring order. Elements are matched by their Equal method.
func SliceEqualUnordered[T interface{ Equal(T) bool }](a, b []T) bool {
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
			if ea.Equal(eb) {
				used[i] = true
				continue A
			}
		}
		return false
	}
	return true
}
