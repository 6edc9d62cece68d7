package cmp

// MapEqWith verifies that a and b have the same keys and, for each key,
// equivalent values in the sense of pred.
func MapEqWith[K comparable, V any, W any](a map[K]V, b map[K]W, pred func(V, W) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			return false
		}
		if !pred(va, vb) {
			return false
		}
	}
	return true
}

// MapEq verifies that a and b are equal as maps.
func MapEq[K comparable, V comparable](a map[K]V, b map[K]V) bool {
	return MapEqWith(a, b, func(x V, y V) bool { return x == y })
}

// MapGeqWith verifies that a has all keys of b and their values are
// equivalent in the sense of pred. a may have extra keys.
func MapGeqWith[K comparable, V any, W any](a map[K]V, b map[K]W, pred func(V, W) bool) bool {
	for k, vb := range b {
		va, ok := a[k]
		if !ok {
			return false
		}
		if !pred(va, vb) {
			return false
		}
	}
	return true
}
