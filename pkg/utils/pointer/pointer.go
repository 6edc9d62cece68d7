package pointer

// Ref returns a pointer to v.
func Ref[T any](v T) *T {
	return &v
}

// DeRef returns *p, or the zero value of T when p is nil.
func DeRef[T any](p *T) T {
	if p == nil {
		return *new(T)
	}
	return *p
}
