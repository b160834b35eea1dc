package common

// ToPtr returns a pointer to a copy of x.
func ToPtr[T any](x T) *T {
	return &x
}
