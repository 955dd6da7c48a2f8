// Package ptrx provides small helpers for working with optional values
// expressed as pointers.
package ptrx

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Value returns the value behind v, or the zero value when v is nil.
func Value[T any](v *T) T {
	if v != nil {
		return *v
	}
	var zero T
	return zero
}

// ValueOr returns the value behind v, or def when v is nil.
func ValueOr[T any](v *T, def T) T {
	if v != nil {
		return *v
	}
	return def
}

// String returns a pointer to the string value passed in.
func String(v string) *string { return &v }

// StringValue returns the value behind v, or "" when v is nil.
func StringValue(v *string) string {
	if v != nil {
		return *v
	}
	return ""
}
