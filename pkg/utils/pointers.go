package utils

func PtrTo[T any](v T) *T {
	return &v
}

func ValueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}

	return *v
}
