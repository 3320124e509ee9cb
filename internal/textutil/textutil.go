package textutil

// Truncate cuts s to at most n characters without splitting a rune.
// A non-positive n leaves s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Len counts characters rather than bytes.
func Len(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
