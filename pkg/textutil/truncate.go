// Package textutil holds small string helpers shared by commands.
package textutil

// Truncate returns the first n characters of s and reports whether anything
// was cut. It never splits a multi-byte character.
func Truncate(s string, n int) (string, bool) {
	if n <= 0 {
		return "", s != ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
