package gasparser

// truncationWindow bounds the source kept for a function whose body never closes.
const truncationWindow = 1000

// resolveSpan returns the text from start through the brace matching the one at
// bodyOpen. Braces inside strings and comments are counted like any other.
// If the source ends first, it falls back to at most truncationWindow
// characters from start and reports closed == false.
func resolveSpan(source string, start, bodyOpen int) (span string, closed bool) {
	depth := 1
	for i := bodyOpen + 1; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source[start : i+1], true
			}
		}
	}
	return truncate(source[start:], truncationWindow), false
}

// truncate keeps the first n characters of s without splitting a rune.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
