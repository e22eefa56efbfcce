package decision

// ExtractJSONObject returns the first balanced top-level {...} span in s.
// Braces inside JSON string literals (including escaped quotes) are ignored. When a '{'
// never closes, scanning resumes at the next '{' so leading prose such as
// "use {braces" does not hide a later object.
//
// Byte iteration is safe for the ASCII delimiters because UTF-8 continuation bytes never
// collide with them.
func ExtractJSONObject(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		if end, ok := matchObject(s, start); ok {
			return s[start : end+1], true
		}
	}
	return "", false
}

func matchObject(s string, start int) (int, bool) {
	var (
		depth    int
		inString bool
		escape   bool
	)
	for i := start; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
