package matcher

import "strings"

func isSeparator(c byte) bool {
	return c == '\\' || c == '.' || c == '/'
}

// Glob reports whether name matches pattern. A pattern is a list of
// alternatives separated by '|'. Within an alternative, "*" matches any run
// of characters that contains no separator (\ . /) and "**" matches any run
// at all. Everything else matches literally.
func Glob(pattern, name string) bool {
	for _, alt := range strings.Split(pattern, "|") {
		if globOne(alt, name) {
			return true
		}
	}
	return false
}

// globAny reports whether any alternative matches name.
func globAny(alternatives []string, name string) bool {
	for _, alt := range alternatives {
		if globOne(alt, name) {
			return true
		}
	}
	return false
}

func globOne(p, s string) bool {
	for len(p) > 0 {
		if p[0] != '*' {
			if len(s) == 0 || p[0] != s[0] {
				return false
			}
			p, s = p[1:], s[1:]
			continue
		}

		deep := len(p) > 1 && p[1] == '*'
		rest := p[1:]
		if deep {
			rest = p[2:]
		}
		for i := 0; i <= len(s); i++ {
			if globOne(rest, s[i:]) {
				return true
			}
			if i < len(s) && !deep && isSeparator(s[i]) {
				return false
			}
		}
		return false
	}
	return len(s) == 0
}
