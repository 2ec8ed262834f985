package secret

import "strings"

// Mask hides all but a few characters of a credential so it can be logged.
// Values of eight characters or fewer are fully masked; longer values keep
// their first and last four characters, which is enough to tell AWS access
// key ids apart ("AKIA************MPLE").
func Mask(s string) string {
	n := len(s)
	switch {
	case n == 0:
		return ""
	case n <= 8:
		return strings.Repeat("*", n)
	default:
		return s[:4] + strings.Repeat("*", n-8) + s[n-4:]
	}
}

// Redact replaces every occurrence of the given secrets in s with their
// masked form. Empty secrets are ignored.
func Redact(s string, secrets ...string) string {
	for _, sec := range secrets {
		if sec == "" {
			continue
		}
		s = strings.ReplaceAll(s, sec, Mask(sec))
	}
	return s
}
