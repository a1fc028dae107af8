package config

import (
	"net/url"
	"strings"
)

// Mask returns a masked representation of a secret string.
// Up to 5 characters are fully masked, up to 20 keep the first and last
// character, longer ones keep the first 3 and the last.
func Mask(s string) string {
	n := len(s)
	switch {
	case n == 0:
		return ""
	case n <= 5:
		return strings.Repeat("*", n)
	case n <= 20:
		return s[:1] + strings.Repeat("*", n-2) + s[n-1:]
	default:
		return s[:3] + strings.Repeat("*", n-4) + s[n-1:]
	}
}

// RedactURL masks the password of a URL such as a redis address so it can
// be logged. Values that do not parse are masked whole.
func RedactURL(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Mask(raw)
	}
	if u.User == nil {
		return raw
	}
	if pw, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), Mask(pw))
	}
	return u.String()
}
