package service

import (
	"strings"
	"unicode"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLength = 72

	// specialCharacters is the set a password must draw at least one character from.
	specialCharacters = "!@#$%^&"
)

const (
	msgPasswordTooShort   = "Password must be at least 8 characters in length"
	msgPasswordTooLong    = "Password must be at most 72 characters in length"
	msgPasswordEdgeSpaces = "Password must not start or end with empty spaces"
	msgPasswordComplexity = "Password must contain 1 upper case, lower case, number and special character"
)

// passwordRule is a single policy check. ok reports whether password passes.
type passwordRule struct {
	name    string
	message string
	ok      func(password string) bool
}

// passwordRules is evaluated in order; the first failing rule wins.
var passwordRules = []passwordRule{
	{
		name:    "min_length",
		message: msgPasswordTooShort,
		ok:      func(p string) bool { return len(p) >= minPasswordLength },
	},
	{
		name:    "max_length",
		message: msgPasswordTooLong,
		ok:      func(p string) bool { return len(p) <= maxPasswordLength },
	},
	{
		name:    "edge_spaces",
		message: msgPasswordEdgeSpaces,
		ok:      func(p string) bool { return !strings.HasPrefix(p, " ") && !strings.HasSuffix(p, " ") },
	},
	{
		name:    "lowercase",
		message: msgPasswordComplexity,
		ok:      containsAny(func(r rune) bool { return r >= 'a' && r <= 'z' }),
	},
	{
		name:    "uppercase",
		message: msgPasswordComplexity,
		ok:      containsAny(func(r rune) bool { return r >= 'A' && r <= 'Z' }),
	},
	{
		name:    "digit",
		message: msgPasswordComplexity,
		ok:      containsAny(func(r rune) bool { return r >= '0' && r <= '9' }),
	},
	{
		name:    "special",
		message: msgPasswordComplexity,
		ok:      func(p string) bool { return strings.ContainsAny(p, specialCharacters) },
	},
	{
		name:    "no_whitespace",
		message: msgPasswordComplexity,
		ok:      func(p string) bool { return strings.IndexFunc(p, unicode.IsSpace) < 0 },
	},
}

func containsAny(class func(rune) bool) func(string) bool {
	return func(p string) bool {
		return strings.IndexFunc(p, class) >= 0
	}
}

// PolicyViolation reports the first password rule a candidate failed.
type PolicyViolation struct {
	Rule    string
	Message string
}

func (v *PolicyViolation) Error() string {
	return v.Message
}

// ValidatePassword checks password against the policy and returns the
// violated rule, or nil when every rule passes.
func ValidatePassword(password string) *PolicyViolation {
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			return &PolicyViolation{Rule: rule.name, Message: rule.message}
		}
	}
	return nil
}
