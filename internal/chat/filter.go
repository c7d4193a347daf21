package chat

import (
	"regexp"
	"unicode"
)

// Compiled patterns for blocked content. Compiled once at package init and
// reused for every call, safe for concurrent use.
var (
	// emailPattern matches email-like tokens anywhere in the text.
	emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
)

// contentCheck pairs a detection function with metadata used for reporting.
type contentCheck struct {
	name   string
	reason string
	match  func(string) bool
}

// contentChecks is the ordered list of checks applied to outgoing messages.
// The first match wins. Both exist to keep creators and editors from
// exchanging off-platform contact details.
var contentChecks = []contentCheck{
	{name: "email", reason: "email addresses are not allowed", match: func(text string) bool {
		return emailPattern.MatchString(text)
	}},
	{name: "phone", reason: "phone numbers are not allowed", match: hasLongDigitRun},
}

// hasLongDigitRun returns true if text contains 10 or more consecutive
// digits. Implemented as a linear scan; counting resets on any non-digit.
func hasLongDigitRun(text string) bool {
	const threshold = 10

	count := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			count++
			if count >= threshold {
				return true
			}
		} else {
			count = 0
		}
	}
	return false
}

// CheckContent runs every blocked-content check against text and returns
// the name of the first matching check, or ok=false if none match.
func CheckContent(text string) (term string, blocked bool) {
	for _, cc := range contentChecks {
		if cc.match(text) {
			return cc.name, true
		}
	}
	return "", false
}
