// Package compliance screens SMS traffic for carrier keywords and payment
// card data before the pipeline persists or reacts to a message.
package compliance

import (
	"regexp"
	"strings"
)

var panCandidateRE = regexp.MustCompile(`(?:\d[ -]?){13,19}`)

// RedactPAN replaces likely payment card numbers with a marker carrying the
// last four digits. The returned text is safe to persist and log.
func RedactPAN(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return text, false
	}
	matches := panCandidateRE.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, false
	}

	var out strings.Builder
	out.Grow(len(text))
	last := 0
	redacted := false
	for _, m := range matches {
		start, end := m[0], m[1]
		if start < last {
			continue
		}
		// The pattern is greedy about separators; give back a trailing one
		// so the surrounding text keeps its spacing.
		for end > start && (text[end-1] == ' ' || text[end-1] == '-') {
			end--
		}
		digits := strings.Map(keepDigit, text[start:end])
		if len(digits) < 13 || len(digits) > 19 || !luhnValid(digits) {
			continue
		}
		out.WriteString(text[last:start])
		out.WriteString("[REDACTED_CARD_")
		out.WriteString(digits[len(digits)-4:])
		out.WriteString("]")
		last = end
		redacted = true
	}
	if !redacted {
		return text, false
	}
	out.WriteString(text[last:])
	return out.String(), true
}

func keepDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}

// luhnValid runs the standard checksum over a digit string.
func luhnValid(digits string) bool {
	sum := 0
	parity := len(digits) % 2
	for i, r := range digits {
		n := int(r - '0')
		if n < 0 || n > 9 {
			return false
		}
		if i%2 == parity {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
	}
	return sum%10 == 0
}
