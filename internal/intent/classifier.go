package intent

import (
	"regexp"
	"strings"
)

// Intent is the coarse category assigned to an inbound message body.
type Intent string

const (
	IntentConfirm    Intent = "confirm"
	IntentReschedule Intent = "reschedule"
	IntentCancel     Intent = "cancel"
	IntentTime       Intent = "time"
	IntentOther      Intent = "other"

	// IntentStop and IntentHelp come from the carrier-keyword detector in
	// the messaging pipeline, never from Classify.
	IntentStop Intent = "stop"
	IntentHelp Intent = "help"
)

// Classifier performs rule-based intent classification over SMS bodies.
// Pattern groups are evaluated in a fixed priority order: confirm beats
// reschedule beats cancel beats a bare time expression. A message that
// says "yes, Friday at 10am" is a confirmation, not a time proposal.
type Classifier struct {
	confirmPatterns    []*regexp.Regexp
	reschedulePatterns []*regexp.Regexp
	cancelPatterns     []*regexp.Regexp
	timePattern        *regexp.Regexp
	spaceNormalizer    *regexp.Regexp
}

// NewClassifier creates a classifier with the fixed keyword sets.
func NewClassifier() *Classifier {
	return &Classifier{
		spaceNormalizer: regexp.MustCompile(`\s+`),
		confirmPatterns: compilePatterns([]string{
			`\b(yes|yeah|yep|ok|okay)\b`,
			`\bconfirm(ed)?\b`,
		}),
		reschedulePatterns: compilePatterns([]string{
			`\breschedule\b`,
			`\banother time\b`,
			`\b(move|change)\b`,
		}),
		cancelPatterns: compilePatterns([]string{
			`\bcancel(led|ed)?\b`,
			`\b(can'?t|cannot|won'?t) make\b`,
		}),
		timePattern: regexp.MustCompile(`\d\s*(am|pm)?`),
	}
}

// Classify determines the intent of the input message. It always returns a
// value; empty or unmatched text maps to IntentOther.
func (c *Classifier) Classify(input string) Intent {
	normalized := c.normalizeText(input)
	if normalized == "" {
		return IntentOther
	}

	if matchesAny(c.confirmPatterns, normalized) {
		return IntentConfirm
	}
	if matchesAny(c.reschedulePatterns, normalized) {
		return IntentReschedule
	}
	if matchesAny(c.cancelPatterns, normalized) {
		return IntentCancel
	}
	if c.timePattern.MatchString(normalized) {
		return IntentTime
	}
	return IntentOther
}

func (c *Classifier) normalizeText(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	return c.spaceNormalizer.ReplaceAllString(lowered, " ")
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}
