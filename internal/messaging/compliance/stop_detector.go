package compliance

import (
	"regexp"
	"strings"
)

// Detector identifies STOP/HELP keyword messages. The provider only honors
// bodies that are exactly the keyword, so the detector matches whole
// messages, not keywords inside running text. CANCEL is deliberately absent:
// it belongs to the visit-cancel intent.
type Detector struct {
	stopRegex *regexp.Regexp
	helpRegex *regexp.Regexp
}

// NewDetector returns a detector for the standard keyword sets.
func NewDetector() *Detector {
	return &Detector{
		stopRegex: regexp.MustCompile(`(?i)^(stop|stopall|unsubscribe|end|quit)[.!]*$`),
		helpRegex: regexp.MustCompile(`(?i)^(help|info)[.!?]*$`),
	}
}

// IsStop returns true when the body is an opt-out keyword message.
func (d *Detector) IsStop(body string) bool {
	if d == nil || d.stopRegex == nil {
		return false
	}
	return d.stopRegex.MatchString(strings.TrimSpace(body))
}

// IsHelp returns true when the body is a HELP keyword message.
func (d *Detector) IsHelp(body string) bool {
	if d == nil || d.helpRegex == nil {
		return false
	}
	return d.helpRegex.MatchString(strings.TrimSpace(body))
}
