package messaging

import (
	"time"

	"github.com/mimakeko/homehealth-assistant/internal/intent"
	"github.com/mimakeko/homehealth-assistant/internal/messaging/templates"
	"github.com/mimakeko/homehealth-assistant/internal/timeparse"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// Reply templates keyed by what the assistant understood. {{.When}} is the
// parsed start rendered in the clinic timezone.
const (
	replyConfirmedAt   = "Hi {{.Name}}! You're confirmed for {{.When}}. Reply RESCHEDULE if anything changes."
	replyConfirmed     = "Hi {{.Name}}! You're confirmed. Reply RESCHEDULE if anything changes."
	replyRescheduledTo = "Hi {{.Name}}! We've moved your visit to {{.When}}. Reply CANCEL if that doesn't work."
	replyRescheduleAsk = "Hi {{.Name}}! No problem, what day and time works better for you?"
	replyCanceled      = "Hi {{.Name}}! Your visit is canceled. Text us a day and time whenever you're ready to rebook."
	replyTimeNoted     = "Hi {{.Name}}! We've penciled you in for {{.When}}. Reply YES to confirm."
	replyInvalidTime   = "Hi {{.Name}}! We couldn't read that time. Try something like \"Friday at 10am\"."
	replyHelp          = "Hi {{.Name}}! This is your home health care team. Text a day and time to schedule a visit, RESCHEDULE to change it, or STOP to opt out."
	replyFallback      = "Hi {{.Name}}! Thanks for your message. A care coordinator will follow up shortly."
)

// replySafeDefault goes out when template rendering itself fails.
const replySafeDefault = "Thanks! A care coordinator will follow up shortly."

const replyWhenFormat = "Monday, Jan 2 at 3:04 PM"

// ReplyInput carries what the inbound pipeline learned about a message.
type ReplyInput struct {
	PatientName string
	Intent      intent.Intent
	ParseStatus timeparse.Status
	Start       *time.Time
}

// ReplyBuilder renders the auto-reply for an inbound message from a known
// patient.
type ReplyBuilder struct {
	renderer templates.Renderer
	loc      *time.Location
	logger   *logging.Logger
}

func NewReplyBuilder(loc *time.Location, logger *logging.Logger) *ReplyBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &ReplyBuilder{loc: loc, logger: logger.Named("replies")}
}

type replyData struct {
	Name string
	When string
}

// Build picks and renders the reply template for the classified intent and
// parse outcome.
func (b *ReplyBuilder) Build(in ReplyInput) string {
	data := replyData{Name: in.PatientName}
	if data.Name == "" {
		data.Name = "there"
	}
	if in.Start != nil {
		data.When = in.Start.In(b.loc).Format(replyWhenFormat)
	}

	parsedOK := in.ParseStatus == timeparse.StatusOK && in.Start != nil
	switch {
	case in.Intent == intent.IntentHelp:
		return b.render("help", replyHelp, data)
	case in.Intent == intent.IntentCancel:
		return b.render("canceled", replyCanceled, data)
	case in.Intent == intent.IntentConfirm && parsedOK:
		return b.render("confirmed_at", replyConfirmedAt, data)
	case in.Intent == intent.IntentConfirm:
		return b.render("confirmed", replyConfirmed, data)
	case in.Intent == intent.IntentReschedule && parsedOK:
		return b.render("rescheduled_to", replyRescheduledTo, data)
	case in.Intent == intent.IntentReschedule:
		return b.render("reschedule_ask", replyRescheduleAsk, data)
	case parsedOK:
		return b.render("time_noted", replyTimeNoted, data)
	case in.Intent == intent.IntentTime:
		return b.render("invalid_time", replyInvalidTime, data)
	default:
		return b.render("fallback", replyFallback, data)
	}
}

func (b *ReplyBuilder) render(name, tmpl string, data replyData) string {
	out, err := b.renderer.Render(name, tmpl, data)
	if err != nil {
		b.logger.Warn("reply template failed", "template", name, "error", err)
		return replySafeDefault
	}
	return out
}
