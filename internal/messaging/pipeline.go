package messaging

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mimakeko/homehealth-assistant/internal/appointments"
	"github.com/mimakeko/homehealth-assistant/internal/intent"
	"github.com/mimakeko/homehealth-assistant/internal/messaging/compliance"
	"github.com/mimakeko/homehealth-assistant/internal/observability/metrics"
	"github.com/mimakeko/homehealth-assistant/internal/patients"
	"github.com/mimakeko/homehealth-assistant/internal/timeparse"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

var pipelineTracer = otel.Tracer("homehealth.internal.messaging.pipeline")

// AlertSender notifies care coordinators about conditions that need a human.
// Implementations must not block beyond their own timeouts and must never
// panic on partial configuration.
type AlertSender interface {
	UnknownSender(ctx context.Context, from, body string)
	DeliveryFailure(ctx context.Context, to string, sendErr error)
}

// InboundMessage is one message arriving from the provider webhook or the
// simulator endpoint.
type InboundMessage struct {
	From              string
	To                string
	Body              string
	Channel           Channel
	ProviderMessageID string
}

// InboundResult reports what the pipeline did with an inbound message.
type InboundResult struct {
	Intent      intent.Intent
	ParseStatus timeparse.Status
	Patient     *patients.Patient
	Appointment *appointments.Appointment
	Reply       string
	ReplySent   bool
}

// PipelineConfig wires the collaborators for the inbound flow. Alerts and
// Metrics are optional; Now is a test hook.
type PipelineConfig struct {
	Timezone     string
	Patients     patients.Repository
	Appointments appointments.Repository
	Store        Store
	Messenger    Messenger
	Alerts       AlertSender
	Metrics      *metrics.Metrics
	Logger       *logging.Logger
	Now          func() time.Time
}

// Pipeline runs the inbound SMS flow: classify, parse, persist, schedule,
// and auto-reply. Every stage degrades on failure rather than aborting the
// message; HandleInbound always produces a result.
type Pipeline struct {
	classifier   *intent.Classifier
	detector     *compliance.Detector
	parser       *timeparse.Parser
	loc          *time.Location
	patients     patients.Repository
	appointments appointments.Repository
	store        Store
	messenger    Messenger
	replies      *ReplyBuilder
	alerts       AlertSender
	metrics      *metrics.Metrics
	logger       *logging.Logger
	now          func() time.Time
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Patients == nil || cfg.Appointments == nil || cfg.Store == nil || cfg.Messenger == nil {
		panic("messaging: pipeline requires patients, appointments, store and messenger")
	}
	logger := cfg.Logger.Named("pipeline")
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := timeparse.Location(cfg.Timezone)
	return &Pipeline{
		classifier:   intent.NewClassifier(),
		detector:     compliance.NewDetector(),
		parser:       timeparse.NewParser(cfg.Timezone),
		loc:          loc,
		patients:     cfg.Patients,
		appointments: cfg.Appointments,
		store:        cfg.Store,
		messenger:    cfg.Messenger,
		replies:      NewReplyBuilder(loc, cfg.Logger),
		alerts:       cfg.Alerts,
		metrics:      cfg.Metrics,
		logger:       logger,
		now:          now,
	}
}

// HandleInbound processes one inbound message end to end. The message is
// always appended to the store with its classified intent. Scheduling only
// happens when the sender matches a patient and a time was parsed; the
// auto-reply goes out whenever the sender is known. STOP keyword messages
// are recorded and then dropped without a reply.
func (p *Pipeline) HandleInbound(ctx context.Context, in InboundMessage) *InboundResult {
	ctx, span := pipelineTracer.Start(ctx, "messaging.handle_inbound")
	defer span.End()

	from := NormalizeE164(in.From)
	body, redacted := compliance.RedactPAN(in.Body)
	if redacted {
		p.logger.Warn("card number redacted from inbound sms", "from", from)
	}

	msgIntent := p.classifier.Classify(body)
	switch {
	case p.detector.IsStop(body):
		msgIntent = intent.IntentStop
	case p.detector.IsHelp(body):
		msgIntent = intent.IntentHelp
	}
	parsed := p.parser.Parse(body, p.now())
	p.metrics.ObserveIntent(string(msgIntent))
	span.SetAttributes(
		attribute.String("sms.intent", string(msgIntent)),
		attribute.String("sms.parse_status", string(parsed.Status)),
	)

	res := &InboundResult{Intent: msgIntent, ParseStatus: parsed.Status}

	if _, err := p.store.Append(ctx, &Message{
		Direction:         DirectionIn,
		Channel:           in.Channel,
		Intent:            string(msgIntent),
		From:              from,
		To:                in.To,
		Body:              body,
		ProviderMessageID: in.ProviderMessageID,
	}); err != nil {
		p.logger.Error("inbound message not recorded", "from", from, "error", err)
	}

	if msgIntent == intent.IntentStop {
		// The provider confirms the opt-out itself; replying after STOP
		// would violate it.
		p.logger.Warn("sender opted out of sms", "from", from)
		return res
	}

	patient, err := p.patients.GetByPhone(ctx, from)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			p.logger.Warn("sms from unknown number", "from", from, "intent", string(msgIntent))
		} else {
			p.logger.Error("patient lookup failed", "from", from, "error", err)
		}
		if p.alerts != nil {
			p.alerts.UnknownSender(ctx, from, body)
		}
		return res
	}
	res.Patient = patient

	scheduled := true
	if parsed.Status == timeparse.StatusOK {
		appt, upsertErr := p.appointments.Upsert(ctx, &appointments.UpsertAppointmentRequest{
			PatientID:       patient.ID,
			Therapist:       patient.Therapist,
			Start:           *parsed.Start,
			DurationMinutes: *parsed.DurationMinutes,
			Status:          statusForIntent(msgIntent),
			Source:          appointments.SourceInbound,
			Note:            body,
		})
		if upsertErr != nil {
			p.logger.Error("appointment upsert failed", "patient_id", patient.ID, "error", upsertErr)
			scheduled = false
		} else {
			res.Appointment = appt
			p.logger.Info("appointment scheduled from sms",
				"patient_id", patient.ID,
				"start", appt.Start.Format(time.RFC3339),
				"status", string(appt.Status))
		}
	}

	replyIn := ReplyInput{
		PatientName: patient.Name,
		Intent:      msgIntent,
		ParseStatus: parsed.Status,
		Start:       parsed.Start,
	}
	if !scheduled {
		// The schedule was not touched, so the reply must not claim it was.
		replyIn = ReplyInput{PatientName: patient.Name, Intent: intent.IntentOther, ParseStatus: timeparse.StatusNoTimeFound}
	}
	res.Reply = p.replies.Build(replyIn)
	res.ReplySent = p.sendAndRecord(ctx, patient.Phone, res.Reply, "auto-reply", in.To)

	return res
}

// Send delivers an operator-initiated outbound message and records it.
func (p *Pipeline) Send(ctx context.Context, to, body, note string) (SendResult, error) {
	ctx, span := pipelineTracer.Start(ctx, "messaging.send")
	defer span.End()

	to = NormalizeE164(to)
	result, err := p.messenger.Send(ctx, to, body)
	record := &Message{
		Direction:         DirectionOut,
		Channel:           p.messenger.Channel(),
		To:                to,
		Body:              body,
		Note:              note,
		ProviderMessageID: result.SID,
	}
	if err != nil {
		p.metrics.ObserveSendFailure()
		span.RecordError(err)
		p.logger.Error("sms send failed", "to", to, "error", err)
		if p.alerts != nil {
			p.alerts.DeliveryFailure(ctx, to, err)
		}
		record.Note = appendNote(note, "send failed")
	}
	if _, appendErr := p.store.Append(ctx, record); appendErr != nil {
		p.logger.Error("outbound message not recorded", "to", to, "error", appendErr)
	}
	return result, err
}

// sendAndRecord pushes the auto-reply through the messenger and appends the
// outbound row, folding a send failure into the row note.
func (p *Pipeline) sendAndRecord(ctx context.Context, to, body, note, from string) bool {
	result, err := p.messenger.Send(ctx, to, body)
	record := &Message{
		Direction:         DirectionOut,
		Channel:           p.messenger.Channel(),
		From:              from,
		To:                to,
		Body:              body,
		Note:              note,
		ProviderMessageID: result.SID,
	}
	sent := err == nil
	if err != nil {
		p.metrics.ObserveSendFailure()
		p.logger.Error("auto-reply send failed", "to", to, "error", err)
		if p.alerts != nil {
			p.alerts.DeliveryFailure(ctx, to, err)
		}
		record.Note = appendNote(note, "send failed")
	}
	if _, appendErr := p.store.Append(ctx, record); appendErr != nil {
		p.logger.Error("outbound message not recorded", "to", to, "error", appendErr)
	}
	return sent
}

// statusForIntent maps a classified intent to the appointment status the
// upsert should carry.
func statusForIntent(in intent.Intent) appointments.Status {
	switch in {
	case intent.IntentConfirm:
		return appointments.StatusConfirmed
	case intent.IntentReschedule:
		return appointments.StatusReschedule
	case intent.IntentCancel:
		return appointments.StatusCanceled
	default:
		return appointments.StatusPending
	}
}

func appendNote(note, suffix string) string {
	if note == "" {
		return suffix
	}
	return note + " (" + suffix + ")"
}
