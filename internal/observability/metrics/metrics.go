package metrics

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics exposes counters/histograms for the assistant's HTTP and SMS flows.
// Collectors register on a private registry unless the caller supplies one, so
// two instances never collide on metric names.
type Metrics struct {
	gatherer prometheus.Gatherer
	start    time.Time

	requestsTotal  prometheus.Counter
	errorsTotal    prometheus.Counter
	requestLatency prometheus.Histogram
	intentsTotal   *prometheus.CounterVec
	sendFailures   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		start: time.Now(),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hha",
			Name:      "requests_total",
			Help:      "Total HTTP requests served",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hha",
			Name:      "errors_total",
			Help:      "Total requests that ended in a server error",
		}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hha",
			Name:      "request_latency_seconds",
			Help:      "Latency of HTTP request handling",
			Buckets:   prometheus.DefBuckets,
		}),
		intentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hha",
			Subsystem: "sms",
			Name:      "intents_total",
			Help:      "Inbound SMS messages by classified intent",
		}, []string{"intent"}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hha",
			Subsystem: "sms",
			Name:      "send_failures_total",
			Help:      "Outbound SMS sends that failed",
		}),
	}
	if reg == nil {
		registry := prometheus.NewRegistry()
		reg = registry
		m.gatherer = registry
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	reg.MustRegister(m.requestsTotal, m.errorsTotal, m.requestLatency, m.intentsTotal, m.sendFailures)
	return m
}

// ObserveRequest records one served request and its latency.
func (m *Metrics) ObserveRequest(seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
	m.requestLatency.Observe(seconds)
}

func (m *Metrics) ObserveError() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

func (m *Metrics) ObserveIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *Metrics) ObserveSendFailure() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

// UptimeSeconds reports seconds since the metrics instance was created,
// rounded to two decimals for the health and metrics payloads.
func (m *Metrics) UptimeSeconds() float64 {
	if m == nil {
		return 0
	}
	return math.Round(time.Since(m.start).Seconds()*100) / 100
}

// Gatherer returns the registry backing this instance, or nil when the
// caller registered on a Registerer that cannot gather.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.gatherer
}

// RequestSnapshot is a point-in-time read of the request counters, shaped
// for the legacy JSON metrics payload.
type RequestSnapshot struct {
	Requests          int64   `json:"requests"`
	Errors            int64   `json:"errors"`
	AvgLatencySeconds float64 `json:"avg_latency_seconds"`
}

// Snapshot gathers the registry and folds the request counters into a
// RequestSnapshot. Average latency comes from the histogram sum over its
// sample count, rounded to five decimals.
func (m *Metrics) Snapshot() RequestSnapshot {
	var snap RequestSnapshot
	if m == nil || m.gatherer == nil {
		return snap
	}
	mfs, err := m.gatherer.Gather()
	if err != nil {
		return snap
	}
	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case "hha_requests_total":
			snap.Requests = int64(counterValue(mf))
		case "hha_errors_total":
			snap.Errors = int64(counterValue(mf))
		case "hha_request_latency_seconds":
			for _, metric := range mf.Metric {
				h := metric.GetHistogram()
				if h == nil || h.GetSampleCount() == 0 {
					continue
				}
				avg := h.GetSampleSum() / float64(h.GetSampleCount())
				snap.AvgLatencySeconds = math.Round(avg*1e5) / 1e5
			}
		}
	}
	return snap
}

// IntentCounts gathers the registry and returns inbound message counts
// keyed by intent label.
func (m *Metrics) IntentCounts() map[string]int64 {
	counts := map[string]int64{}
	if m == nil || m.gatherer == nil {
		return counts
	}
	mfs, err := m.gatherer.Gather()
	if err != nil {
		return counts
	}
	for _, mf := range mfs {
		if mf == nil || mf.GetName() != "hha_sms_intents_total" {
			continue
		}
		for _, metric := range mf.Metric {
			if metric == nil {
				continue
			}
			value := int64(metric.GetCounter().GetValue())
			for _, lp := range metric.Label {
				if lp.GetName() == "intent" {
					counts[lp.GetValue()] += value
				}
			}
		}
	}
	return counts
}

func counterValue(mf *dto.MetricFamily) float64 {
	var total float64
	for _, metric := range mf.Metric {
		if metric == nil {
			continue
		}
		total += metric.GetCounter().GetValue()
	}
	return total
}
