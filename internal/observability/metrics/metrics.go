package metrics

import "github.com/prometheus/client_golang/prometheus"

// InterviewMetrics exposes counters/histograms for the interview flow.
type InterviewMetrics struct {
	sessionsStarted *prometheus.CounterVec
	questionsAsked  prometheus.Counter
	topicSwitches   *prometheus.CounterVec
	gatewayFailures *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	reportsProduced *prometheus.CounterVec
}

func NewInterviewMetrics(reg prometheus.Registerer) *InterviewMetrics {
	m := &InterviewMetrics{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockvox",
			Subsystem: "interview",
			Name:      "sessions_started_total",
			Help:      "Total interview sessions initialized",
		}, []string{"backend"}),
		questionsAsked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mockvox",
			Subsystem: "interview",
			Name:      "questions_asked_total",
			Help:      "Total questions issued across all sessions",
		}),
		topicSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockvox",
			Subsystem: "interview",
			Name:      "topic_switches_total",
			Help:      "Total forced topic rotations",
		}, []string{"topic"}),
		gatewayFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockvox",
			Subsystem: "gateway",
			Name:      "failures_total",
			Help:      "Total external gateway call failures",
		}, []string{"gateway"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mockvox",
			Subsystem: "gateway",
			Name:      "latency_seconds",
			Help:      "Latency of external gateway calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"gateway"}),
		reportsProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockvox",
			Subsystem: "interview",
			Name:      "reports_produced_total",
			Help:      "Total final critiques produced",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.sessionsStarted,
		m.questionsAsked,
		m.topicSwitches,
		m.gatewayFailures,
		m.gatewayLatency,
		m.reportsProduced,
	)
	return m
}

func (m *InterviewMetrics) ObserveSessionStarted(backend string) {
	if m == nil {
		return
	}
	m.sessionsStarted.WithLabelValues(backend).Inc()
}

func (m *InterviewMetrics) ObserveQuestionAsked() {
	if m == nil {
		return
	}
	m.questionsAsked.Inc()
}

func (m *InterviewMetrics) ObserveTopicSwitch(topic string) {
	if m == nil {
		return
	}
	m.topicSwitches.WithLabelValues(topic).Inc()
}

func (m *InterviewMetrics) ObserveGatewayFailure(gateway string) {
	if m == nil {
		return
	}
	m.gatewayFailures.WithLabelValues(gateway).Inc()
}

func (m *InterviewMetrics) ObserveGatewayLatency(gateway string, seconds float64) {
	if m == nil {
		return
	}
	m.gatewayLatency.WithLabelValues(gateway).Observe(seconds)
}

// ObserveReport records a critique outcome: "ok", "fallback", or "error".
func (m *InterviewMetrics) ObserveReport(outcome string) {
	if m == nil {
		return
	}
	m.reportsProduced.WithLabelValues(outcome).Inc()
}
