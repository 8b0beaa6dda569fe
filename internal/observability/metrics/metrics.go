package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for intake, chat and dashboard flows.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	webhookTotal     *prometheus.CounterVec
	chatRepliesTotal *prometheus.CounterVec
	updatesTotal     *prometheus.CounterVec
	storeLatency     *prometheus.HistogramVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions by outcome",
		}, []string{"source", "outcome"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "leads",
			Name:      "webhook_total",
			Help:      "Secondary webhook deliveries by outcome",
		}, []string{"outcome"}),
		chatRepliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Chat replies by mode and topic",
		}, []string{"mode", "topic"}),
		updatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "contractor",
			Subsystem: "dashboard",
			Name:      "updates_total",
			Help:      "Dashboard lead updates by outcome",
		}, []string{"outcome"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "contractor",
			Subsystem: "leads",
			Name:      "store_write_seconds",
			Help:      "Latency of primary lead store writes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.webhookTotal, m.chatRepliesTotal, m.updatesTotal, m.storeLatency)
	return m
}

func (m *LeadMetrics) ObserveSubmission(source, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(source, outcome).Inc()
}

func (m *LeadMetrics) ObserveWebhook(success bool) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

func (m *LeadMetrics) ObserveChatReply(mode, topic string) {
	if m == nil {
		return
	}
	m.chatRepliesTotal.WithLabelValues(mode, topic).Inc()
}

func (m *LeadMetrics) ObserveUpdate(success bool) {
	if m == nil {
		return
	}
	m.updatesTotal.WithLabelValues(outcomeLabel(success)).Inc()
}

func (m *LeadMetrics) ObserveStoreLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(operation).Observe(seconds)
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
