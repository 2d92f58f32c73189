package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by several counters.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics holds the storefront collectors. A nil *Metrics is valid and
// records nothing, which keeps tests and tools free of registry setup.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	ordersCreated  *prometheus.CounterVec
	confirmations  *prometheus.CounterVec
	settlements    *prometheus.CounterVec
	webhookEvents  *prometheus.CounterVec
	emails         *prometheus.CounterVec
	rateLimited    *prometheus.CounterVec
	gatewayPolls   *prometheus.CounterVec
	gatewayLatency prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_created_total",
			Help:      "Orders created at checkout by delivery type and gateway outcome.",
		}, []string{"delivery_type", "gateway"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "payment_confirmations_total",
			Help:      "Manual payment confirmations by method and amount match.",
		}, []string{"method", "amount_matches"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "order_settlements_total",
			Help:      "Confirm-payment calls by source and whether they changed the order.",
		}, []string{"source", "result"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "webhook_events_total",
			Help:      "Inbound gateway webhooks by event and outcome.",
		}, []string{"event", "outcome"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "emails_total",
			Help:      "Outbound notification emails by template and outcome.",
		}, []string{"template", "outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the form rate limiter.",
		}, []string{"route"}),
		gatewayPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "gateway_status_checks_total",
			Help:      "Gateway session status checks by resulting action.",
		}, []string{"action"}),
		gatewayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of calls to the payment gateway.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
	reg.MustRegister(
		m.httpRequests, m.httpDuration, m.ordersCreated, m.confirmations, m.settlements,
		m.webhookEvents, m.emails, m.rateLimited, m.gatewayPolls, m.gatewayLatency,
	)
	return m
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// OrderCreated counts a checkout. gatewayOK is false when the buyer was sent
// to the manual payment page.
func (m *Metrics) OrderCreated(deliveryType string, gatewayOK bool) {
	if m == nil {
		return
	}
	gateway := OutcomeOK
	if !gatewayOK {
		gateway = "manual"
	}
	m.ordersCreated.WithLabelValues(deliveryType, gateway).Inc()
}

// ConfirmationSubmitted counts a manual payment claim.
func (m *Metrics) ConfirmationSubmitted(method string, amountMatches bool) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(method, strconv.FormatBool(amountMatches)).Inc()
}

// Settlement counts a confirm-payment call.
func (m *Metrics) Settlement(source string, transitioned bool) {
	if m == nil {
		return
	}
	result := "settled"
	if !transitioned {
		result = "noop"
	}
	m.settlements.WithLabelValues(source, result).Inc()
}

// WebhookEvent counts an inbound webhook delivery.
func (m *Metrics) WebhookEvent(event, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(event, outcome).Inc()
}

// Email counts a notification send attempt.
func (m *Metrics) Email(template, outcome string) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(template, outcome).Inc()
}

// RateLimited counts a rejected form submission.
func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(route).Inc()
}

// GatewayCheck counts one status-check action taken by the worker.
func (m *Metrics) GatewayCheck(action string) {
	if m == nil {
		return
	}
	m.gatewayPolls.WithLabelValues(action).Inc()
}

// ObserveGateway records the latency of a gateway call.
func (m *Metrics) ObserveGateway(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.Observe(elapsed.Seconds())
}
