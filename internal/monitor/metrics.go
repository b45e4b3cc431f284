package monitor

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dealCreationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_creation_total",
			Help: "Total number of deal creations",
		},
		[]string{"status"},
	)

	dealTransitionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_transition_total",
			Help: "Total number of deal status transitions",
		},
		[]string{"from", "to", "status"},
	)

	dealMessageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deal_message_total",
			Help: "Total number of deal thread messages",
		},
		[]string{"system"},
	)

	notificationDeliveryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_delivery_total",
			Help: "Total number of notification side-channel deliveries",
		},
		[]string{"channel", "status"},
	)

	wsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Number of live websocket connections",
		},
	)

	wsEventTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_event_total",
			Help: "Total number of websocket events pushed",
		},
		[]string{"type", "status"},
	)

	userLoginTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_login_total",
			Help: "Total number of user logins",
		},
		[]string{"status"},
	)

	userRegistrationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_registration_total",
			Help: "Total number of user registrations",
		},
		[]string{"status"},
	)

	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	queueMessageTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_message_total",
			Help: "Total number of queue messages",
		},
		[]string{"topic", "operation", "status"},
	)

	memoryUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)

	goroutineCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "goroutine_count",
			Help: "Number of goroutines",
		},
	)
)

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordDealCreation records a deal creation attempt
func RecordDealCreation(ok bool) {
	dealCreationTotal.WithLabelValues(outcome(ok)).Inc()
}

// RecordDealTransition records a deal status transition attempt
func RecordDealTransition(from, to string, ok bool) {
	dealTransitionTotal.WithLabelValues(from, to, outcome(ok)).Inc()
}

// RecordDealMessage records a message appended to a deal thread
func RecordDealMessage(system bool) {
	dealMessageTotal.WithLabelValues(strconv.FormatBool(system)).Inc()
}

// RecordNotificationDelivery records a side-channel delivery attempt
func RecordNotificationDelivery(channel string, ok bool) {
	notificationDeliveryTotal.WithLabelValues(channel, outcome(ok)).Inc()
}

// SetWSConnections updates the live connection gauge
func SetWSConnections(n int) {
	wsConnections.Set(float64(n))
}

// RecordWSEvent records a websocket event push attempt
func RecordWSEvent(eventType string, ok bool) {
	wsEventTotal.WithLabelValues(eventType, outcome(ok)).Inc()
}

// RecordUserLogin records a login attempt
func RecordUserLogin(ok bool) {
	userLoginTotal.WithLabelValues(outcome(ok)).Inc()
}

// RecordUserRegistration records a registration attempt
func RecordUserRegistration(ok bool) {
	userRegistrationTotal.WithLabelValues(outcome(ok)).Inc()
}

// RecordHTTPRequest records a completed HTTP request
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordQueueMessage records a queue publish or consume
func RecordQueueMessage(topic, operation string, ok bool) {
	queueMessageTotal.WithLabelValues(topic, operation, outcome(ok)).Inc()
}

// StartSystemMetricsCollection samples runtime stats until ctx is done
func StartSystemMetricsCollection(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			memoryUsage.Set(float64(m.Alloc))
			goroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}
