package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seedbot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seedbot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	lifecycleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seedbot",
			Subsystem: "sowing",
			Name:      "operations_total",
			Help:      "Sowing lifecycle operations by result.",
		},
		[]string{"op", "result"},
	)
	actuatorCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seedbot",
			Subsystem: "actuator",
			Name:      "commands_total",
			Help:      "Commands sent to the sowing actuator.",
		},
		[]string{"method", "success"},
	)
	actuatorCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seedbot",
			Subsystem: "actuator",
			Name:      "command_duration_seconds",
			Help:      "Actuator command round trip in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	actuatorNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seedbot",
			Subsystem: "actuator",
			Name:      "notifications_total",
			Help:      "Actuator status notifications by reduced status.",
		},
		[]string{"status"},
	)
	coapRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seedbot",
			Subsystem: "coap",
			Name:      "requests_total",
			Help:      "Device-facing CoAP requests by resource and response code.",
		},
		[]string{"resource", "code"},
	)
	cellsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seedbot",
			Subsystem: "telemetry",
			Name:      "cells_total",
			Help:      "Completed cell reports by storage outcome.",
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			lifecycleOps,
			actuatorCommands, actuatorCommandDuration, actuatorNotifications,
			coapRequests, cellsSaved,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordLifecycle(op string, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	lifecycleOps.WithLabelValues(op, result).Inc()
}

func RecordActuatorCommand(method string, duration time.Duration, success bool) {
	RegisterMetrics()
	actuatorCommands.WithLabelValues(method, strconv.FormatBool(success)).Inc()
	actuatorCommandDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func RecordNotification(status string) {
	RegisterMetrics()
	actuatorNotifications.WithLabelValues(status).Inc()
}

func RecordCoAPRequest(resource, code string) {
	RegisterMetrics()
	coapRequests.WithLabelValues(resource, code).Inc()
}

func RecordCellSaved(outcome string) {
	RegisterMetrics()
	cellsSaved.WithLabelValues(outcome).Inc()
}
