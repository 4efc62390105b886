package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vibast-solutions/ms-go-mailqueue/app/queue"
)

// Metrics groups the queue instruments. Build it once per process with New.
type Metrics struct {
	MessagesProcessed *prometheus.CounterVec
	ProcessingSeconds prometheus.Histogram
	JobsPublished     *prometheus.CounterVec
	RetriesScheduled  prometheus.Counter
	DeadLettered      prometheus.Counter
}

// New registers every instrument with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailqueue_messages_processed_total",
			Help: "Stream entries processed by the email consumer, by outcome.",
		}, []string{"outcome"}),

		ProcessingSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailqueue_processing_seconds",
			Help:    "Time from dequeue to the final acknowledgement decision.",
			Buckets: prometheus.DefBuckets,
		}),

		JobsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mailqueue_jobs_published_total",
			Help: "Publish attempts, by result.",
		}, []string{"result"}),

		RetriesScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailqueue_retries_scheduled_total",
			Help: "Failed deliveries parked for a delayed retry.",
		}),

		DeadLettered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mailqueue_dead_lettered_total",
			Help: "Jobs moved to the dead-letter stream.",
		}),
	}

	reg.MustRegister(
		m.MessagesProcessed,
		m.ProcessingSeconds,
		m.JobsPublished,
		m.RetriesScheduled,
		m.DeadLettered,
	)

	return m
}

// QueueHooks adapts the instruments to the queue callbacks.
func (m *Metrics) QueueHooks() queue.Hooks {
	return queue.Hooks{
		Published: func(err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			m.JobsPublished.WithLabelValues(result).Inc()
		},
		Processed: func(outcome queue.Outcome, elapsed time.Duration) {
			m.MessagesProcessed.WithLabelValues(string(outcome)).Inc()
			m.ProcessingSeconds.Observe(elapsed.Seconds())
		},
		RetryScheduled: m.RetriesScheduled.Inc,
		DeadLettered:   m.DeadLettered.Inc,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
