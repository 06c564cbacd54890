package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	applicationsCreatedTotal   atomic.Uint64
	applicationsSubmittedTotal atomic.Uint64
	applicationsApprovedTotal  atomic.Uint64
	applicationsRejectedTotal  atomic.Uint64
	transitionsRejectedTotal   atomic.Uint64
	notificationsSentTotal     atomic.Uint64
	notificationsFailedTotal   atomic.Uint64

	decisionLatency = newHistogram([]float64{1000, 5000, 30000, 60000, 300000, 900000, 3600000, 86400000})
)

// IncApplicationCreated increments the created counter.
func IncApplicationCreated() {
	applicationsCreatedTotal.Add(1)
}

// IncApplicationSubmitted increments the submitted counter.
func IncApplicationSubmitted() {
	applicationsSubmittedTotal.Add(1)
}

// IncApplicationDecided increments the approved or rejected counter.
func IncApplicationDecided(approved bool) {
	if approved {
		applicationsApprovedTotal.Add(1)
	} else {
		applicationsRejectedTotal.Add(1)
	}
}

// IncTransitionRejected increments the illegal-transition counter.
func IncTransitionRejected() {
	transitionsRejectedTotal.Add(1)
}

// IncNotificationSent increments the notification delivery counter.
func IncNotificationSent() {
	notificationsSentTotal.Add(1)
}

// IncNotificationFailed increments the notification failure counter.
func IncNotificationFailed() {
	notificationsFailedTotal.Add(1)
}

// ObserveDecisionLatencyMs records submission-to-decision latency in milliseconds.
func ObserveDecisionLatencyMs(value float64) {
	if value < 0 {
		value = 0
	}
	decisionLatency.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "loan_applications_created_total", "Total loan applications created", applicationsCreatedTotal.Load())
	writeCounter(&buf, "loan_applications_submitted_total", "Total loan applications submitted", applicationsSubmittedTotal.Load())
	writeCounter(&buf, "loan_applications_approved_total", "Total loan applications approved", applicationsApprovedTotal.Load())
	writeCounter(&buf, "loan_applications_rejected_total", "Total loan applications rejected", applicationsRejectedTotal.Load())
	writeCounter(&buf, "workflow_transitions_rejected_total", "Total illegal workflow transitions rejected", transitionsRejectedTotal.Load())
	writeCounter(&buf, "notifications_sent_total", "Total notifications delivered", notificationsSentTotal.Load())
	writeCounter(&buf, "notifications_failed_total", "Total notifications that failed delivery", notificationsFailedTotal.Load())
	writeHistogram(&buf, "decision_latency_ms", "Submission-to-decision latency in milliseconds", decisionLatency.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
