package core

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is an independent snapshot of a Statistics facet's counters.
type Stats struct {
	MessagesAccepted   int64
	MessagesProcessed  int64
	ProcessingErrors   int64
	QueueFullEvents    int64
	TimeSlicesReceived int64
	TotalProcessingTime time.Duration
}

// ProcessingMetrics extends Stats with the derived average.
type ProcessingMetrics struct {
	Stats
	AverageProcessingTime time.Duration
}

// Statistics is the counters-and-derived-metrics facet.
type Statistics struct {
	FacetBase

	mu    sync.Mutex
	stats Stats

	promMessagesAccepted  prometheus.Counter
	promMessagesProcessed prometheus.Counter
	promProcessingErrors  prometheus.Counter
	promQueueFullEvents   prometheus.Counter
	promTimeSlices        prometheus.Counter
	promTotalProcessingMs prometheus.Counter
}

// NewStatisticsFacet constructs a Statistics facet.
func NewStatisticsFacet() *Statistics {
	s := &Statistics{FacetBase: NewFacetBase("statistics")}
	s.SetProperty("stats", &s.stats)
	return s
}

// RecordAccepted increments messagesAccepted.
func (s *Statistics) RecordAccepted() {
	s.mu.Lock()
	s.stats.MessagesAccepted++
	s.mu.Unlock()
	if s.promMessagesAccepted != nil {
		s.promMessagesAccepted.Inc()
	}
}

// RecordProcessed increments messagesProcessed and accumulates duration into
// totalProcessingTime.
func (s *Statistics) RecordProcessed(d time.Duration) {
	s.mu.Lock()
	s.stats.MessagesProcessed++
	s.stats.TotalProcessingTime += d
	s.mu.Unlock()
	if s.promMessagesProcessed != nil {
		s.promMessagesProcessed.Inc()
		s.promTotalProcessingMs.Add(float64(d.Milliseconds()))
	}
}

// RecordProcessingError increments processingErrors.
func (s *Statistics) RecordProcessingError() {
	s.mu.Lock()
	s.stats.ProcessingErrors++
	s.mu.Unlock()
	if s.promProcessingErrors != nil {
		s.promProcessingErrors.Inc()
	}
}

// RecordQueueFull increments queueFullEvents — the Queue facet subscribes
// this to BoundedQueue's full event.
func (s *Statistics) RecordQueueFull() {
	s.mu.Lock()
	s.stats.QueueFullEvents++
	s.mu.Unlock()
	if s.promQueueFullEvents != nil {
		s.promQueueFullEvents.Inc()
	}
}

// RecordTimeSlice increments timeSlicesReceived.
func (s *Statistics) RecordTimeSlice() {
	s.mu.Lock()
	s.stats.TimeSlicesReceived++
	s.mu.Unlock()
	if s.promTimeSlices != nil {
		s.promTimeSlices.Inc()
	}
}

// GetStatistics returns an independent copy of the counters.
func (s *Statistics) GetStatistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// GetProcessingMetrics returns the counters plus the derived average,
// defined as 0 when messagesProcessed is 0.
func (s *Statistics) GetProcessingMetrics() ProcessingMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	var avg time.Duration
	if s.stats.MessagesProcessed > 0 {
		avg = s.stats.TotalProcessingTime / time.Duration(s.stats.MessagesProcessed)
	}
	return ProcessingMetrics{Stats: s.stats, AverageProcessingTime: avg}
}

// Reset zeroes every counter.
func (s *Statistics) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = Stats{}
}

// RegisterCollector registers Prometheus counters mirroring GetStatistics's
// fields into reg. This is additive instrumentation only: it never changes
// the values GetStatistics/GetProcessingMetrics return.
func (s *Statistics) RegisterCollector(reg *prometheus.Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.promMessagesAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subsystem_messages_accepted_total", Help: "Total messages accepted.",
	})
	s.promMessagesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subsystem_messages_processed_total", Help: "Total messages processed.",
	})
	s.promProcessingErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subsystem_processing_errors_total", Help: "Total handler processing errors.",
	})
	s.promQueueFullEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subsystem_queue_full_events_total", Help: "Total queue-full overflow events.",
	})
	s.promTimeSlices = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subsystem_time_slices_total", Help: "Total scheduler time slices received.",
	})
	s.promTotalProcessingMs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subsystem_processing_time_ms_total", Help: "Total processing time in milliseconds.",
	})

	reg.MustRegister(
		s.promMessagesAccepted,
		s.promMessagesProcessed,
		s.promProcessingErrors,
		s.promQueueFullEvents,
		s.promTimeSlices,
		s.promTotalProcessingMs,
	)
}
