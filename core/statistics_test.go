package core

import (
	"testing"
	"time"
)

func TestStatisticsDerivedAverage(t *testing.T) {
	s := NewStatisticsFacet()
	if m := s.GetProcessingMetrics(); m.AverageProcessingTime != 0 {
		t.Fatalf("expected zero average with no processed messages")
	}

	s.RecordProcessed(10 * time.Millisecond)
	s.RecordProcessed(20 * time.Millisecond)

	m := s.GetProcessingMetrics()
	if m.MessagesProcessed != 2 {
		t.Fatalf("expected 2 processed, got %d", m.MessagesProcessed)
	}
	if m.AverageProcessingTime != 15*time.Millisecond {
		t.Fatalf("expected average 15ms, got %v", m.AverageProcessingTime)
	}
}

func TestStatisticsResetZeroesCounters(t *testing.T) {
	s := NewStatisticsFacet()
	s.RecordAccepted()
	s.RecordQueueFull()
	s.Reset()

	got := s.GetStatistics()
	if got != (Stats{}) {
		t.Fatalf("expected zeroed stats, got %+v", got)
	}
}

func TestStatisticsGetStatisticsIsIndependentCopy(t *testing.T) {
	s := NewStatisticsFacet()
	s.RecordAccepted()
	snap := s.GetStatistics()
	s.RecordAccepted()
	if snap.MessagesAccepted != 1 {
		t.Fatalf("expected snapshot to be unaffected by later mutation")
	}
}
