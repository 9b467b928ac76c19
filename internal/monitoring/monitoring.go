// FilePath: internal/monitoring/monitoring.go
package monitoring

import (
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

const defaultMaxEvents = 10000

// Config holds monitoring configuration
type Config struct {
	// MaxEvents bounds the in-memory event history used for windowed metrics
	MaxEvents int
	Now       func() time.Time
}

type event struct {
	name   string
	at     time.Time
	labels map[string]string
}

// Service records cleanup and export events and answers windowed counts
type Service struct {
	config Config

	mu     sync.Mutex
	events []event
	totals map[string]int64
}

// NewService creates a new monitoring service
func NewService(config Config) *Service {
	if config.MaxEvents <= 0 {
		config.MaxEvents = defaultMaxEvents
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Service{
		config: config,
		totals: make(map[string]int64),
	}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	ts := s.config.Now()

	s.mu.Lock()
	s.totals[eventName]++
	s.events = append(s.events, event{name: eventName, at: ts, labels: labels})
	if over := len(s.events) - s.config.MaxEvents; over > 0 {
		s.events = append([]event(nil), s.events[over:]...)
	}
	s.mu.Unlock()

	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, ts.UTC().Format(time.RFC3339), labels)
}

// GetEventMetrics counts events of eventType within the last duration, keyed by
// the value of their "id" label plus a "total" entry. An empty eventType counts
// every event by name instead.
func (s *Service) GetEventMetrics(eventType string, duration time.Duration) (map[string]int64, error) {
	since := s.config.Now().Add(-duration)
	out := map[string]int64{"total": 0}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.at.Before(since) {
			continue
		}
		if eventType == "" {
			out[e.name]++
			out["total"]++
			continue
		}
		if e.name != eventType {
			continue
		}
		out["total"]++
		if id := e.labels["id"]; id != "" {
			out[id]++
		}
	}
	return out, nil
}

// Totals returns lifetime counts per event name
func (s *Service) Totals() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.totals))
	for k, v := range s.totals {
		out[k] = v
	}
	return out
}
