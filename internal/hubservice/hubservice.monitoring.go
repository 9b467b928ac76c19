// FilePath: internal/hubservice/hubservice.monitoring.go
package hubservice

import (
	"time"

	"github.com/dosense/dohub/internal/cleanup"
	nuts "github.com/vaudience/go-nuts"
)

const defaultMetricsWindow = 24 * time.Hour

// EventMetrics counts monitored events of eventType within window, 24 hours by default.
// An empty eventType counts every event by name.
func (s *HubService) EventMetrics(eventType string, window time.Duration) (map[string]int64, error) {
	if window <= 0 {
		window = defaultMetricsWindow
	}
	return s.Monitoring.GetEventMetrics(eventType, window)
}

// EventTotals returns lifetime event counts
func (s *HubService) EventTotals() map[string]int64 {
	return s.Monitoring.Totals()
}

// recordCleanupEvents forwards cleanup events to monitoring
func (s *HubService) recordCleanupEvents() {
	for _, event := range []string{cleanup.EventAccountDeleted, cleanup.EventSensorDeleted, cleanup.EventReadingsPruned} {
		event := event
		s.Cleanup.OnCleanup(event, func(id string) {
			nuts.L.Infof("[Cleanup] %s: %s", event, id)
			s.Monitoring.RecordEvent(event, map[string]string{"id": id})
		})
	}
}
