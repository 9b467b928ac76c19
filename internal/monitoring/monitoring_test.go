package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMetricsWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(Config{Now: func() time.Time { return now }})

	svc.RecordEvent("sensor.deleted", map[string]string{"id": "sen_1"})
	now = now.Add(2 * time.Hour)
	svc.RecordEvent("sensor.deleted", map[string]string{"id": "sen_2"})
	svc.RecordEvent("export.completed", map[string]string{"id": "exp_1"})

	m, err := svc.GetEventMetrics("sensor.deleted", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"total": 1, "sen_2": 1}, m)

	all, err := svc.GetEventMetrics("", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"total": 3, "sensor.deleted": 2, "export.completed": 1}, all)

	assert.Equal(t, int64(2), svc.Totals()["sensor.deleted"])
}

func TestEventHistoryIsBounded(t *testing.T) {
	svc := NewService(Config{MaxEvents: 2})
	for i := 0; i < 5; i++ {
		svc.RecordEvent("readings.pruned", nil)
	}
	m, err := svc.GetEventMetrics("", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m["total"])
	assert.Equal(t, int64(5), svc.Totals()["readings.pruned"])
}
