// FilePath: api/resources/api.resource.system.go
package resources

import (
	"net/http"
	"time"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/hubservice"
	nuts "github.com/vaudience/go-nuts"
)

// SystemHandlers serves health and monitoring endpoints
type SystemHandlers struct {
	hubservice *hubservice.HubService
}

// HealthStatus is the health endpoint payload
type HealthStatus struct {
	OK      bool   `json:"ok" msgpack:"ok"`
	Time    string `json:"time" msgpack:"time"`
	Version string `json:"version" msgpack:"version"`
}

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthStatus
// @Router /health [get]
func (h *SystemHandlers) Health(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, HealthStatus{
		OK:      true,
		Time:    h.hubservice.Now().UTC().Format(time.RFC3339),
		Version: nuts.GetVersion(),
	})
}

// @Summary Event counters
// @Description Cleanup and export events within a window, plus lifetime totals
// @Tags system
// @Produce json
// @Param event query string false "Event name, empty counts all events by name"
// @Param window query string false "Go duration, e.g. 1h" default(24h)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.APIError
// @Router /metrics [get]
func (h *SystemHandlers) Metrics(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var window time.Duration
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			respondWithError(w, errors.NewValidationError("invalid window", err).WithRequestID(requestID))
			return
		}
		window = d
	}

	event := r.URL.Query().Get("event")
	counts, err := h.hubservice.EventMetrics(event, window)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{
		"event":  event,
		"counts": counts,
		"totals": h.hubservice.EventTotals(),
	})
}
