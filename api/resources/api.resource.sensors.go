// FilePath: api/resources/api.resource.sensors.go
package resources

import (
	"net/http"

	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// SensorHandlers encapsulates the sensor registry handlers
type SensorHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary List sensors
// @Description List the caller's sensors, newest first
// @Tags sensors
// @Produce json
// @Success 200 {object} map[string][]models.Sensor
// @Router /sensors [get]
// @Security BearerAuth
func (h *SensorHandlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	sensors, err := h.hubservice.ListSensors(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string][]*models.Sensor{"sensors": sensors})
}

// @Summary Regenerate a sensor API key
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/regenerate-key [post]
// @Security BearerAuth
func (h *SensorHandlers) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	sensor, err := h.hubservice.RegenerateAPIKey(r.Context(), id)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{
		"sensor":  sensor,
		"message": "API key regenerated successfully. Update your sensor with the new key.",
	})
}

// @Summary Delete a sensor
// @Description Delete a sensor with its readings and calibration data
// @Tags sensors
// @Param id path string true "Sensor ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id} [delete]
// @Security BearerAuth
func (h *SensorHandlers) DeleteSensor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	if err := h.hubservice.DeleteSensor(r.Context(), id); err != nil {
		fail(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Calibration history
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Param limit query int false "Maximum events"
// @Success 200 {object} map[string][]models.CalibrationEvent
// @Failure 403 {object} errors.APIError
// @Router /sensors/{id}/calibrations [get]
// @Security BearerAuth
func (h *SensorHandlers) ListCalibrations(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	var page models.PageQuery
	if apiErr := decodeQuery(r, &page); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	events, err := h.hubservice.CalibrationHistory(r.Context(), id, page.Limit)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string][]*models.CalibrationEvent{"events": events})
}
