// FilePath: api/resources/api.resource.devices.go
package resources

import (
	"net/http"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceHandlers serves the device-key endpoints other than ingest
type DeviceHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Log a calibration
// @Tags devices
// @Accept json
// @Produce json
// @Param X-API-Key header string true "Sensor API key"
// @Param body body models.CalibrationRequest true "zero or span calibration"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.APIError
// @Router /calibrate [post]
func (h *DeviceHandlers) Calibrate(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	sensor, ok := hubservice.SensorFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("Missing x-api-key header", nil).WithRequestID(requestID))
		return
	}

	var req models.CalibrationRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	event, err := h.hubservice.Calibrate(r.Context(), sensor, &req)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{
		"success":   true,
		"mode":      event.Mode,
		"timestamp": event.Timestamp,
		"message":   string(event.Mode) + " calibration completed",
	})
}

// @Summary Set the DAC output value
// @Tags devices
// @Accept json
// @Produce json
// @Param X-API-Key header string true "Sensor API key"
// @Param body body models.DACRequest true "Corrected DO, null clears"
// @Success 200 {object} map[string]interface{}
// @Router /dac [post]
func (h *DeviceHandlers) SetDAC(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	sensor, ok := hubservice.SensorFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("Missing x-api-key header", nil).WithRequestID(requestID))
		return
	}

	var req models.DACRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	setting, err := h.hubservice.SetDAC(r.Context(), sensor, &req)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{
		"success":      true,
		"corrected_do": setting.CorrectedDO,
		"timestamp":    setting.UpdatedAt,
		"message":      "DAC setting updated",
	})
}
