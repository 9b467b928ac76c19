// FilePath: api/resources/api.resource.readings.go
package resources

import (
	"net/http"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// ReadingHandlers encapsulates ingest and dashboard reading handlers
type ReadingHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Ingest a reading
// @Description Devices push one reading; every metric and the timestamp are optional
// @Tags readings
// @Accept json
// @Produce json
// @Param X-API-Key header string true "Sensor API key"
// @Param reading body models.ReadingInput true "Reading"
// @Success 201 {object} map[string]models.Reading
// @Failure 401 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /readings [post]
func (h *ReadingHandlers) Ingest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	sensor, ok := hubservice.SensorFromContext(r.Context())
	if !ok {
		respondWithError(w, errors.NewAuthError("Missing x-api-key header", nil).WithRequestID(requestID))
		return
	}

	var in models.ReadingInput
	if apiErr := decodeBody(r, &in); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	reading, err := h.hubservice.IngestReading(r.Context(), sensor, &in)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusCreated, map[string]*models.Reading{"reading": reading})
}

// @Summary Latest reading
// @Tags readings
// @Produce json
// @Param sensor_id query string false "Sensor ID, defaults to the caller's sensor"
// @Success 200 {object} map[string]models.Reading
// @Failure 403 {object} errors.APIError
// @Router /readings/latest [get]
// @Security BearerAuth
func (h *ReadingHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	sensorID, ok := h.sensorID(w, r, requestID)
	if !ok {
		return
	}
	reading, err := h.hubservice.LatestReading(r.Context(), sensorID)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]*models.Reading{"reading": reading})
}

// @Summary Recent readings
// @Description Up to limit readings from the last limit minutes
// @Tags readings
// @Produce json
// @Param sensor_id query string false "Sensor ID"
// @Param limit query int false "Row cap and window in minutes" default(500)
// @Success 200 {object} models.ReadingHistory
// @Failure 403 {object} errors.APIError
// @Router /readings/history [get]
// @Security BearerAuth
func (h *ReadingHandlers) History(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var q models.HistoryQuery
	if apiErr := decodeQuery(r, &q); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	sensorID, err := h.hubservice.ResolveSensorID(r.Context(), q.SensorID)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	q.SensorID = sensorID

	history, err := h.hubservice.History(r.Context(), &q)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, history)
}

// @Summary Reading count and time span
// @Tags readings
// @Produce json
// @Param sensor_id query string false "Sensor ID"
// @Success 200 {object} models.ReadingStats
// @Router /readings/stats [get]
// @Security BearerAuth
func (h *ReadingHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	sensorID, ok := h.sensorID(w, r, requestID)
	if !ok {
		return
	}
	stats, err := h.hubservice.ReadingStats(r.Context(), sensorID)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, stats)
}

// @Summary Approximate storage used by the caller's readings
// @Tags readings
// @Produce json
// @Success 200 {object} models.StorageInfo
// @Router /readings/storage-info [get]
// @Security BearerAuth
func (h *ReadingHandlers) StorageInfo(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	info, err := h.hubservice.StorageInfo(r.Context())
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, info)
}

// @Summary Extended statistics per metric
// @Tags readings
// @Produce json
// @Param sensor_id query string false "Sensor ID"
// @Param start query string false "Range start (epoch seconds, milliseconds or date)"
// @Param end query string false "Range end"
// @Success 200 {object} hubservice.ReadingSummary
// @Failure 403 {object} errors.APIError
// @Router /readings/summary [get]
// @Security BearerAuth
func (h *ReadingHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	q, ok := h.rangeQuery(w, r, requestID)
	if !ok {
		return
	}
	summary, err := h.hubservice.Summary(r.Context(), q)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, summary)
}

// @Summary Interval averages
// @Tags readings
// @Produce json
// @Param sensor_id query string false "Sensor ID"
// @Param start query string false "Range start"
// @Param end query string false "Range end"
// @Param interval query int false "Bucket width in seconds" default(3600)
// @Success 200 {object} map[string][]models.ReadingBucket
// @Failure 403 {object} errors.APIError
// @Router /readings/buckets [get]
// @Security BearerAuth
func (h *ReadingHandlers) Buckets(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	q, ok := h.rangeQuery(w, r, requestID)
	if !ok {
		return
	}
	buckets, err := h.hubservice.Buckets(r.Context(), q)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{"sensor_id": q.SensorID, "buckets": buckets})
}

func (h *ReadingHandlers) sensorID(w http.ResponseWriter, r *http.Request, requestID string) (string, bool) {
	sensorID, err := h.hubservice.ResolveSensorID(r.Context(), r.URL.Query().Get("sensor_id"))
	if err != nil {
		fail(w, err, requestID)
		return "", false
	}
	return sensorID, true
}

func (h *ReadingHandlers) rangeQuery(w http.ResponseWriter, r *http.Request, requestID string) (*models.RangeQuery, bool) {
	var q models.RangeQuery
	if apiErr := decodeQuery(r, &q); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return nil, false
	}
	sensorID, err := h.hubservice.ResolveSensorID(r.Context(), q.SensorID)
	if err != nil {
		fail(w, err, requestID)
		return nil, false
	}
	q.SensorID = sensorID
	return &q, true
}
