// FilePath: api/resources/api.resource.export.go
package resources

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// ExportHandlers serves export downloads, export stats and the export log
type ExportHandlers struct {
	hubservice *hubservice.HubService
}

// @Summary Export readings
// @Description Download a sensor's readings as CSV, JSON, XLSX or PDF, optionally gzip-compressed
// @Tags export
// @Produce text/csv,application/json,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/pdf,application/gzip
// @Param sensor_id query string false "Sensor ID, defaults to the caller's sensor"
// @Param start query string false "Range start (epoch seconds, milliseconds or date), default 7 days ago"
// @Param end query string false "Range end, default now"
// @Param metrics query string false "Comma-separated metric keys, default all"
// @Param format query string false "csv, json, xlsx (excel) or pdf" default(csv)
// @Param includeRaw query string false "false omits the raw rows" default(true)
// @Param includeAnalytics query string false "true or 1 adds per-metric summaries" default(false)
// @Param compression query string false "true or 1 gzips the file" default(false)
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /export/readings [get]
// @Security BearerAuth
func (h *ExportHandlers) ExportReadings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var q models.ExportQuery
	if apiErr := decodeQuery(r, &q); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	result, err := h.hubservice.Export(r.Context(), q)
	if err != nil {
		fail(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", result.ContentDisposition())
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Body)))
	w.Header().Set("X-Export-Records", strconv.Itoa(result.Records))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Body); err != nil {
		nuts.L.Warnf("[API] Export download %s interrupted: %v", requestID, err)
	}
}

// @Summary Export statistics
// @Description Record counts and time span of a sensor over a range, default the last 30 days
// @Tags export
// @Produce json
// @Param sensor_id query string false "Sensor ID"
// @Param start query string false "Range start"
// @Param end query string false "Range end"
// @Success 200 {object} export.Stats
// @Failure 403 {object} errors.APIError
// @Router /export/stats [get]
// @Security BearerAuth
func (h *ExportHandlers) ExportStats(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var q models.RangeQuery
	if apiErr := decodeQuery(r, &q); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	stats, err := h.hubservice.ExportStats(r.Context(), &q)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, stats)
}

// @Summary Export history
// @Tags export
// @Produce json
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} map[string][]models.ExportLog
// @Router /export/logs [get]
// @Security BearerAuth
func (h *ExportHandlers) ListLogs(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	var page models.PageQuery
	if apiErr := decodeQuery(r, &page); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	logs, err := h.hubservice.ListExportLogs(r.Context(), &page)
	if err != nil {
		fail(w, err, requestID)
		return
	}
	respond(w, r, http.StatusOK, map[string][]*models.ExportLog{"logs": logs})
}

// @Summary Download an archived export again
// @Tags export
// @Produce octet-stream
// @Param id path string true "Export log ID"
// @Success 200 {file} file
// @Failure 404 {object} errors.APIError
// @Failure 503 {object} errors.APIError
// @Router /export/logs/{id}/download [get]
// @Security BearerAuth
func (h *ExportHandlers) DownloadLog(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	requestID := nuts.NID("req", 12)

	log, err := h.hubservice.ArchivedExport(r.Context(), id)
	if err != nil {
		fail(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", log.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", log.FileName))
	cw := &countingWriter{w: w}
	if err := h.hubservice.StreamExport(r.Context(), log, cw); err != nil {
		if cw.n == 0 {
			w.Header().Del("Content-Disposition")
			fail(w, err, requestID)
			return
		}
		nuts.L.Warnf("[API] Archive download %s interrupted: %v", requestID, err)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
