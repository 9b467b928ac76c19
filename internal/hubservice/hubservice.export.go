// FilePath: internal/hubservice/hubservice.export.go
package hubservice

import (
	"context"
	"io"
	"strconv"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/export"
	"github.com/dosense/dohub/internal/models"
	"github.com/dosense/dohub/internal/repository/cache"
	nuts "github.com/vaudience/go-nuts"
)

const EventExportCompleted = "export.completed"

// Export produces a download for the caller and records it in the export log
func (s *HubService) Export(ctx context.Context, q models.ExportQuery) (*export.Result, error) {
	userID := GetUserID(ctx)
	if userID == "" {
		return nil, errors.NewAuthError("no user context found", nil)
	}

	req, err := export.ParseRequest(q, s.config.ExportWindow, s.now())
	if err != nil {
		return nil, err
	}
	if req.SensorID, err = s.ResolveSensorID(ctx, req.SensorID); err != nil {
		return nil, err
	}

	result, err := s.Exporter.Export(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	log := &models.ExportLog{
		ID:          nuts.NID("exp", 12),
		UserID:      userID,
		SensorID:    req.SensorID,
		Format:      req.Format.String(),
		FromTime:    req.Range.From,
		ToTime:      req.Range.To,
		Records:     result.Records,
		SizeBytes:   int64(len(result.Body)),
		Compressed:  result.Compressed,
		FileName:    result.FileName,
		ContentType: result.ContentType,
		CreatedAt:   s.now().Unix(),
	}
	if s.Archive != nil {
		path, err := s.Archive.Store(ctx, log, result.Body)
		if err != nil {
			nuts.L.Warnf("[ExportService] Export %s not archived: %v", log.ID, err)
		} else {
			log.ArchivePath = path
		}
	}
	// the file is already built; a failed audit row does not fail the download
	if err := s.ExportLogs.Create(ctx, log); err != nil {
		nuts.L.Errorf("[ExportService] Failed to log export %s: %v", log.ID, err)
	}

	s.Monitoring.RecordEvent(EventExportCompleted, map[string]string{
		"id":     req.SensorID,
		"format": log.Format,
	})
	return result, nil
}

// ExportStats aggregates the caller's sensor over the requested range, default 30 days
func (s *HubService) ExportStats(ctx context.Context, q *models.RangeQuery) (*export.Stats, error) {
	userID := GetUserID(ctx)
	sensorID, err := s.ResolveSensorID(ctx, q.SensorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Exporter.Authorize(ctx, sensorID, userID); err != nil {
		return nil, err
	}

	r := export.ResolveRange(q.Start, q.End, s.config.StatsWindow, s.now())
	key := statsCacheKey("stats", sensorID, r)
	stats := &export.Stats{}
	if s.cacheGet(ctx, key, stats) {
		return stats, nil
	}

	stats, err = s.Exporter.Stats(ctx, userID, sensorID, r)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, stats)
	return stats, nil
}

// ListExportLogs pages through the caller's export history, newest first
func (s *HubService) ListExportLogs(ctx context.Context, page *models.PageQuery) ([]*models.ExportLog, error) {
	userID := GetUserID(ctx)
	if userID == "" {
		return nil, errors.NewAuthError("no user context found", nil)
	}
	limit, offset := page.Limit, page.Offset
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.ExportLogs.ListByUser(ctx, userID, offset, limit)
}

// ArchivedExport returns an export log entry whose payload can be downloaded again.
// Entries of other users are reported as not found unless the caller is an admin.
func (s *HubService) ArchivedExport(ctx context.Context, id string) (*models.ExportLog, error) {
	if s.Archive == nil {
		return nil, errors.NewUnavailableError("export archive is disabled", nil)
	}
	log, err := s.ExportLogs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if log.UserID != GetUserID(ctx) && !hasRole(GetUserRoles(ctx), models.RoleAdmin) {
		return nil, errors.NewNotFoundError("export log not found", nil)
	}
	if !log.Archived() {
		return nil, errors.NewNotFoundError("export was not archived", nil)
	}
	return log, nil
}

// StreamExport copies an archived payload to w
func (s *HubService) StreamExport(ctx context.Context, log *models.ExportLog, w io.Writer) error {
	if s.Archive == nil {
		return errors.NewUnavailableError("export archive is disabled", nil)
	}
	return s.Archive.Stream(ctx, log.ArchivePath, w)
}

func statsCacheKey(kind, sensorID string, r export.Range) string {
	return cache.Key(kind, sensorID, strconv.FormatInt(r.From, 10), strconv.FormatInt(r.To, 10))
}

func (s *HubService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.Cache == nil {
		return false
	}
	found, err := s.Cache.Get(ctx, key, dst)
	if err != nil {
		nuts.L.Warnf("[ExportService] Cache read failed for %s: %v", key, err)
		return false
	}
	return found
}

func (s *HubService) cacheSet(ctx context.Context, key string, value any) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, value); err != nil {
		nuts.L.Warnf("[ExportService] Cache write failed for %s: %v", key, err)
	}
}
