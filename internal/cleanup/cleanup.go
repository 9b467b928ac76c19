// FilePath: internal/cleanup/cleanup.go
package cleanup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

const (
	EventAccountDeleted = "account.deleted"
	EventSensorDeleted  = "sensor.deleted"
	EventReadingsPruned = "readings.pruned"
)

// CleanupService coordinates deletion of an account's data and the retention sweep
type CleanupService struct {
	users         repository.UserRepository
	sensors       repository.SensorRepository
	readings      repository.ReadingRepository
	calibration   repository.CalibrationRepository
	exportLogs    repository.ExportLogRepository
	archive       repository.ArchiveRepository
	cache         repository.ReadingCache
	retentionDays int
	now           func() time.Time
	events        *nuts.EventEmitter
}

// Options carries the optional collaborators. Archive and Cache may be nil.
type Options struct {
	Archive       repository.ArchiveRepository
	Cache         repository.ReadingCache
	RetentionDays int
	Now           func() time.Time
}

// New creates a new CleanupService
func New(
	users repository.UserRepository,
	sensors repository.SensorRepository,
	readings repository.ReadingRepository,
	calibration repository.CalibrationRepository,
	exportLogs repository.ExportLogRepository,
	opts Options,
) *CleanupService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CleanupService{
		users:         users,
		sensors:       sensors,
		readings:      readings,
		calibration:   calibration,
		exportLogs:    exportLogs,
		archive:       opts.Archive,
		cache:         opts.Cache,
		retentionDays: opts.RetentionDays,
		now:           opts.Now,
		events:        nuts.NewEventEmitter(),
	}
}

// DeleteAccount removes the user and everything hanging off their sensors in one transaction
func (s *CleanupService) DeleteAccount(ctx context.Context, userID string) error {
	// listed up front: the transaction may hold the only connection
	sensors, err := s.sensors.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list sensors: %w", err)
	}
	sensorIDs := make([]string, 0, len(sensors))
	for _, sensor := range sensors {
		sensorIDs = append(sensorIDs, sensor.ID)
	}

	// Start transaction
	tx, err := s.users.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	if err := s.deleteSensorData(ctx, sensorIDs, tx); err != nil {
		return err
	}
	if err := s.exportLogs.DeleteByUser(ctx, userID, tx); err != nil {
		return fmt.Errorf("failed to delete export logs: %w", err)
	}
	if err := s.sensors.DeleteByUser(ctx, userID, tx); err != nil {
		return fmt.Errorf("failed to delete sensors: %w", err)
	}
	if err := s.users.DeleteWithTx(ctx, userID, tx); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.DeleteByUser(ctx, userID); err != nil {
			nuts.L.Warnf("[Cleanup] Archive of user %s not removed: %v", userID, err)
		}
	}
	for _, id := range sensorIDs {
		s.invalidate(ctx, id)
		s.events.Emit(EventSensorDeleted, id)
	}

	// Emit event after successful deletion
	s.events.Emit(EventAccountDeleted, userID)
	return nil
}

// DeleteSensor deletes a sensor and all its associated data
func (s *CleanupService) DeleteSensor(ctx context.Context, sensorID string) error {
	// Start transaction
	tx, err := s.sensors.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.deleteSensorData(ctx, []string{sensorID}, tx); err != nil {
		return err
	}

	// Delete the sensor
	if err := s.sensors.DeleteWithTx(ctx, sensorID, tx); err != nil {
		return fmt.Errorf("failed to delete sensor: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.invalidate(ctx, sensorID)
	// Emit event after successful deletion
	s.events.Emit(EventSensorDeleted, sensorID)
	return nil
}

// PruneReadings deletes readings and archived exports older than the retention window
func (s *CleanupService) PruneReadings(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-time.Duration(s.retentionDays) * 24 * time.Hour)

	deleted, err := s.readings.DeleteOlderThan(ctx, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune readings: %w", err)
	}
	if s.archive != nil {
		if _, err := s.archive.DeleteOlderThan(ctx, cutoff); err != nil {
			nuts.L.Warnf("[Cleanup] Archive pruning failed: %v", err)
		}
	}

	s.events.Emit(EventReadingsPruned, strconv.FormatInt(deleted, 10))
	return deleted, nil
}

// Run sweeps on every tick until ctx is done
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.retentionDays <= 0 {
		nuts.L.Infof("[Cleanup] Retention sweep disabled")
		return
	}
	nuts.L.Infof("[Cleanup] Retention sweep every %v, keeping %d days", interval, s.retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.PruneReadings(ctx); err != nil {
			nuts.L.Errorf("[Cleanup] %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, "cleanup_handler_"+event, func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}

func (s *CleanupService) deleteSensorData(ctx context.Context, sensorIDs []string, tx database.Transaction) error {
	if err := s.readings.DeleteBySensorIDs(ctx, sensorIDs, tx); err != nil {
		return fmt.Errorf("failed to delete readings: %w", err)
	}
	if err := s.calibration.DeleteBySensorIDs(ctx, sensorIDs, tx); err != nil {
		return fmt.Errorf("failed to delete calibration data: %w", err)
	}
	return nil
}

func (s *CleanupService) invalidate(ctx context.Context, sensorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSensor(ctx, sensorID); err != nil {
		nuts.L.Warnf("[Cleanup] Cache of sensor %s not invalidated: %v", sensorID, err)
	}
}
