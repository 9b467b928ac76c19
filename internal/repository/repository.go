// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"io"
	"time"

	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/models"
)

// UserRepository defines the interface for dashboard accounts
type UserRepository interface {
	database.Repository
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, user *models.User) error
	DeleteWithTx(ctx context.Context, id string, tx database.Transaction) error
}

// SensorRepository defines the interface for registered sensors
type SensorRepository interface {
	database.Repository
	Create(ctx context.Context, sensor *models.Sensor) error
	Get(ctx context.Context, id string) (*models.Sensor, error)
	// GetByIDAndUser is the ownership check: a sensor owned by someone else is not found
	GetByIDAndUser(ctx context.Context, id, userID string) (*models.Sensor, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Sensor, error)
	// ListByUser returns the user's sensors, newest first
	ListByUser(ctx context.Context, userID string) ([]*models.Sensor, error)
	UpdateAPIKey(ctx context.Context, id, apiKey string, updatedAt int64) error
	UpdateLastSeen(ctx context.Context, id string, lastSeen int64) error
	DeleteWithTx(ctx context.Context, id string, tx database.Transaction) error
	DeleteByUser(ctx context.Context, userID string, tx database.Transaction) error
}

// ReadingRepository defines the interface for sensor measurements
type ReadingRepository interface {
	database.Repository
	Insert(ctx context.Context, reading *models.Reading) error
	// ListRange returns readings with from <= captured_at <= to, oldest first
	ListRange(ctx context.Context, sensorID string, from, to int64) ([]*models.Reading, error)
	// ListRecent returns at most limit readings captured at or after since, oldest first
	ListRecent(ctx context.Context, sensorID string, since int64, limit int) ([]*models.Reading, error)
	Latest(ctx context.Context, sensorID string) (*models.Reading, error)
	Stats(ctx context.Context, sensorID string) (*models.ReadingStats, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	Buckets(ctx context.Context, sensorID string, from, to, interval int64) ([]*models.ReadingBucket, error)
	DeleteOlderThan(ctx context.Context, before int64) (int64, error)
	DeleteBySensorIDs(ctx context.Context, sensorIDs []string, tx database.Transaction) error
}

// CalibrationRepository defines the interface for calibration events and DAC settings
type CalibrationRepository interface {
	database.Repository
	CreateEvent(ctx context.Context, event *models.CalibrationEvent) error
	ListEvents(ctx context.Context, sensorID string, limit int) ([]*models.CalibrationEvent, error)
	UpsertDAC(ctx context.Context, setting *models.DACSetting) error
	GetDAC(ctx context.Context, sensorID string) (*models.DACSetting, error)
	DeleteBySensorIDs(ctx context.Context, sensorIDs []string, tx database.Transaction) error
}

// ExportLogRepository defines the interface for the export audit trail
type ExportLogRepository interface {
	database.Repository
	Create(ctx context.Context, log *models.ExportLog) error
	Get(ctx context.Context, id string) (*models.ExportLog, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.ExportLog, error)
	DeleteByUser(ctx context.Context, userID string, tx database.Transaction) error
}

// ArchiveRepository defines the interface for stored export payloads
type ArchiveRepository interface {
	Store(ctx context.Context, log *models.ExportLog, body []byte) (string, error)
	Stream(ctx context.Context, path string, w io.Writer) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteOlderThan(ctx context.Context, before time.Time) (int, error)
}

// ReadingCache is a read-through cache in front of ReadingRepository.
// Misses return nil and no error.
type ReadingCache interface {
	SetLatest(ctx context.Context, reading *models.Reading) error
	GetLatest(ctx context.Context, sensorID string) (*models.Reading, error)
	Set(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, dst any) (bool, error)
	InvalidateSensor(ctx context.Context, sensorID string) error
}
