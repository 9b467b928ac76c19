// FilePath: internal/hubservice/hubservice.go
package hubservice

import (
	"time"

	"github.com/dosense/dohub/internal/cleanup"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/export"
	"github.com/dosense/dohub/internal/monitoring"
	"github.com/dosense/dohub/internal/repository"
)

// Config holds the service-level settings taken from the loaded configuration
type Config struct {
	JWTSecret       string
	JWTExpiry       time.Duration
	ResetTokenTTL   time.Duration
	ExportWindow    time.Duration
	StatsWindow     time.Duration
	DefaultSensorID string
	RetentionDays   int
	Encoder         export.EncoderOptions
}

// Options carries optional collaborators. Archive and Cache may be nil.
type Options struct {
	Config     Config
	Archive    repository.ArchiveRepository
	Cache      repository.ReadingCache
	Monitoring *monitoring.Service
	Now        func() time.Time
}

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Users       repository.UserRepository
	Sensors     repository.SensorRepository
	Readings    repository.ReadingRepository
	Calibration repository.CalibrationRepository
	ExportLogs  repository.ExportLogRepository
	Archive     repository.ArchiveRepository
	Cache       repository.ReadingCache
	Exporter    *export.Exporter
	Cleanup     *cleanup.CleanupService
	Monitoring  *monitoring.Service

	config Config
	now    func() time.Time
}

// New creates a new HubService instance
func New(
	users repository.UserRepository,
	sensors repository.SensorRepository,
	readings repository.ReadingRepository,
	calibration repository.CalibrationRepository,
	exportLogs repository.ExportLogRepository,
	opts Options,
) *HubService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cfg := opts.Config
	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = 12 * time.Hour
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 15 * time.Minute
	}
	if cfg.ExportWindow <= 0 {
		cfg.ExportWindow = export.DefaultExportWindow
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = export.DefaultStatsWindow
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = export.DefaultRetentionDays
	}
	if opts.Monitoring == nil {
		opts.Monitoring = monitoring.NewService(monitoring.Config{Now: opts.Now})
	}

	svc := &HubService{
		Users:       users,
		Sensors:     sensors,
		Readings:    readings,
		Calibration: calibration,
		ExportLogs:  exportLogs,
		Archive:     opts.Archive,
		Cache:       opts.Cache,
		Monitoring:  opts.Monitoring,
		config:      cfg,
		now:         opts.Now,
	}
	svc.Exporter = export.NewExporter(sensors, readings, export.Options{
		Encoder:       cfg.Encoder,
		RetentionDays: cfg.RetentionDays,
		Now:           opts.Now,
	})
	svc.Cleanup = cleanup.New(users, sensors, readings, calibration, exportLogs, cleanup.Options{
		Archive:       opts.Archive,
		Cache:         opts.Cache,
		RetentionDays: cfg.RetentionDays,
		Now:           opts.Now,
	})
	svc.recordCleanupEvents()
	return svc
}

// Validate checks if all required repositories are initialized
func (s *HubService) Validate() error {
	if s.Users == nil {
		return ErrMissingRepository("users")
	}
	if s.Sensors == nil {
		return ErrMissingRepository("sensors")
	}
	if s.Readings == nil {
		return ErrMissingRepository("readings")
	}
	if s.Calibration == nil {
		return ErrMissingRepository("calibration")
	}
	if s.ExportLogs == nil {
		return ErrMissingRepository("exportLogs")
	}
	return nil
}

// Now is the service clock
func (s *HubService) Now() time.Time {
	return s.now()
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
