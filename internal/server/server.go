// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dosense/dohub/api"
	"github.com/dosense/dohub/api/middleware"
	"github.com/dosense/dohub/internal/config"
	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/export"
	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/ingest"
	"github.com/dosense/dohub/internal/monitoring"
	"github.com/dosense/dohub/internal/repository"
	"github.com/dosense/dohub/internal/repository/cache"
	"github.com/dosense/dohub/internal/repository/files"
	"github.com/dosense/dohub/internal/repository/postgres"
	"github.com/dosense/dohub/internal/repository/timescale"
	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	cache      *cache.RedisCache
	bridge     *ingest.Bridge
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
	stopSweep  context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	s.monitoring = monitoring.NewService(monitoring.Config{
		MaxEvents: s.config.Monitoring.MaxEvents,
	})
	if err := s.initializeHubService(); err != nil {
		return err
	}

	router := api.NewRouter(s.hubservice, middleware.NewAuthMiddleware(s.authProvider()))
	s.srv.Handler = s.wrapHandler(router)

	sweepCtx, cancel := context.WithCancel(context.Background())
	s.stopSweep = cancel
	go s.hubservice.Cleanup.Run(sweepCtx, s.config.Retention.SweepInterval)

	if s.config.MQTT.Enabled {
		s.bridge = ingest.NewBridge(s.hubservice, ingest.Config{
			Broker:      s.config.MQTT.Broker,
			ClientID:    s.config.MQTT.ClientID,
			TopicPrefix: s.config.MQTT.TopicPrefix,
			QoS:         s.config.MQTT.QoS,
		})
		if err := s.bridge.Start(); err != nil {
			nuts.L.Errorf("[Server] MQTT ingest unavailable: %v", err)
			s.bridge = nil
		}
	}

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	s.close()

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

func (s *Server) close() {
	if s.stopSweep != nil {
		s.stopSweep()
	}
	if s.bridge != nil {
		s.bridge.Stop()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing redis: %v", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			nuts.L.Warnf("[Server] Error closing database: %v", err)
		}
	}
}

// wrapHandler adds CORS, access logging and panic recovery
func (s *Server) wrapHandler(h http.Handler) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{s.config.Server.CORSOrigin}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "Accept", middleware.DeviceKeyHeader}),
		handlers.ExposedHeaders([]string{"Content-Disposition", "X-Export-Records"}),
	)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(os.Stdout, cors(h)),
	)
}

func (s *Server) authProvider() middleware.AuthProvider {
	if s.config.Auth.Provider == config.AuthProviderKeycloak {
		nuts.L.Infof("[Server] Authenticating against Keycloak realm %s", s.config.Keycloak.Realm)
		return middleware.NewKeycloakProvider(middleware.KeycloakConfig{
			URL:          s.config.Keycloak.URL,
			Realm:        s.config.Keycloak.Realm,
			ClientID:     s.config.Keycloak.ClientID,
			ClientSecret: s.config.Keycloak.ClientSecret,
		}, s.hubservice.Users)
	}
	return middleware.NewJWTProvider(s.hubservice, s.hubservice.Users)
}

// initializeHubService opens storage and creates the hub service
func (s *Server) initializeHubService() error {
	cfg := s.config
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	nuts.L.Infof("[Server] Connected to %s database", db.Driver())

	var readings repository.ReadingRepository = postgres.NewReadingRepository(db)
	if cfg.Database.Timescale {
		tsReadings, err := timescale.NewReadingRepository(db, cfg.Retention.Days)
		if err != nil {
			return fmt.Errorf("failed to initialize timescale readings: %w", err)
		}
		readings = tsReadings
	}

	opts := hubservice.Options{
		Config: hubservice.Config{
			JWTSecret:       cfg.Auth.JWTSecret,
			JWTExpiry:       cfg.Auth.JWTExpiry,
			ResetTokenTTL:   cfg.Auth.ResetTokenTTL,
			ExportWindow:    cfg.Export.DefaultWindow,
			StatsWindow:     cfg.Export.StatsWindow,
			DefaultSensorID: cfg.Device.DefaultID,
			RetentionDays:   cfg.Retention.Days,
			Encoder: export.EncoderOptions{
				Creator:        cfg.Export.Creator,
				PreviewRows:    cfg.Export.PreviewRows,
				PDFCompression: cfg.Export.PDFCompression,
			},
		},
		Monitoring: s.monitoring,
	}

	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(ctx, cache.Config{
			Addr:      cfg.Redis.Addr(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			LatestTTL: cfg.Redis.LatestTTL,
			StatsTTL:  cfg.Redis.StatsTTL,
		})
		if err != nil {
			nuts.L.Warnf("[Server] Redis unavailable, continuing without cache: %v", err)
		} else {
			s.cache = rc
			opts.Cache = rc
		}
	}

	if cfg.Export.ArchiveDir != "" {
		archive, err := files.NewArchiveRepository(files.FileConfig{BasePath: cfg.Export.ArchiveDir})
		if err != nil {
			return fmt.Errorf("failed to initialize export archive: %w", err)
		}
		opts.Archive = archive
	}

	s.hubservice = hubservice.New(
		postgres.NewUserRepository(db),
		postgres.NewSensorRepository(db),
		readings,
		postgres.NewCalibrationRepository(db),
		postgres.NewExportLogRepository(db),
		opts,
	)
	return s.hubservice.Validate()
}
