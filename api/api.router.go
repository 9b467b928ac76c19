// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/dosense/dohub/api/middleware"
	"github.com/dosense/dohub/api/resources"
	"github.com/dosense/dohub/internal/hubservice"
	"github.com/gorilla/mux"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.AuthMiddleware
	device    func(http.Handler) http.Handler
	resources *resources.Resources
}

func NewRouter(svc *hubservice.HubService, auth *middleware.AuthMiddleware) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      auth,
		device:    middleware.RequireDeviceKey(svc),
		resources: resources.NewResources(svc),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	api := r.router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)

	authPublic := api.PathPrefix("/auth").Subrouter()
	authPublic.HandleFunc("/check-first-user", r.resources.Auth.CheckFirstUser).Methods(http.MethodGet)
	authPublic.HandleFunc("/check-email", r.resources.Auth.CheckEmail).Methods(http.MethodPost)
	authPublic.HandleFunc("/register", r.resources.Auth.Register).Methods(http.MethodPost)
	authPublic.HandleFunc("/login", r.resources.Auth.Login).Methods(http.MethodPost)
	authPublic.HandleFunc("/forgot-password", r.resources.Auth.ForgotPassword).Methods(http.MethodPost)
	authPublic.HandleFunc("/reset-password", r.resources.Auth.ResetPassword).Methods(http.MethodPost)

	// Device routes authenticate with the sensor API key
	api.Handle("/readings", r.device(http.HandlerFunc(r.resources.Readings.Ingest))).Methods(http.MethodPost)
	api.Handle("/calibrate", r.device(http.HandlerFunc(r.resources.Devices.Calibrate))).Methods(http.MethodPost)
	api.Handle("/dac", r.device(http.HandlerFunc(r.resources.Devices.SetDAC))).Methods(http.MethodPost)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	account := protected.PathPrefix("/auth").Subrouter()
	account.HandleFunc("/me", r.resources.Auth.Me).Methods(http.MethodGet)
	account.HandleFunc("/preferences", r.resources.Auth.UpdatePreferences).Methods(http.MethodPatch)
	account.HandleFunc("/change-password", r.resources.Auth.ChangePassword).Methods(http.MethodPost)
	account.HandleFunc("/device-config", r.resources.Auth.DeviceConfig).Methods(http.MethodGet)
	account.HandleFunc("/delete-account", r.resources.Auth.DeleteAccount).Methods(http.MethodDelete)

	// Sensors
	sensors := protected.PathPrefix("/sensors").Subrouter()
	sensors.HandleFunc("", r.resources.Sensors.ListSensors).Methods(http.MethodGet)
	sensors.HandleFunc("/{id}", r.resources.Sensors.DeleteSensor).Methods(http.MethodDelete)
	sensors.HandleFunc("/{id}/regenerate-key", r.resources.Sensors.RegenerateKey).Methods(http.MethodPost)
	sensors.HandleFunc("/{id}/calibrations", r.resources.Sensors.ListCalibrations).Methods(http.MethodGet)

	// Readings
	readings := protected.PathPrefix("/readings").Subrouter()
	readings.HandleFunc("/latest", r.resources.Readings.Latest).Methods(http.MethodGet)
	readings.HandleFunc("/history", r.resources.Readings.History).Methods(http.MethodGet)
	readings.HandleFunc("/stats", r.resources.Readings.Stats).Methods(http.MethodGet)
	readings.HandleFunc("/storage-info", r.resources.Readings.StorageInfo).Methods(http.MethodGet)
	readings.HandleFunc("/summary", r.resources.Readings.Summary).Methods(http.MethodGet)
	readings.HandleFunc("/buckets", r.resources.Readings.Buckets).Methods(http.MethodGet)

	// Export
	exports := protected.PathPrefix("/export").Subrouter()
	exports.HandleFunc("/readings", r.resources.Exports.ExportReadings).Methods(http.MethodGet)
	exports.HandleFunc("/stats", r.resources.Exports.ExportStats).Methods(http.MethodGet)
	exports.HandleFunc("/logs", r.resources.Exports.ListLogs).Methods(http.MethodGet)
	exports.HandleFunc("/logs/{id}/download", r.resources.Exports.DownloadLog).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
