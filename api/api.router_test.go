package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dosense/dohub/api/middleware"
	"github.com/dosense/dohub/internal/config"
	"github.com/dosense/dohub/internal/database"
	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
	"github.com/dosense/dohub/internal/repository/files"
	"github.com/dosense/dohub/internal/repository/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	token  string
	apiKey string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	archive, err := files.NewArchiveRepository(files.FileConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	svc := hubservice.New(
		postgres.NewUserRepository(db),
		postgres.NewSensorRepository(db),
		postgres.NewReadingRepository(db),
		postgres.NewCalibrationRepository(db),
		postgres.NewExportLogRepository(db),
		hubservice.Options{Config: hubservice.Config{JWTSecret: "router-test-secret"}, Archive: archive},
	)
	require.NoError(t, svc.Validate())

	router := NewRouter(svc, middleware.NewAuthMiddleware(middleware.NewJWTProvider(svc, svc.Users)))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testAPI{t: t, server: server}
}

func (a *testAPI) do(method, path string, body interface{}, header map[string]string) *http.Response {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testAPI) decode(resp *http.Response, dst interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(dst))
}

func (a *testAPI) register() {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/api/auth/register", models.RegisterRequest{Email: "op@example.com", Password: "password1", Name: "Operator"}, nil)
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
	var result models.AuthResult
	a.decode(resp, &result)
	require.NotEmpty(a.t, result.Token)
	a.token = result.Token

	resp = a.do(http.MethodGet, "/api/auth/device-config", nil, nil)
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	var cfg models.DeviceConfig
	a.decode(resp, &cfg)
	require.NotEmpty(a.t, cfg.APIKey)
	a.apiKey = cfg.APIKey
}

func (a *testAPI) ingest(do float64) {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/api/readings", map[string]float64{"do_concentration": do, "temperature": 21.3}, map[string]string{middleware.DeviceKeyHeader: a.apiKey})
	require.Equal(a.t, http.StatusCreated, resp.StatusCode)
}

func TestPublicRoutes(t *testing.T) {
	a := newTestAPI(t)

	resp := a.do(http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	a.decode(resp, &health)
	assert.Equal(t, true, health["ok"])

	resp = a.do(http.MethodGet, "/api/auth/check-first-user", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first map[string]bool
	a.decode(resp, &first)
	assert.True(t, first["isFirstUser"])

	resp = a.do(http.MethodGet, "/api/metrics?window=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestAPI(t)
	for _, path := range []string{"/api/auth/me", "/api/sensors", "/api/readings/latest", "/api/export/readings"} {
		resp := a.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	a.register()
	resp := a.do(http.MethodGet, "/api/auth/me", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]models.User
	a.decode(resp, &me)
	assert.Equal(t, "op@example.com", me["user"].Email)
	assert.Empty(t, me["user"].PasswordHash)
}

func TestDeviceRoutesRequireKey(t *testing.T) {
	a := newTestAPI(t)
	a.register()

	resp := a.do(http.MethodPost, "/api/readings", map[string]float64{"do_concentration": 8}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(http.MethodPost, "/api/readings", map[string]float64{"do_concentration": 8}, map[string]string{middleware.DeviceKeyHeader: "wrong"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(http.MethodPost, "/api/calibrate", models.CalibrationRequest{Mode: models.CalibrationZero}, map[string]string{middleware.DeviceKeyHeader: a.apiKey})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cal map[string]interface{}
	a.decode(resp, &cal)
	assert.Equal(t, "zero calibration completed", cal["message"])
}

func TestReadingRoutes(t *testing.T) {
	a := newTestAPI(t)
	a.register()
	a.ingest(8.5)

	resp := a.do(http.MethodGet, "/api/readings/latest", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var latest map[string]*models.Reading
	a.decode(resp, &latest)
	require.NotNil(t, latest["reading"])
	require.NotNil(t, latest["reading"].DOConcentration)
	assert.InDelta(t, 8.5, *latest["reading"].DOConcentration, 1e-9)

	resp = a.do(http.MethodGet, "/api/readings/stats", nil, map[string]string{"Accept": "application/msgpack"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/msgpack", resp.Header.Get("Content-Type"))
	var stats models.ReadingStats
	require.NoError(t, msgpack.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.TotalReadings)

	resp = a.do(http.MethodGet, "/api/readings/latest?sensor_id=someone-else", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestExportRoutes(t *testing.T) {
	a := newTestAPI(t)
	a.register()
	a.ingest(8.5)
	a.ingest(7.25)

	resp := a.do(http.MethodGet, "/api/export/readings?format=csv&metrics=do_concentration", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment; filename=")
	assert.Equal(t, "2", resp.Header.Get("X-Export-Records"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "DO Concentration (mg/L)")

	resp = a.do(http.MethodGet, "/api/export/readings?format=docx", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = a.do(http.MethodGet, "/api/export/logs", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs map[string][]*models.ExportLog
	a.decode(resp, &logs)
	require.Len(t, logs["logs"], 1)
	assert.Equal(t, 2, logs["logs"][0].Records)

	resp = a.do(http.MethodGet, "/api/export/logs/"+logs["logs"][0].ID+"/download", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	archived, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, archived)

	resp = a.do(http.MethodGet, "/api/export/logs/exp_missing/download", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(http.MethodGet, "/api/metrics?event=export.completed", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var metrics struct {
		Counts map[string]int64 `json:"counts"`
	}
	a.decode(resp, &metrics)
	assert.Equal(t, int64(1), metrics.Counts["total"])
}

func TestDeleteAccountRevokesToken(t *testing.T) {
	a := newTestAPI(t)
	a.register()

	resp := a.do(http.MethodDelete, "/api/auth/delete-account", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPreferencesRejectsRoleChange(t *testing.T) {
	a := newTestAPI(t)
	a.register()

	resp := a.do(http.MethodPatch, "/api/auth/preferences", map[string]string{"role": models.RoleAdmin}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(http.MethodPatch, "/api/auth/preferences", map[string]string{"language": "de"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]models.User
	a.decode(resp, &out)
	assert.Equal(t, "de", out["user"].Language)
	assert.Equal(t, models.RoleOperator, out["user"].Role)
	assert.Equal(t, "op@example.com", out["user"].Email)
}
