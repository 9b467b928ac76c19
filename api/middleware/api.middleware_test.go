package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) Get(_ context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.NewNotFoundError("user not found", nil)
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.NewNotFoundError("user not found", nil)
}

type fakeDevices map[string]*models.Sensor

func (f fakeDevices) AuthenticateDevice(_ context.Context, key string) (*models.Sensor, error) {
	if key == "" {
		return nil, errors.NewAuthError("Missing x-api-key header", nil)
	}
	if s, ok := f[key]; ok {
		return s, nil
	}
	return nil, errors.NewAuthorizationError("Invalid device key", nil)
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	user, _ := hubservice.UserFromContext(r.Context())
	json.NewEncoder(w).Encode(user)
}

func newTokenService(now time.Time) *hubservice.HubService {
	return hubservice.New(nil, nil, nil, nil, nil, hubservice.Options{
		Config: hubservice.Config{JWTSecret: "middleware-test-secret"},
		Now:    func() time.Time { return now },
	})
}

func TestJWTAuthenticate(t *testing.T) {
	svc := newTokenService(time.Now())
	user := &models.User{ID: "usr_1", Email: "op@example.com", Role: models.RoleOperator}
	token, err := svc.IssueToken(user)
	require.NoError(t, err)
	deleted, err := svc.IssueToken(&models.User{ID: "usr_gone", Role: models.RoleOperator})
	require.NoError(t, err)

	auth := NewAuthMiddleware(NewJWTProvider(svc, fakeUsers{"usr_1": user}))
	handler := auth.Authenticate(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"deleted account", "Bearer " + deleted, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				var got hubservice.UserContext
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, "usr_1", got.ID)
				assert.Equal(t, []string{models.RoleOperator}, got.Roles)
				return
			}
			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, "authentication", body["type"])
		})
	}
}

func TestRequireRoles(t *testing.T) {
	auth := NewAuthMiddleware(nil)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	handler := auth.RequireRoles([]string{models.RoleAdmin})(ok)

	serve := func(ctx context.Context) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil).WithContext(ctx))
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()))
	assert.Equal(t, http.StatusForbidden, serve(hubservice.WithUser(context.Background(), &hubservice.UserContext{ID: "u", Roles: []string{models.RoleOperator}})))
	assert.Equal(t, http.StatusNoContent, serve(hubservice.WithUser(context.Background(), &hubservice.UserContext{ID: "u", Roles: []string{models.RoleAdmin}})))
}

func TestRequireDeviceKey(t *testing.T) {
	sensor := &models.Sensor{ID: "sen_1"}
	handler := RequireDeviceKey(fakeDevices{"key-1": sensor})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := hubservice.SensorFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(s.ID))
	}))

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"known", "key-1", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"unknown", "key-2", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/readings", nil)
			if tt.key != "" {
				req.Header.Set(DeviceKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "sen_1", rec.Body.String())
			}
		})
	}
}

func TestRoleHelpers(t *testing.T) {
	admin, viewer := "admin", "viewer"
	assert.Equal(t, []string{"admin", "viewer"}, extractRoles([]*gocloak.Role{{Name: &admin}, nil, {Name: &viewer}}))
	assert.Equal(t, []string{"operator", "admin"}, mergeRoles([]string{"operator"}, []string{"admin", "operator", ""}))
	assert.True(t, hasRequiredRoles([]string{"operator"}, nil))
	assert.True(t, hasRequiredRoles([]string{"operator"}, []string{"*"}))
	assert.False(t, hasRequiredRoles([]string{"operator"}, []string{"operator", "admin"}))
}
