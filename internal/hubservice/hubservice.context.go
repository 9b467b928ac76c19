// FilePath: internal/hubservice/hubservice.context.go
package hubservice

import (
	"context"

	"github.com/dosense/dohub/internal/models"
)

type contextKey string

const (
	userContextKey   contextKey = "user"
	sensorContextKey contextKey = "sensor"
)

// UserContext is the authenticated caller attached to a request
type UserContext struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// WithUser attaches the caller to ctx
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the caller attached by the auth middleware
func UserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// WithSensor attaches the device-authenticated sensor to ctx
func WithSensor(ctx context.Context, sensor *models.Sensor) context.Context {
	return context.WithValue(ctx, sensorContextKey, sensor)
}

// SensorFromContext returns the sensor attached by the device key middleware
func SensorFromContext(ctx context.Context) (*models.Sensor, bool) {
	sensor, ok := ctx.Value(sensorContextKey).(*models.Sensor)
	return sensor, ok && sensor != nil
}

// GetUserID returns the caller's id or an empty string
func GetUserID(ctx context.Context) string {
	if user, ok := UserFromContext(ctx); ok {
		return user.ID
	}
	return ""
}

// GetUserRoles retrieves user roles from context
func GetUserRoles(ctx context.Context) []string {
	if user, ok := UserFromContext(ctx); ok && len(user.Roles) > 0 {
		return user.Roles
	}
	return []string{"guest"}
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
