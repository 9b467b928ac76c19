// FilePath: api/middleware/api.middleware.device.go
package middleware

import (
	"context"
	"net/http"

	"github.com/dosense/dohub/internal/hubservice"
	"github.com/dosense/dohub/internal/models"
)

const DeviceKeyHeader = "X-API-Key"

// DeviceAuthenticator resolves a device API key to its sensor
type DeviceAuthenticator interface {
	AuthenticateDevice(ctx context.Context, apiKey string) (*models.Sensor, error)
}

// RequireDeviceKey admits requests carrying a known sensor API key. A missing key
// is a 401, an unknown one a 403.
func RequireDeviceKey(devices DeviceAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sensor, err := devices.AuthenticateDevice(r.Context(), r.Header.Get(DeviceKeyHeader))
			if err != nil {
				handleError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(hubservice.WithSensor(r.Context(), sensor)))
		})
	}
}
