// FilePath: api/resources/resources.go
package resources

import (
	"net/http"

	"github.com/dosense/dohub/internal/hubservice"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Auth        *AuthHandlers
	Sensors     *SensorHandlers
	Readings    *ReadingHandlers
	Devices     *DeviceHandlers
	Exports     *ExportHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *hubservice.HubService) *Resources {
	system := &SystemHandlers{hubservice: svc}
	return &Resources{
		Auth:        &AuthHandlers{hubservice: svc},
		Sensors:     &SensorHandlers{hubservice: svc},
		Readings:    &ReadingHandlers{hubservice: svc},
		Devices:     &DeviceHandlers{hubservice: svc},
		Exports:     &ExportHandlers{hubservice: svc},
		HealthCheck: system.Health,
		Metrics:     system.Metrics,
	}
}
