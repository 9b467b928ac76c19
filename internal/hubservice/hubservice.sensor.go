// FilePath: internal/hubservice/hubservice.sensor.go
package hubservice

import (
	"context"
	"strings"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	"github.com/google/uuid"
	nuts "github.com/vaudience/go-nuts"
)

// ListSensors returns the caller's sensors, newest first
func (s *HubService) ListSensors(ctx context.Context) ([]*models.Sensor, error) {
	userID := GetUserID(ctx)
	if userID == "" {
		return nil, errors.NewAuthError("no user context found", nil)
	}
	return s.Sensors.ListByUser(ctx, userID)
}

// RegenerateAPIKey replaces the device key of one of the caller's sensors
func (s *HubService) RegenerateAPIKey(ctx context.Context, sensorID string) (*models.Sensor, error) {
	sensor, err := s.Sensors.GetByIDAndUser(ctx, sensorID, GetUserID(ctx))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("Sensor not found or access denied", nil)
		}
		return nil, err
	}

	now := s.now().Unix()
	sensor.APIKey = uuid.NewString()
	sensor.UpdatedAt = now
	if err := s.Sensors.UpdateAPIKey(ctx, sensor.ID, sensor.APIKey, now); err != nil {
		return nil, err
	}

	nuts.L.Infof("[SensorService] API key regenerated for sensor %s", sensor.ID)
	return sensor, nil
}

// DeleteSensor removes one of the caller's sensors with its readings and calibration data
func (s *HubService) DeleteSensor(ctx context.Context, sensorID string) error {
	if _, err := s.Sensors.GetByIDAndUser(ctx, sensorID, GetUserID(ctx)); err != nil {
		if errors.IsNotFound(err) {
			return errors.NewNotFoundError("Sensor not found or access denied", nil)
		}
		return err
	}
	nuts.L.Infof("[SensorService] Deleting sensor: %s", sensorID)
	return s.Cleanup.DeleteSensor(ctx, sensorID)
}

// AuthenticateDevice resolves a device API key to its sensor
func (s *HubService) AuthenticateDevice(ctx context.Context, apiKey string) (*models.Sensor, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.NewAuthError("Missing x-api-key header", nil)
	}
	sensor, err := s.Sensors.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthorizationError("Invalid device key", nil)
		}
		return nil, err
	}
	return sensor, nil
}

// ResolveSensorID picks the sensor a query is about. An explicit id wins; otherwise the
// configured default device is used when the caller owns it, then the caller's newest sensor.
func (s *HubService) ResolveSensorID(ctx context.Context, sensorID string) (string, error) {
	if sensorID = strings.TrimSpace(sensorID); sensorID != "" {
		return sensorID, nil
	}
	userID := GetUserID(ctx)
	if def := s.config.DefaultSensorID; def != "" {
		if _, err := s.Sensors.GetByIDAndUser(ctx, def, userID); err == nil {
			return def, nil
		} else if !errors.IsNotFound(err) {
			return "", err
		}
	}
	sensors, err := s.Sensors.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(sensors) == 0 {
		return "", errors.NewNotFoundError("no sensor registered", nil)
	}
	return sensors[0].ID, nil
}

// authorizeSensor is the ownership gate of the read endpoints
func (s *HubService) authorizeSensor(ctx context.Context, sensorID string) (*models.Sensor, error) {
	return s.Exporter.Authorize(ctx, sensorID, GetUserID(ctx))
}

func (s *HubService) createDefaultSensor(ctx context.Context, userID string) (*models.Sensor, error) {
	now := s.now().Unix()
	sensor := &models.Sensor{
		ID:         nuts.NID("sen", 12),
		UserID:     userID,
		Name:       models.DefaultSensorName,
		APIKey:     uuid.NewString(),
		SensorType: models.DefaultSensorType,
		Location:   models.DefaultLocation,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Sensors.Create(ctx, sensor); err != nil {
		return nil, err
	}
	nuts.L.Infof("[SensorService] Created default sensor %s for user %s", sensor.ID, userID)
	return sensor, nil
}
