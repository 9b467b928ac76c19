// FilePath: internal/hubservice/hubservice.calibration.go
package hubservice

import (
	"context"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Calibrate records a zero or span calibration performed on sensor
func (s *HubService) Calibrate(ctx context.Context, sensor *models.Sensor, req *models.CalibrationRequest) (*models.CalibrationEvent, error) {
	if !req.Mode.Valid() {
		return nil, errors.NewValidationError("mode must be zero or span", nil).
			WithDetails(map[string]any{"mode": req.Mode})
	}
	now := s.now().Unix()
	event := &models.CalibrationEvent{
		ID:        nuts.NID("cal", 12),
		SensorID:  sensor.ID,
		Mode:      req.Mode,
		Value:     req.Value,
		Timestamp: now,
		CreatedAt: now,
	}
	if err := s.Calibration.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	nuts.L.Infof("[CalibrationService] %s calibration logged for sensor %s", event.Mode, sensor.ID)
	return event, nil
}

// SetDAC upserts the corrected DO value of sensor; a nil value clears it
func (s *HubService) SetDAC(ctx context.Context, sensor *models.Sensor, req *models.DACRequest) (*models.DACSetting, error) {
	setting := &models.DACSetting{
		SensorID:    sensor.ID,
		CorrectedDO: req.CorrectedDO,
		UpdatedAt:   s.now().Unix(),
	}
	if err := s.Calibration.UpsertDAC(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// CalibrationHistory lists the newest calibration events of one of the caller's sensors
func (s *HubService) CalibrationHistory(ctx context.Context, sensorID string, limit int) ([]*models.CalibrationEvent, error) {
	if _, err := s.authorizeSensor(ctx, sensorID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Calibration.ListEvents(ctx, sensorID, limit)
}
