// FilePath: internal/models/models.calibration.go
package models

type CalibrationMode string

const (
	CalibrationZero CalibrationMode = "zero"
	CalibrationSpan CalibrationMode = "span"
)

func (m CalibrationMode) Valid() bool {
	return m == CalibrationZero || m == CalibrationSpan
}

type CalibrationEvent struct {
	ID        string          `json:"id" db:"id" msgpack:"id"`
	SensorID  string          `json:"sensor_id" db:"sensor_id" msgpack:"sensor_id"`
	Mode      CalibrationMode `json:"mode" db:"mode" msgpack:"mode"`
	Value     *float64        `json:"value" db:"value" msgpack:"value"`
	Timestamp int64           `json:"timestamp" db:"timestamp" msgpack:"timestamp"`
	CreatedAt int64           `json:"created_at" db:"created_at" msgpack:"created_at"`
}

// DACSetting is the corrected DO value a device drives its analog output with
type DACSetting struct {
	SensorID    string   `json:"sensor_id" db:"sensor_id" msgpack:"sensor_id"`
	CorrectedDO *float64 `json:"corrected_do" db:"corrected_do" msgpack:"corrected_do"`
	UpdatedAt   int64    `json:"updated_at" db:"updated_at" msgpack:"updated_at"`
}
