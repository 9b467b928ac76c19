// FilePath: internal/models/models.sensor.go
package models

const (
	DefaultSensorName = "Primary DO Sensor"
	DefaultSensorType = "RS-LDO-N01"
	DefaultLocation   = "Default Location"
)

// Sensor is a registered DO sensor. APIKey authenticates the device when it pushes readings.
type Sensor struct {
	ID         string `json:"id" db:"id" msgpack:"id"`
	UserID     string `json:"user_id" db:"user_id" msgpack:"user_id"`
	Name       string `json:"name" db:"name" msgpack:"name"`
	APIKey     string `json:"api_key" db:"api_key" msgpack:"api_key"`
	SensorType string `json:"sensor_type" db:"sensor_type" msgpack:"sensor_type"`
	Location   string `json:"location" db:"location" msgpack:"location"`
	CreatedAt  int64  `json:"created_at" db:"created_at" msgpack:"created_at"`
	UpdatedAt  int64  `json:"updated_at" db:"updated_at" msgpack:"updated_at"`
	LastSeen   *int64 `json:"last_seen" db:"last_seen" msgpack:"last_seen"`
}

// DeviceConfig is what a user copies onto a device to pair it with the hub
type DeviceConfig struct {
	DeviceID  string `json:"deviceId" msgpack:"deviceId"`
	APIKey    string `json:"apiKey" msgpack:"apiKey"`
	UserID    string `json:"userId" msgpack:"userId"`
	UserEmail string `json:"userEmail" msgpack:"userEmail"`
	CreatedAt string `json:"createdAt" msgpack:"createdAt"`
}
