// FilePath: internal/models/models.export.go
package models

// ExportLog records one completed export download
type ExportLog struct {
	ID          string `json:"id" db:"id" msgpack:"id"`
	UserID      string `json:"user_id" db:"user_id" msgpack:"user_id"`
	SensorID    string `json:"sensor_id" db:"sensor_id" msgpack:"sensor_id"`
	Format      string `json:"format" db:"format" msgpack:"format"`
	FromTime    int64  `json:"from_time" db:"from_time" msgpack:"from_time"`
	ToTime      int64  `json:"to_time" db:"to_time" msgpack:"to_time"`
	Records     int    `json:"records" db:"records" msgpack:"records"`
	SizeBytes   int64  `json:"size_bytes" db:"size_bytes" msgpack:"size_bytes"`
	Compressed  bool   `json:"compressed" db:"compressed" msgpack:"compressed"`
	FileName    string `json:"file_name" db:"file_name" msgpack:"file_name"`
	ContentType string `json:"content_type" db:"content_type" msgpack:"content_type"`
	ArchivePath string `json:"-" db:"archive_path" msgpack:"-"`
	CreatedAt   int64  `json:"created_at" db:"created_at" msgpack:"created_at"`
}

// Archived reports whether the payload was kept on disk
func (l *ExportLog) Archived() bool {
	return l.ArchivePath != ""
}
