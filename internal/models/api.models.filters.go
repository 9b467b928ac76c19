// FilePath: internal/models/api.models.filters.go
package models

// ExportQuery is decoded from the export query string. Everything stays a raw string;
// the export resolver owns parsing and fallbacks.
type ExportQuery struct {
	SensorID         string `schema:"sensor_id"`
	Start            string `schema:"start"`
	End              string `schema:"end"`
	Metrics          string `schema:"metrics"`
	Format           string `schema:"format"`
	IncludeRaw       string `schema:"includeRaw"`
	IncludeAnalytics string `schema:"includeAnalytics"`
	Compression      string `schema:"compression"`
}

// RangeQuery covers the stats, summary and bucket endpoints
type RangeQuery struct {
	SensorID string `schema:"sensor_id"`
	Start    string `schema:"start"`
	End      string `schema:"end"`
	Interval int64  `schema:"interval"`
}

// HistoryQuery covers the history endpoint; Limit is both a row cap and a window in minutes
type HistoryQuery struct {
	SensorID string `schema:"sensor_id"`
	Limit    int    `schema:"limit"`
}

// PageQuery covers list endpoints
type PageQuery struct {
	Offset int `schema:"offset"`
	Limit  int `schema:"limit"`
}
