// FilePath: internal/export/export.resolver.go
package export

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dosense/dohub/internal/errors"
	"github.com/dosense/dohub/internal/models"
)

const (
	// epochMillisThreshold separates epoch seconds from epoch milliseconds
	epochMillisThreshold = 1e12
	// maxEpoch is 9999-12-31T23:59:59Z, the last instant an ISO-8601 year can hold
	maxEpoch = 253402300799

	DefaultExportWindow = 7 * 24 * time.Hour
	DefaultStatsWindow  = 30 * 24 * time.Hour

	isoLayout = "2006-01-02T15:04:05.000Z"
	dayLayout = "2006-01-02"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dayLayout,
	time.RFC1123Z,
	time.RFC1123,
}

// Range is an inclusive, ascending window of epoch seconds.
type Range struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

func (r Range) FromISO() string { return FormatISO(r.From) }
func (r Range) ToISO() string   { return FormatISO(r.To) }

// Days is the span in days, never less than one.
func (r Range) Days() float64 {
	return math.Max(1, float64(r.To-r.From)/86400)
}

// FormatISO renders epoch seconds as a UTC ISO-8601 timestamp with millisecond precision.
func FormatISO(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format(isoLayout)
}

// ParseEpoch interprets value as epoch seconds, epoch milliseconds (above 1e12) or a
// date string. Anything else, including non-positive numbers and instants past year
// 9999, yields fallback.
func ParseEpoch(value string, fallback int64) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return fallback
		}
		if n > epochMillisThreshold {
			n = n / 1000
		}
		if n > maxEpoch {
			return fallback
		}
		return int64(math.Floor(n))
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.Unix()
		}
	}
	return fallback
}

// ResolveRange turns raw start/end parameters into an ordered range. Missing or
// unparseable bounds fall back to a window of the given size ending at now.
func ResolveRange(start, end string, window time.Duration, now time.Time) Range {
	nowSec := now.Unix()
	from := ParseEpoch(start, nowSec-int64(window/time.Second))
	to := ParseEpoch(end, nowSec)
	if from > to {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// ParseFlag is true only for "true" or "1".
func ParseFlag(value string) bool {
	v := strings.TrimSpace(value)
	return v == "true" || v == "1"
}

// ParseOptOutFlag is true unless the value is exactly "false".
func ParseOptOutFlag(value string) bool {
	return strings.TrimSpace(value) != "false"
}

// Request is a fully resolved export request.
type Request struct {
	SensorID         string
	Range            Range
	Metrics          []Metric
	Format           Format
	IncludeRaw       bool
	IncludeAnalytics bool
	Compression      bool
}

// ParseRequest resolves the raw query. Range problems fall back silently; an unknown
// format is the only rejected input.
func ParseRequest(q models.ExportQuery, window time.Duration, now time.Time) (*Request, error) {
	format, err := ParseFormat(q.Format)
	if err != nil {
		return nil, err
	}
	return &Request{
		SensorID:         strings.TrimSpace(q.SensorID),
		Range:            ResolveRange(q.Start, q.End, window, now),
		Metrics:          ParseMetricList(q.Metrics),
		Format:           format,
		IncludeRaw:       ParseOptOutFlag(q.IncludeRaw),
		IncludeAnalytics: ParseFlag(q.IncludeAnalytics),
		Compression:      ParseFlag(q.Compression),
	}, nil
}

// BaseName is the download name before compression, e.g. do-sensor-data_2024-01-01_2024-01-08.csv
func (r *Request) BaseName() string {
	return "do-sensor-data_" +
		time.Unix(r.Range.From, 0).UTC().Format(dayLayout) + "_" +
		time.Unix(r.Range.To, 0).UTC().Format(dayLayout) + "." + r.Format.Extension()
}

// Meta is the header block shared by the JSON and PDF encoders.
func (r *Request) Meta() Meta {
	return Meta{SensorID: r.SensorID, From: r.Range.FromISO(), To: r.Range.ToISO()}
}

func invalidFormat(value string) error {
	return errors.NewValidationError("unsupported export format", nil).WithDetails(map[string]any{
		"format":    value,
		"supported": []string{"csv", "json", "xlsx", "pdf"},
	})
}
