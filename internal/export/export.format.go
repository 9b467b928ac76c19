// FilePath: internal/export/export.format.go
package export

import "strings"

// Format is the closed set of export encodings.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatXLSX
	FormatPDF
)

// ParseFormat accepts csv, json, xlsx (alias excel) and pdf, case-insensitively.
// An empty value selects CSV.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return FormatCSV, invalidFormat(value)
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatJSON:
		return "json"
	case FormatXLSX:
		return "xlsx"
	case FormatPDF:
		return "pdf"
	}
	return "unknown"
}

// Extension is the file extension without the leading dot.
func (f Format) Extension() string {
	return f.String()
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}
