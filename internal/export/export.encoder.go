// FilePath: internal/export/export.encoder.go
package export

import (
	"github.com/dosense/dohub/internal/errors"
)

const (
	DefaultPreviewRows = 200
	DefaultCreator     = "DO Sensor Dashboard"
	DocumentTitle      = "DO Sensor Data Export"

	noDataNotice      = "No data available for the selected range"
	rawExcludedNotice = "Raw data excluded from export"
)

// Meta identifies the exported sensor and range.
type Meta struct {
	SensorID string `json:"sensorId"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// Document is everything an encoder needs. Summaries is nil when analytics were not
// requested and empty when they were requested but no metric had data.
type Document struct {
	Meta       Meta
	Metrics    []Metric
	Dataset    []Record
	Summaries  []Summary
	IncludeRaw bool
}

func (d *Document) hasRaw() bool {
	return d.IncludeRaw && len(d.Dataset) > 0
}

// EncoderOptions tunes the document encoders.
type EncoderOptions struct {
	Creator        string
	PreviewRows    int
	PDFCompression bool
}

func (o EncoderOptions) withDefaults() EncoderOptions {
	if o.Creator == "" {
		o.Creator = DefaultCreator
	}
	if o.PreviewRows <= 0 {
		o.PreviewRows = DefaultPreviewRows
	}
	return o
}

// Encoder serializes a Document into a complete file.
type Encoder interface {
	Encode(doc *Document) ([]byte, error)
}

// EncoderFor selects the encoder for f.
func EncoderFor(f Format, opts EncoderOptions) (Encoder, error) {
	opts = opts.withDefaults()
	switch f {
	case FormatCSV:
		return csvEncoder{}, nil
	case FormatJSON:
		return jsonEncoder{}, nil
	case FormatXLSX:
		return xlsxEncoder{creator: opts.Creator}, nil
	case FormatPDF:
		return pdfEncoder{creator: opts.Creator, previewRows: opts.PreviewRows, compress: opts.PDFCompression}, nil
	}
	return nil, errors.NewInternalError("no encoder for format "+f.String(), nil)
}

// Encode runs the encoder for f. Encoder failures surface as a single internal error.
func Encode(f Format, doc *Document, opts EncoderOptions) ([]byte, error) {
	enc, err := EncoderFor(f, opts)
	if err != nil {
		return nil, err
	}
	body, err := enc.Encode(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode "+f.String()+" export")
	}
	return body, nil
}
