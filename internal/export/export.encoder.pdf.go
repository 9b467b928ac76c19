// FilePath: internal/export/export.encoder.pdf.go
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 40.0
	pdfFontFamily = "Helvetica"
)

type pdfEncoder struct {
	creator     string
	previewRows int
	compress    bool
}

// Encode renders an A4 report: header block, one line per summary and a pipe
// delimited preview of the first rows.
func (e pdfEncoder) Encode(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCompression(e.compress)
	pdf.SetTitle(DocumentTitle, true)
	pdf.SetCreator(e.creator, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	text := func(size, height float64, s string) {
		pdf.SetFont(pdfFontFamily, "", size)
		pdf.MultiCell(0, height, tr(s), "", "L", false)
	}
	heading := func(s string) {
		pdf.Ln(10)
		pdf.SetFont(pdfFontFamily, "BU", 12)
		pdf.CellFormat(0, 16, tr(s), "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "B", 16)
	pdf.CellFormat(0, 24, tr(DocumentTitle), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	text(10, 14, "Sensor: "+doc.Meta.SensorID)
	text(10, 14, fmt.Sprintf("Date range: %s to %s", doc.Meta.From, doc.Meta.To))
	text(10, 14, "Metrics: "+strings.Join(MetricKeys(doc.Metrics), ", "))
	text(10, 14, fmt.Sprintf("Records: %d", len(doc.Dataset)))

	if len(doc.Summaries) > 0 {
		heading("Analytics")
		for _, s := range doc.Summaries {
			text(10, 14, fmt.Sprintf("%s: avg %s | min %s | max %s | n=%d",
				s.Metric, formatNumber(s.Avg), formatNumber(s.Min), formatNumber(s.Max), s.Count))
		}
	}

	if doc.hasRaw() {
		heading(fmt.Sprintf("Data (first %d rows)", e.previewRows))
		keys := append([]string{"timestamp", "iso8601"}, MetricKeys(doc.Metrics)...)
		text(8, 10, strings.Join(keys, " | "))
		pdf.Ln(2)

		preview := doc.Dataset
		if len(preview) > e.previewRows {
			preview = preview[:e.previewRows]
		}
		for _, rec := range preview {
			text(8, 10, strings.Join(rec.Cells(), " | "))
		}
		if extra := len(doc.Dataset) - len(preview); extra > 0 {
			pdf.Ln(6)
			text(8, 10, fmt.Sprintf("(+%d more rows)", extra))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
