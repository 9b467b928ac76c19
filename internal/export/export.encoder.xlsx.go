// FilePath: internal/export/export.encoder.xlsx.go
package export

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	dataSheet      = "Data"
	analyticsSheet = "Analytics"
)

type xlsxEncoder struct {
	creator string
}

// Encode builds a workbook with a Data sheet and, when summaries exist, an Analytics sheet.
func (e xlsxEncoder) Encode(doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator: e.creator,
		Title:   DocumentTitle,
		Created: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := e.writeDataSheet(f, doc, bold); err != nil {
		return nil, err
	}
	if len(doc.Summaries) > 0 {
		if err := e.writeAnalyticsSheet(f, doc.Summaries, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e xlsxEncoder) writeDataSheet(f *excelize.File, doc *Document, headerStyle int) error {
	header := []interface{}{"Timestamp (epoch)", "Timestamp (ISO)"}
	for _, m := range doc.Metrics {
		header = append(header, m.Label())
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetColWidth(dataSheet, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(dataSheet, "B", "B", 26); err != nil {
		return err
	}

	for i, m := range doc.Metrics {
		col, err := excelize.ColumnNumberToName(i + 3)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(dataSheet, col, col, 16); err != nil {
			return err
		}
		numFmt := numberFormat(m.Info().Precision)
		style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return err
		}
		if err := f.SetColStyle(dataSheet, col, style); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(dataSheet, 1, 1, headerStyle); err != nil {
		return err
	}

	if !doc.hasRaw() {
		notice := noDataNotice
		if !doc.IncludeRaw {
			notice = rawExcludedNotice
		}
		placeholder := []interface{}{nil, notice}
		return f.SetSheetRow(dataSheet, "A2", &placeholder)
	}

	for i, rec := range doc.Dataset {
		row := []interface{}{rec.Timestamp, rec.ISO8601}
		for j, m := range rec.Metrics {
			if v := rec.Values[j]; v != nil {
				row = append(row, Round(*v, m.Info().Precision))
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(dataSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (e xlsxEncoder) writeAnalyticsSheet(f *excelize.File, summaries []Summary, headerStyle int) error {
	if _, err := f.NewSheet(analyticsSheet); err != nil {
		return err
	}
	header := []interface{}{"Metric", "Average", "Minimum", "Maximum", "Samples"}
	if err := f.SetSheetRow(analyticsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(analyticsSheet, 1, 1, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(analyticsSheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(analyticsSheet, "B", "E", 12); err != nil {
		return err
	}
	for i, s := range summaries {
		row := []interface{}{string(s.Metric), s.Avg, s.Min, s.Max, s.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(analyticsSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func numberFormat(precision int) string {
	if precision <= 0 {
		return "0"
	}
	return "0." + strings.Repeat("0", precision)
}
