// FilePath: internal/export/export.encoder.csv.go
package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

var analyticsCSVHeader = []string{"metric", "average", "min", "max", "count"}

type csvEncoder struct{}

// Encode writes raw rows, then a blank line and the analytics table. With neither
// present it writes a notice so the file is never empty.
func (csvEncoder) Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	wrote := false
	if doc.hasRaw() {
		if err := w.Write(doc.Dataset[0].Keys()); err != nil {
			return nil, err
		}
		for _, rec := range doc.Dataset {
			if err := w.Write(rec.Cells()); err != nil {
				return nil, err
			}
		}
		wrote = true
	}

	if len(doc.Summaries) > 0 {
		if wrote {
			if err := w.Write([]string{}); err != nil {
				return nil, err
			}
		}
		if err := w.Write(analyticsCSVHeader); err != nil {
			return nil, err
		}
		for _, s := range doc.Summaries {
			row := []string{
				string(s.Metric),
				formatNumber(s.Avg),
				formatNumber(s.Min),
				formatNumber(s.Max),
				strconv.Itoa(s.Count),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
		wrote = true
	}

	if !wrote {
		if err := w.Write([]string{"notice"}); err != nil {
			return nil, err
		}
		if err := w.Write([]string{noDataNotice}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
