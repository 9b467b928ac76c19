// FilePath: internal/export/export.encoder.json.go
package export

import "encoding/json"

type jsonDocument struct {
	Meta      Meta      `json:"meta"`
	Metrics   []string  `json:"metrics"`
	Data      []Record  `json:"data"`
	Analytics []Summary `json:"analytics"`
}

type jsonEncoder struct{}

func (jsonEncoder) Encode(doc *Document) ([]byte, error) {
	out := jsonDocument{
		Meta:      doc.Meta,
		Metrics:   MetricKeys(doc.Metrics),
		Data:      []Record{},
		Analytics: doc.Summaries,
	}
	if doc.IncludeRaw && doc.Dataset != nil {
		out.Data = doc.Dataset
	}
	return json.Marshal(out)
}
