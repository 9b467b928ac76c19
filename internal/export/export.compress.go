// FilePath: internal/export/export.compress.go
package export

import (
	"bytes"
	"compress/gzip"
	"fmt"

	"github.com/dosense/dohub/internal/errors"
)

const gzipContentType = "application/gzip"

// Payload is an encoded, possibly compressed, export ready for delivery.
type Payload struct {
	Body        []byte
	FileName    string
	ContentType string
	Compressed  bool
}

// ContentDisposition is the attachment header value for the payload.
func (p *Payload) ContentDisposition() string {
	return fmt.Sprintf("attachment; filename=%q", p.FileName)
}

// Wrap passes the body through, or gzips it and appends .gz to the name.
func Wrap(body []byte, baseName string, compress bool, contentType string) (*Payload, error) {
	if !compress {
		return &Payload{Body: body, FileName: baseName, ContentType: contentType}, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Name = baseName
	if _, err := zw.Write(body); err != nil {
		return nil, errors.NewInternalError("failed to compress export", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.NewInternalError("failed to compress export", err)
	}
	return &Payload{
		Body:        buf.Bytes(),
		FileName:    baseName + ".gz",
		ContentType: gzipContentType,
		Compressed:  true,
	}, nil
}
