package ioformats

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/channely/datablocks-editor/errs"
)

// GzipCompress wraps data for the optional "download as .csv.gz /
// .json.gz" export path, a common dataflow-editor feature that
// supplements the core import/export surface.
func GzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, errs.ErrFile.New("gzip compress: %s", err)
	}
	if err := w.Close(); err != nil {
		return nil, errs.ErrFile.New("gzip close: %s", err)
	}
	return buf.Bytes(), nil
}

// GzipDecompress reverses GzipCompress.
func GzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.ErrFile.New("gzip reader: %s", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.ErrFile.New("gzip decompress: %s", err)
	}
	return out, nil
}
