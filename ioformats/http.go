package ioformats

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/table"
)

// HTTPRequestSpec is the http-request node's configuration:
// method/headers/body/timeout, URL restricted to http/https.
type HTTPRequestSpec struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
	Timeout time.Duration
}

// HTTPResult bundles the mapped Table with the metadata // requires be attached to the output: status, content-type, response
// size, elapsed time, method, and URL.
type HTTPResult struct {
	Table       *table.Table
	Status      int
	ContentType string
	Size        int
	Elapsed     time.Duration
	Method      string
	URL         string
}

// FetchHTTP validates the URL scheme, issues the request through
// go-retryablehttp (bounded retries on transient transport errors,
// distinct from the scheduler's own operator-level retry), races
// against the configured 1-60s timeout, and maps the response by
// content type.
func FetchHTTP(ctx context.Context, spec HTTPRequestSpec) (*HTTPResult, error) {
	u, err := url.Parse(spec.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errs.ErrValidation.New("http-request: url must be http or https, got %q", spec.URL)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if timeout < time.Second {
		timeout = time.Second
	}
	if timeout > 60*time.Second {
		timeout = 60 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	var body io.Reader
	if spec.Body != "" {
		body = strings.NewReader(spec.Body)
	}
	req, err := retryablehttp.NewRequestWithContext(reqCtx, method, spec.URL, body)
	if err != nil {
		return nil, errs.ErrNetwork.New("http-request: build request: %s", err)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.ErrNetwork.New("http-request: %s", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.ErrNetwork.New("http-request: read body: %s", err)
	}
	elapsed := time.Since(start)

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	tbl, err := mapResponseToTable(raw, mediaType)
	if err != nil {
		return nil, err
	}

	return &HTTPResult{
		Table:       tbl,
		Status:      resp.StatusCode,
		ContentType: contentType,
		Size:        len(raw),
		Elapsed:     elapsed,
		Method:      method,
		URL:         spec.URL,
	}, nil
}

// mapResponseToTable maps a response by content type :
// JSON -> object/array -> Table; CSV -> Table; anything else -> a
// single-cell table holding the raw text.
func mapResponseToTable(raw []byte, mediaType string) (*table.Table, error) {
	switch {
	case strings.Contains(mediaType, "json"):
		return ParseJSON(raw)
	case strings.Contains(mediaType, "csv"):
		return ParseCSV(raw, DefaultCSVOptions())
	default:
		return table.FromRows([]string{"value"}, [][]any{{string(raw)}})
	}
}
