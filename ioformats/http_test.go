package ioformats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHTTPMapsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"a":1}]`))
	}))
	defer srv.Close()

	res, err := FetchHTTP(context.Background(), HTTPRequestSpec{URL: srv.URL, Method: http.MethodGet, Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, []string{"a"}, res.Table.Columns)
}

func TestFetchHTTPRejectsNonHTTPScheme(t *testing.T) {
	_, err := FetchHTTP(context.Background(), HTTPRequestSpec{URL: "ftp://example.com"})
	require.Error(t, err)
}

func TestFetchHTTPMapsPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	res, err := FetchHTTP(context.Background(), HTTPRequestSpec{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Table.Rows[0][0].Str)
}
