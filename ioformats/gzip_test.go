package ioformats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipRoundTrip(t *testing.T) {
	data := []byte("name,age\nAlice,30\n")
	compressed, err := GzipCompress(data)
	require.NoError(t, err)
	assert.NotEqual(t, data, compressed)
	decompressed, err := GzipDecompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}
