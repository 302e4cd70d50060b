package miniostorage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

func TestObjectOptions(t *testing.T) {
	opts := objectOptions("results/0b9c7a1e.png", "image/png")
	require.Equal(t, "image/png", opts.ContentType)
	require.Equal(t, cacheControl, opts.CacheControl)
	require.Equal(t, `inline; filename="results-0b9c7a1e.png"`, opts.ContentDisposition)
	require.Equal(t, map[string]string{"attempt": "0b9c7a1e", "kind": "results"}, opts.UserMetadata)

	opts = objectOptions("thumbs/0b9c7a1e.jpg", "image/jpeg")
	require.Equal(t, "thumbs", opts.UserMetadata["kind"])

	// ключ без префикса - только тип содержимого
	opts = objectOptions("loose.bin", "application/octet-stream")
	require.Empty(t, opts.UserMetadata)
	require.Empty(t, opts.ContentDisposition)
	require.Equal(t, cacheControl, opts.CacheControl)
}

func TestEndpoint(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"minio", "minio:9000"},
		{"minio:9100", "minio:9100"},
		{"127.0.0.1", "127.0.0.1:9000"},
		{"::1", "[::1]:9000"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, endpoint(tt.addr), tt.addr)
	}
}

func TestIsNotFound(t *testing.T) {
	require.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	require.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	require.False(t, isNotFound(errors.New("connection refused")))
}
