package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucketServer answers the location, HEAD, and PUT bucket calls the
// MinIO client makes while connecting.
type fakeBucketServer struct {
	mu         sync.Mutex
	headStatus int
	created    []string
}

func (f *fakeBucketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.URL.Query().Has("location"):
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
			`<LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></LocationConstraint>`))
	case r.Method == http.MethodHead:
		w.WriteHeader(f.headStatus)
	case r.Method == http.MethodPut:
		f.created = append(f.created, strings.Trim(r.URL.Path, "/"))
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestNewMinioStore(t *testing.T) {
	tests := []struct {
		name       string
		headStatus int
		created    []string
		errPart    string
	}{
		{"bucket exists", http.StatusOK, nil, ""},
		{"bucket created", http.StatusNotFound, []string{"feed-images"}, ""},
		{"access denied", http.StatusForbidden, nil, "minio bucket feed-images"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBucketServer{headStatus: tt.headStatus}
			srv := httptest.NewServer(fake)
			defer srv.Close()

			s, err := NewMinioStore(context.Background(), strings.TrimPrefix(srv.URL, "http://"),
				"key", "secret", "feed-images", false)

			if tt.errPart != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errPart)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "feed-images", s.bucket)
			assert.Equal(t, tt.created, fake.created)
		})
	}
}

func TestMinioStore_RejectsBadNames(t *testing.T) {
	s := &MinioStore{bucket: "feed-images"}
	ctx := context.Background()

	_, err := s.Save(ctx, "../escape.png", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrInvalidImageRef)
	_, _, err = s.Open(ctx, "images/a/b.png")
	assert.ErrorIs(t, err, ErrInvalidImageRef)
	assert.ErrorIs(t, s.Remove(ctx, "images/.."), ErrInvalidImageRef)
}
