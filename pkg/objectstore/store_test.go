package objectstore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vexsearch/sysdb/internal/metrics"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	content := []byte(`{"collections": []}`)
	putInfo := store.Put("seeds/a.json", content, "application/json")
	if putInfo.ETag == "" {
		t.Error("ETag should not be empty")
	}

	reader, info, err := store.Get(ctx, "seeds/a.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("expected %q, got %q", content, data)
	}
	if info.Size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), info.Size)
	}
	if info.ETag != putInfo.ETag {
		t.Errorf("expected etag %s, got %s", putInfo.ETag, info.ETag)
	}

	head, err := store.Head(ctx, "seeds/a.json")
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if head.ContentType != "application/json" {
		t.Errorf("expected content type application/json, got %s", head.ContentType)
	}

	// Stored bytes are isolated from the caller's buffer.
	content[0] = 'X'
	reader, _, err = store.Get(ctx, "seeds/a.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	data, _ = io.ReadAll(reader)
	reader.Close()
	if data[0] != '{' {
		t.Errorf("stored object changed with caller buffer: %q", data)
	}

	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Get, got %v", err)
	}
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from Head, got %v", err)
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		location   string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"s3://sysdb/seed.json", "sysdb", "seed.json", false},
		{"s3://sysdb/nested/path/seed.yaml.zst", "sysdb", "nested/path/seed.yaml.zst", false},
		{"s3://sysdb", "", "", true},
		{"s3://sysdb/", "", "", true},
		{"s3:///seed.json", "", "", true},
		{"/var/lib/sysdb/seed.json", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			bucket, key, err := ParseURL(tt.location)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Errorf("expected ErrInvalidURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket || key != tt.wantKey {
				t.Errorf("expected %s/%s, got %s/%s", tt.wantBucket, tt.wantKey, bucket, key)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("s3://b/k") {
		t.Error("expected s3://b/k to be a url")
	}
	if IsURL("seed.json") {
		t.Error("expected seed.json to be a local path")
	}
}

func TestInstrumentedStore(t *testing.T) {
	metrics.ObjectStoreOps.Reset()

	inner := NewMemoryStore()
	inner.Put("k", []byte("v"), "")
	store := NewInstrumentedStore(inner)
	ctx := context.Background()

	reader, _, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	reader.Close()
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Head(ctx, "k"); err != nil {
		t.Fatalf("Head failed: %v", err)
	}

	if val := testutil.ToFloat64(metrics.ObjectStoreOps.WithLabelValues("get", "success")); val != 1 {
		t.Errorf("expected 1 successful get, got %f", val)
	}
	if val := testutil.ToFloat64(metrics.ObjectStoreOps.WithLabelValues("get", "error")); val != 1 {
		t.Errorf("expected 1 failed get, got %f", val)
	}
	if val := testutil.ToFloat64(metrics.ObjectStoreOps.WithLabelValues("head", "success")); val != 1 {
		t.Errorf("expected 1 successful head, got %f", val)
	}
}
