package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vexsearch/sysdb/internal/version"
	"github.com/vexsearch/sysdb/pkg/objectstore"
)

const (
	seedCollectionID = "5f0a2c2e-1f0b-4b8e-9c4e-2d9a6f6a0c01"
	seedSegmentID    = "9a6f1c3b-7e2d-4c55-8b1a-0f3e2d1c4b02"
)

const seedJSON = `{
	"format_version": 1,
	"collections": [
		{
			"id": "5f0a2c2e-1f0b-4b8e-9c4e-2d9a6f6a0c01",
			"name": "docs",
			"tenant": "t1",
			"database": "d1",
			"log_position": 12,
			"version": 3,
			"total_records_post_compaction": 400
		}
	],
	"segments": [
		{
			"id": "9a6f1c3b-7e2d-4c55-8b1a-0f3e2d1c4b02",
			"collection_id": "5f0a2c2e-1f0b-4b8e-9c4e-2d9a6f6a0c01",
			"scope": "VECTOR",
			"type": "urn:chroma:segment/vector/hnsw-distributed",
			"file_paths": {"hnsw_index": ["s3://b/idx"]}
		}
	],
	"tenants": [
		{"id": "t1", "last_compaction_time": 9}
	]
}`

const seedYAML = `format_version: 1
collections:
  - id: 5f0a2c2e-1f0b-4b8e-9c4e-2d9a6f6a0c01
    name: docs
    tenant: t1
    database: d1
    log_position: 12
    version: 3
    total_records_post_compaction: 400
segments:
  - id: 9a6f1c3b-7e2d-4c55-8b1a-0f3e2d1c4b02
    collection_id: 5f0a2c2e-1f0b-4b8e-9c4e-2d9a6f6a0c01
    scope: VECTOR
    type: urn:chroma:segment/vector/hnsw-distributed
    file_paths:
      hnsw_index:
        - s3://b/idx
tenants:
  - id: t1
    last_compaction_time: 9
`

func writeSeedFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}
	return path
}

func compressSeed(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func assertSeedContents(t *testing.T, seed *Seed) {
	t.Helper()
	if len(seed.Collections) != 1 || len(seed.Segments) != 1 || len(seed.Tenants) != 1 {
		t.Fatalf("unexpected seed sizes: %d collections, %d segments, %d tenants",
			len(seed.Collections), len(seed.Segments), len(seed.Tenants))
	}
	coll := seed.Collections[0]
	if coll.ID != uuid.MustParse(seedCollectionID) {
		t.Errorf("expected collection id %s, got %s", seedCollectionID, coll.ID)
	}
	if coll.Name != "docs" || coll.Tenant != "t1" || coll.Database != "d1" {
		t.Errorf("unexpected collection: %+v", coll)
	}
	if coll.LogPosition != 12 || coll.Version != 3 || coll.TotalRecordsPostCompaction != 400 {
		t.Errorf("unexpected collection counters: %+v", coll)
	}
	seg := seed.Segments[0]
	if seg.ID != uuid.MustParse(seedSegmentID) || seg.CollectionID != coll.ID {
		t.Errorf("unexpected segment ids: %+v", seg)
	}
	if seg.Scope != ScopeVector || seg.Type != SegmentTypeHNSWDistributed {
		t.Errorf("unexpected segment kind: %s %s", seg.Scope, seg.Type)
	}
	if paths := seg.FilePaths["hnsw_index"]; len(paths) != 1 || paths[0] != "s3://b/idx" {
		t.Errorf("unexpected file paths: %v", seg.FilePaths)
	}
	if seed.Tenants[0].ID != "t1" || seed.Tenants[0].LastCompactionTime != 9 {
		t.Errorf("unexpected tenant: %+v", seed.Tenants[0])
	}
}

func TestLoadSeed(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"json", "seed.json", []byte(seedJSON)},
		{"yaml", "seed.yaml", []byte(seedYAML)},
		{"yml", "seed.yml", []byte(seedYAML)},
		{"json zstd", "seed.json.zst", compressSeed(t, []byte(seedJSON))},
		{"yaml zstd", "seed.yaml.zst", compressSeed(t, []byte(seedYAML))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := LoadSeed(writeSeedFile(t, tt.file, tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertSeedContents(t, seed)
		})
	}
}

func TestLoadSeedErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadSeed(filepath.Join(t.TempDir(), "none.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("corrupt zstd", func(t *testing.T) {
		path := writeSeedFile(t, "seed.json.zst", []byte("not zstd at all"))
		if _, err := LoadSeed(path); err == nil {
			t.Error("expected error for corrupt zstd")
		}
	})

	t.Run("unknown json field", func(t *testing.T) {
		path := writeSeedFile(t, "seed.json", []byte(`{"colections": []}`))
		if _, err := LoadSeed(path); err == nil {
			t.Error("expected error for unknown field")
		}
	})

	t.Run("malformed uuid", func(t *testing.T) {
		path := writeSeedFile(t, "seed.json", []byte(`{"collections": [{"id": "nope"}]}`))
		if _, err := LoadSeed(path); err == nil {
			t.Error("expected error for malformed uuid")
		}
	})
}

func TestDecodeSeedVersion(t *testing.T) {
	seed, err := DecodeSeed(".json", []byte(`{"tenants": [{"id": "t1"}]}`))
	if err != nil {
		t.Fatalf("unversioned seed should load: %v", err)
	}
	if len(seed.Tenants) != 1 {
		t.Errorf("expected 1 tenant, got %d", len(seed.Tenants))
	}

	future := version.SeedFormatVersionCurrent + 1
	data := []byte(`{"format_version": ` + strconv.Itoa(future) + `}`)
	_, err = DecodeSeed(".json", data)
	if !errors.Is(err, ErrUnsupportedSeedVersion) {
		t.Fatalf("expected ErrUnsupportedSeedVersion, got %v", err)
	}
	var tooNew *version.ErrVersionTooNew
	if !errors.As(err, &tooNew) {
		t.Errorf("expected wrapped ErrVersionTooNew, got %v", err)
	}
}

func TestSeedValidate(t *testing.T) {
	collID := uuid.New()
	valid := func() *Seed {
		return &Seed{
			Collections: []Collection{{ID: collID, Name: "c", Tenant: "t1", Database: "d1"}},
			Segments: []Segment{{
				ID:           uuid.New(),
				CollectionID: collID,
				Scope:        ScopeRecord,
				Type:         SegmentTypeBlockfileRecord,
			}},
			Tenants: []TenantSeed{{ID: "t1"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Seed)
		wantErr string
	}{
		{"valid", func(*Seed) {}, ""},
		{"collection without id", func(s *Seed) { s.Collections[0].ID = uuid.Nil }, "missing id"},
		{"segment without id", func(s *Seed) { s.Segments[0].ID = uuid.Nil }, "missing id"},
		{"segment without collection", func(s *Seed) { s.Segments[0].CollectionID = uuid.Nil }, "missing collection id"},
		{"bad segment type", func(s *Seed) { s.Segments[0].Type = "blockfile" }, "malformed segment type"},
		{"bad scope", func(s *Seed) { s.Segments[0].Scope = "INDEX" }, "unknown scope"},
		{"tenant without id", func(s *Seed) { s.Tenants[0].ID = "" }, "missing id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := valid()
			tt.mutate(seed)
			err := seed.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSeedApply(t *testing.T) {
	ctx := context.Background()
	seed, err := DecodeSeed(".json", []byte(seedJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := NewMemoryCatalog()
	if err := seed.Apply(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := c.Stats()
	if stats.Collections != 1 || stats.Segments != 1 || stats.Tenants != 1 {
		t.Fatalf("unexpected stats after apply: %+v", stats)
	}

	collID := uuid.MustParse(seedCollectionID)
	size, err := c.GetCollectionSize(ctx, collID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 400 {
		t.Errorf("expected size 400, got %d", size)
	}

	resp, err := c.FlushCompaction(ctx, FlushCompactionRequest{
		TenantID:          "t1",
		CollectionID:      collID,
		CollectionVersion: 3,
		SegmentFlushInfo:  []SegmentFlushInfo{{SegmentID: uuid.MustParse(seedSegmentID)}},
	})
	if err != nil {
		t.Fatalf("flush against seeded catalog failed: %v", err)
	}
	if resp.CollectionVersion != 4 || resp.LastCompactionTime != 10 {
		t.Errorf("unexpected flush response: %+v", resp)
	}
}

func TestSeedApplyInvalidRegistersNothing(t *testing.T) {
	seed := &Seed{
		Collections: []Collection{{ID: uuid.New(), Name: "c"}},
		Segments:    []Segment{{ID: uuid.New(), CollectionID: uuid.New(), Scope: ScopeVector, Type: "bogus"}},
	}

	c := NewMemoryCatalog()
	if err := seed.Apply(c); !errors.Is(err, ErrMalformedSegmentType) {
		t.Fatalf("expected ErrMalformedSegmentType, got %v", err)
	}
	if stats := c.Stats(); stats.Collections != 0 || stats.Segments != 0 {
		t.Errorf("expected empty catalog, got %+v", stats)
	}
}

func TestLoadSeedFromStore(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemoryStore()
	store.Put("seeds/prod.yaml", []byte(seedYAML), "application/yaml")
	store.Put("seeds/prod.json.zst", compressSeed(t, []byte(seedJSON)), "application/zstd")

	for _, key := range []string{"seeds/prod.yaml", "seeds/prod.json.zst"} {
		t.Run(key, func(t *testing.T) {
			seed, err := LoadSeedFromStore(ctx, store, key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertSeedContents(t, seed)
		})
	}

	_, err := LoadSeedFromStore(ctx, store, "seeds/missing.json")
	if !errors.Is(err, objectstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSeedLoader(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemoryStore()
	store.Put("catalog/seed.json", []byte(seedJSON), "application/json")

	var opened []string
	loader := SeedLoader{
		OpenBucket: func(bucket string) (objectstore.Store, error) {
			opened = append(opened, bucket)
			if bucket != "sysdb" {
				return nil, errors.New("no such bucket")
			}
			return store, nil
		},
	}

	t.Run("object url", func(t *testing.T) {
		seed, err := loader.Load(ctx, "s3://sysdb/catalog/seed.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertSeedContents(t, seed)
		if len(opened) != 1 || opened[0] != "sysdb" {
			t.Errorf("expected bucket sysdb to be opened, got %v", opened)
		}
	})

	t.Run("local path", func(t *testing.T) {
		seed, err := loader.Load(ctx, writeSeedFile(t, "seed.yml", []byte(seedYAML)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertSeedContents(t, seed)
	})

	t.Run("bad url", func(t *testing.T) {
		if _, err := loader.Load(ctx, "s3://sysdb"); !errors.Is(err, objectstore.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})

	t.Run("unknown bucket", func(t *testing.T) {
		if _, err := loader.Load(ctx, "s3://other/seed.json"); err == nil {
			t.Error("expected error for unknown bucket")
		}
	})

	t.Run("no object store", func(t *testing.T) {
		if _, err := (SeedLoader{}).Load(ctx, "s3://sysdb/catalog/seed.json"); err == nil {
			t.Error("expected error without object store")
		}
	})
}
