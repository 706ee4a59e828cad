package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vexsearch/sysdb/internal/version"
	"github.com/vexsearch/sysdb/pkg/objectstore"
	"gopkg.in/yaml.v3"
)

// Seed is a document describing initial catalog contents.
type Seed struct {
	// FormatVersion is the seed document version. 0 is read as the current version.
	FormatVersion int          `json:"format_version" yaml:"format_version"`
	Collections   []Collection `json:"collections" yaml:"collections"`
	Segments      []Segment    `json:"segments" yaml:"segments"`
	Tenants       []TenantSeed `json:"tenants" yaml:"tenants"`
}

// TenantSeed is the initial compaction state of one tenant.
type TenantSeed struct {
	ID                 string `json:"id" yaml:"id"`
	LastCompactionTime int64  `json:"last_compaction_time" yaml:"last_compaction_time"`
}

// LoadSeed reads a seed document from a local path. The codec is chosen by extension:
// .json, .yaml or .yml, optionally followed by .zst for zstd compression.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	seed, err := decodeSeedFile(path, data)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return seed, nil
}

// LoadSeedFromStore reads a seed document from an object store. Key extensions
// select the codec as in LoadSeed.
func LoadSeedFromStore(ctx context.Context, store objectstore.Store, key string) (*Seed, error) {
	reader, _, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch seed %s: %w", key, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", key, err)
	}
	seed, err := decodeSeedFile(key, data)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", key, err)
	}
	return seed, nil
}

// SeedLoader resolves a seed location, either a local path or an s3://bucket/key url.
type SeedLoader struct {
	// OpenBucket returns the store for a bucket. Nil disables object store locations.
	OpenBucket func(bucket string) (objectstore.Store, error)
}

// Load reads the seed document at location.
func (l SeedLoader) Load(ctx context.Context, location string) (*Seed, error) {
	if !objectstore.IsURL(location) {
		return LoadSeed(location)
	}

	bucket, key, err := objectstore.ParseURL(location)
	if err != nil {
		return nil, err
	}
	if l.OpenBucket == nil {
		return nil, fmt.Errorf("seed %s: object store not configured", location)
	}
	store, err := l.OpenBucket(bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return LoadSeedFromStore(ctx, store, key)
}

func decodeSeedFile(name string, data []byte) (*Seed, error) {
	name = strings.ToLower(name)
	if strings.HasSuffix(name, ".zst") {
		var err error
		data, err = decompress(data)
		if err != nil {
			return nil, fmt.Errorf("decompress: %w", err)
		}
		name = strings.TrimSuffix(name, ".zst")
	}
	return DecodeSeed(filepath.Ext(name), data)
}

// DecodeSeed decodes a seed document. ext selects the codec (".yaml" and ".yml" for
// YAML, anything else for JSON) and the format version is checked after decoding.
func DecodeSeed(ext string, data []byte) (*Seed, error) {
	seed := &Seed{}
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, seed); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(seed); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	}

	if err := version.CheckSeedVersion(seed.FormatVersion); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedSeedVersion, err)
	}
	return seed, nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

// Validate checks ids, segment types and scopes without touching any catalog.
func (s *Seed) Validate() error {
	for i, collection := range s.Collections {
		if collection.ID == uuid.Nil {
			return fmt.Errorf("collection %d (%q): missing id", i, collection.Name)
		}
	}
	for i, segment := range s.Segments {
		if segment.ID == uuid.Nil {
			return fmt.Errorf("segment %d: missing id", i)
		}
		if segment.CollectionID == uuid.Nil {
			return fmt.Errorf("segment %s: missing collection id", segment.ID)
		}
		if _, err := ParseSegmentType(string(segment.Type)); err != nil {
			return fmt.Errorf("segment %s: %w", segment.ID, err)
		}
		switch segment.Scope {
		case ScopeVector, ScopeMetadata, ScopeRecord, ScopeSQLite:
		default:
			return fmt.Errorf("segment %s: unknown scope %q", segment.ID, segment.Scope)
		}
	}
	for i, tenant := range s.Tenants {
		if tenant.ID == "" {
			return fmt.Errorf("tenant %d: missing id", i)
		}
	}
	return nil
}

// Apply validates the seed and registers its tenants, collections and segments,
// in that order. Nothing is registered if validation fails.
func (s *Seed) Apply(c *MemoryCatalog) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, tenant := range s.Tenants {
		c.AddTenantLastCompactionTime(tenant.ID, tenant.LastCompactionTime)
	}
	for _, collection := range s.Collections {
		c.AddCollection(collection)
	}
	for _, segment := range s.Segments {
		c.AddSegment(segment)
	}
	return nil
}
