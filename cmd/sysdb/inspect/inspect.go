package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/vexsearch/sysdb/internal/catalog"
	"github.com/vexsearch/sysdb/internal/config"
	"github.com/vexsearch/sysdb/internal/logging"
)

// Report is the JSON document printed by inspect.
type Report struct {
	Collections []*catalog.Collection          `json:"collections"`
	Segments    []*catalog.Segment             `json:"segments"`
	Databases   map[string][]*catalog.Database `json:"databases"`
	Tenants     []*catalog.Tenant              `json:"tenants"`
}

func Run(args []string) {
	if err := run(args, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("inspect: %v", err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	seedPath := fs.String("seed", "", "Path to seed document (overrides config)")
	tenant := fs.String("tenant", "", "Only report this tenant")
	offset := fs.Uint("offset", 0, "Databases to skip per tenant")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *seedPath != "" {
		cfg.SeedPath = *seedPath
	}
	if cfg.SeedPath == "" {
		return errors.New("no seed document: pass -seed or set seed_path")
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.NewWithLevel(stderr, level)

	ctx := context.Background()
	loader := catalog.SeedLoader{OpenBucket: cfg.ObjectStore.OpenBucket}
	seed, err := loader.Load(ctx, cfg.SeedPath)
	if err != nil {
		return err
	}
	store := catalog.NewMemoryCatalog(catalog.WithLogger(logger))
	if err := seed.Apply(store); err != nil {
		return err
	}

	report, err := buildReport(ctx, catalog.NewInstrumentedCatalog(store, logger), seed, *tenant, uint32(*offset), cfg.Catalog.ListLimit())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func buildReport(ctx context.Context, c catalog.Catalog, seed *catalog.Seed, tenant string, offset uint32, limit *uint32) (*Report, error) {
	filter := catalog.CollectionFilter{}
	if tenant != "" {
		filter.Tenant = catalog.StringPtr(tenant)
	}

	collections, err := c.GetCollections(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Collections: collections,
		Segments:    make([]*catalog.Segment, 0),
		Databases:   make(map[string][]*catalog.Database),
		Tenants:     make([]*catalog.Tenant, 0),
	}

	tenants := make(map[string]struct{})
	for _, collection := range collections {
		segments, err := c.GetSegments(ctx, catalog.SegmentFilter{CollectionID: collection.ID})
		if err != nil {
			return nil, err
		}
		report.Segments = append(report.Segments, segments...)
		tenants[collection.Tenant] = struct{}{}
	}

	for t := range tenants {
		databases, err := c.ListDatabases(ctx, t, limit, offset)
		if err != nil {
			return nil, err
		}
		report.Databases[t] = databases
	}

	// Only tenants with recorded compaction state can be queried.
	tenantIDs := make([]string, 0, len(seed.Tenants))
	for _, ts := range seed.Tenants {
		if tenant == "" || ts.ID == tenant {
			tenantIDs = append(tenantIDs, ts.ID)
		}
	}
	sort.Strings(tenantIDs)
	if len(tenantIDs) > 0 {
		report.Tenants, err = c.GetLastCompactionTime(ctx, tenantIDs)
		if err != nil {
			return nil, err
		}
	}

	return report, nil
}
