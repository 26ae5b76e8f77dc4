// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resource-miner/internal/chunk"
	"github.com/pdiddy/resource-miner/internal/dedup"
	"github.com/pdiddy/resource-miner/internal/europepmc"
	"github.com/pdiddy/resource-miner/internal/harvest"
	"github.com/pdiddy/resource-miner/internal/httputil"
	"github.com/pdiddy/resource-miner/internal/logging"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Search Europe PMC for every resource and store new article metadata",
	Long: `Harvest runs one full-text search per resource in the vocabulary on a
bounded worker pool. Each article id is recorded once in a SQLite store
that persists across runs; metadata of new ids is appended to gzip JSONL
shards. When all queries finish the stored ids are split into chunk files.
Counters are exported to harvest.prom and the run is described in
harvest.yaml, both in the output directory.`,
	RunE: runHarvest,
}

func init() {
	f := harvestCmd.Flags()
	f.String("resources", "", "vocabulary file (JSON or YAML) mapping resource id to aliases")
	f.String("aliases", "", "extra aliases file keyed by primary resource name")
	f.String("out", "", "output directory (default harvest)")
	f.Int("workers", 0, "concurrent query workers (default 4)")
	f.Int("shards", 0, "metadata shard count (default 128)")
	f.Int("chunks", 0, "id-list chunk count (default 1)")
	f.Int("limit", 0, "maximum results per query; 0 for no limit")
	f.Int("page-size", 0, "search page size, at most 1000")
	f.StringSlice("id", nil, "explicit article id to include (repeatable, at most 100)")
	f.String("ids", "", "file of explicit article ids, one per line")

	for flag, key := range map[string]string{
		"resources": keyResources,
		"aliases":   keyExtraAliases,
		"out":       keyHarvestOut,
		"workers":   keyWorkers,
		"shards":    keyShards,
		"chunks":    keyChunks,
		"limit":     keyResultLimit,
		"page-size": keyPageSize,
	} {
		bindFlag(harvestCmd, flag, key)
	}

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.Component(logger, "harvest")
	out := cmd.OutOrStdout()
	hc := cfg.Harvest

	v, err := loadVocabulary()
	if err != nil {
		return err
	}
	idFlags, _ := cmd.Flags().GetStringSlice("id")
	idFile, _ := cmd.Flags().GetString("ids")
	ids, err := collectIDs(append(hc.IncludeIDs, idFlags...), idFile)
	if err != nil {
		return err
	}

	manifest := harvest.Manifest{RunID: runID, StartedAt: time.Now().UTC(), Resources: v.Len(), Shards: hc.Shards}
	metrics := harvest.NewMetrics()
	h := &harvest.Harvester{
		Search:  europepmc.New(httputil.NewClient(hc.HTTPConfig)),
		Config:  hc,
		Log:     log,
		Metrics: metrics,
	}

	tasks := harvest.Tasks(v, ids, log)
	fmt.Fprintf(out, "harvesting: %d queries, %d workers, output %s\n", len(tasks), hc.Workers, hc.OutDir)
	sum, err := h.Run(ctx, tasks, out)
	manifest.Apply(sum)
	if err != nil {
		return fmt.Errorf("harvest aborted (see %s): %w", filepath.Join(hc.OutDir, harvest.CrashLogFile), err)
	}

	paths, total, err := partition(ctx, hc.OutDir, hc.CommitInterval, hc.Chunks)
	if err != nil {
		return err
	}
	for _, p := range paths {
		manifest.ChunkFiles = append(manifest.ChunkFiles, filepath.Base(p))
	}
	manifest.TotalIDs = total
	manifest.FinishedAt = time.Now().UTC()

	if err := metrics.WriteTextfile(filepath.Join(hc.OutDir, harvest.MetricsFile)); err != nil {
		log.Warn().Err(err).Msg("metrics export failed")
	}
	if err := harvest.WriteManifest(hc.OutDir, manifest); err != nil {
		return err
	}
	fmt.Fprintf(out, "chunked: %d ids into %d file(s)\n", total, len(paths))

	if sum.HasFailures() {
		return fmt.Errorf("%d query(ies) failed", sum.FailedQueries)
	}
	return nil
}

// partition splits the stored ids of outDir into chunk files next to the
// store and returns their paths and the id count.
func partition(ctx context.Context, outDir string, commit time.Duration, chunks int) ([]string, int, error) {
	dbPath := filepath.Join(outDir, dedup.DBFile)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, 0, fmt.Errorf("no dedup store in %s: %w", outDir, err)
	}
	store, err := dedup.Open(dbPath, commit)
	if err != nil {
		return nil, 0, err
	}
	defer store.Close()

	total, err := store.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	paths, err := chunk.Partition(ctx, store, outDir, chunks)
	if err != nil {
		return paths, total, fmt.Errorf("writing chunks: %w", err)
	}
	return paths, total, nil
}
