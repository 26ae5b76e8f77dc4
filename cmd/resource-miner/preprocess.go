// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/resource-miner/internal/europepmc"
	"github.com/pdiddy/resource-miner/internal/httputil"
	"github.com/pdiddy/resource-miner/internal/jats"
	"github.com/pdiddy/resource-miner/internal/logging"
	"github.com/pdiddy/resource-miner/pkg/types"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Convert article full text to plain text files",
	Long: `Preprocess resolves each article id to its JATS full text, from the local
archive when one covers the id and from Europe PMC otherwise, and writes the
normalized text to <out>/<id>.txt: title, abstract, metadata fields and
sections first, then flattened tables. Articles without full text produce
no file.`,
	RunE: runPreprocess,
}

func init() {
	f := preprocessCmd.Flags()
	f.StringSlice("id", nil, "article id to process (repeatable)")
	f.String("ids", "", "file of article ids, one per line (e.g. a chunk file)")
	f.String("out", "", "output directory for .txt files (default text)")
	f.String("archive", "", "directory of PMC<start>_PMC<end>.xml[.gz] bundles")
	f.Int("workers", 0, "concurrent documents (default 4)")
	bindFlag(preprocessCmd, "out", keyPreprocessOut)
	bindFlag(preprocessCmd, "archive", keyArchiveDir)
	bindFlag(preprocessCmd, "workers", keyWorkers)

	rootCmd.AddCommand(preprocessCmd)
}

// newExtractor builds the local-then-remote document extractor from config.
func newExtractor(log zerolog.Logger) *jats.Extractor {
	ec := cfg.Extract
	e := &jats.Extractor{
		Remote: europepmc.New(httputil.NewClient(ec.HTTPConfig)),
		Log:    log,
	}
	if ec.LocalArchiveDir != "" {
		e.Archive = jats.NewArchive(ec.LocalArchiveDir)
	}
	return e
}

// preprocessResult counts per-document outcomes.
type preprocessResult struct {
	Written int
	Empty   int
	Failed  int
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	idFlags, _ := cmd.Flags().GetStringSlice("id")
	idFile, _ := cmd.Flags().GetString("ids")
	ids, err := collectIDs(append(idFlags, args...), idFile)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide article ids with --id, --ids or as arguments")
	}
	outDir := cfg.Extract.OutDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	log := logging.Component(logger, "preprocess")
	res := preprocessBatch(ctx, newExtractor(log), ids, outDir, cfg.Harvest.Workers, cmd.OutOrStdout())
	if res.Failed > 0 {
		return fmt.Errorf("%d document(s) failed", res.Failed)
	}
	return nil
}

// preprocessBatch extracts ids concurrently and writes one text file per
// non-empty document. Failures are reported per id and counted.
func preprocessBatch(ctx context.Context, e *jats.Extractor, ids []string, outDir string, workers int, w io.Writer) preprocessResult {
	if workers <= 0 {
		workers = 4
	}
	var (
		mu  sync.Mutex
		res preprocessResult
		g   errgroup.Group
	)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			doc, err := e.Extract(ctx, id)
			if err == nil && !doc.IsEmpty() {
				err = writeDocument(outDir, doc)
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed++
				fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			case doc.IsEmpty():
				res.Empty++
				fmt.Fprintf(w, "empty:   %s\n", id)
			default:
				res.Written++
				fmt.Fprintf(w, "wrote:   %s (%d blocks, %d tables)\n", id, len(doc.Blocks), len(doc.Tables))
			}
			return nil
		})
	}
	_ = g.Wait()
	fmt.Fprintf(w, "\nPreprocess summary: %d written, %d empty, %d failed (total: %d)\n",
		res.Written, res.Empty, res.Failed, res.Written+res.Empty+res.Failed)
	return res
}

func writeDocument(dir string, doc *types.Document) error {
	if doc.ID == "" || doc.ID == "." || doc.ID == ".." || strings.ContainsAny(doc.ID, `/\`) {
		return fmt.Errorf("invalid document id %q", doc.ID)
	}
	path := filepath.Join(dir, doc.ID+".txt")
	if err := os.WriteFile(path, []byte(doc.Text()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
