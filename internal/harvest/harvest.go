// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest runs per-resource search queries concurrently and funnels
// their records into one writer that owns the dedup store and the metadata
// shards. Only ids the store has never seen are written to a shard.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/resource-miner/internal/dedup"
	"github.com/pdiddy/resource-miner/internal/europepmc"
	"github.com/pdiddy/resource-miner/internal/shard"
	"github.com/pdiddy/resource-miner/pkg/types"
)

const (
	// CrashLogFile receives fatal writer errors before they are returned.
	CrashLogFile = "writer.error.log"

	// MaxIncludeIDs caps the explicit id query.
	MaxIncludeIDs = 100

	defaultWorkers   = 4
	defaultQueueSize = 1000
)

// Searcher fetches one page of search results.
type Searcher interface {
	Search(ctx context.Context, query string, pageSize int, cursor string) (europepmc.Page, error)
}

// Task is one query run by a worker.
type Task struct {
	Name  string
	Query string
}

// Summary reports the outcome of a harvest run.
type Summary struct {
	Queries       int
	FailedQueries int
	Records       int
	New           int
	Duplicates    int
}

// HasFailures reports whether any query failed.
func (s Summary) HasFailures() bool {
	return s.FailedQueries > 0
}

// Harvester runs query tasks and persists their records.
type Harvester struct {
	Search  Searcher
	Config  types.HarvestConfig
	Log     zerolog.Logger
	Metrics *Metrics
}

// Tasks builds one task per resource in vocab plus, when ids is non-empty,
// one task querying those ids directly. Ids past MaxIncludeIDs are dropped.
func Tasks(vocab types.Vocabulary, ids []string, log zerolog.Logger) []Task {
	var tasks []Task
	for _, r := range vocab.Resources {
		q := europepmc.ResourceQuery(r.Aliases)
		if q == "" {
			log.Warn().Str("resource", r.ID).Msg("resource has no usable aliases")
			continue
		}
		tasks = append(tasks, Task{Name: r.Name, Query: q})
	}
	if len(ids) > MaxIncludeIDs {
		log.Warn().Int("given", len(ids)).Int("kept", MaxIncludeIDs).Msg("too many explicit ids")
		ids = ids[:MaxIncludeIDs]
	}
	if q := europepmc.IDsQuery(ids); q != "" {
		tasks = append(tasks, Task{Name: "explicit-ids", Query: q})
	}
	return tasks
}

// Run executes tasks on a bounded worker pool and writes each newly seen
// record to its shard. Per-query failures are counted and logged; only
// store or shard failures abort the run. Progress lines go to w.
func (h *Harvester) Run(ctx context.Context, tasks []Task, w io.Writer) (Summary, error) {
	cfg := h.Config
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory: %w", err)
	}
	store, shards, err := openSinks(cfg)
	if err != nil {
		return Summary{}, err
	}
	metrics := h.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan types.ArticleMetadata, queueSize)
	var sum, written Summary
	var writeErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Records already queued are persisted even if ctx is cancelled.
		written, writeErr = h.consume(context.WithoutCancel(ctx), queue, store, shards, metrics, cancel)
	}()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(workers)
	for _, t := range tasks {
		g.Go(func() error {
			n, err := h.runTask(pctx, t, queue, metrics)
			mu.Lock()
			defer mu.Unlock()
			sum.Queries++
			metrics.Queries.Inc()
			if err != nil {
				sum.FailedQueries++
				metrics.FailedQueries.Inc()
				h.Log.Error().Err(err).Str("task", t.Name).Int("records", n).Msg("query failed")
				fmt.Fprintf(w, "failed:  %s (%v)\n", t.Name, err)
				return nil
			}
			fmt.Fprintf(w, "queried: %s (%d records)\n", t.Name, n)
			return nil
		})
	}
	_ = g.Wait()

	// Closing the queue tells the writer to drain and stop.
	close(queue)
	<-done
	sum.Records, sum.New, sum.Duplicates = written.Records, written.New, written.Duplicates

	// The store commits its last batch only after the shards are flushed.
	closeErr := errors.Join(store.Close(), shards.Close())
	if writeErr == nil && closeErr != nil {
		writeErr = closeErr
		h.recordCrash("", closeErr)
	}

	fmt.Fprintf(w, "\nHarvest summary: %d queries (%d failed), %d records, %d new, %d duplicates\n",
		sum.Queries, sum.FailedQueries, sum.Records, sum.New, sum.Duplicates)
	if writeErr != nil {
		return sum, writeErr
	}
	return sum, nil
}

// openSinks opens the dedup store and the shard writer. Every store commit
// first flushes the shards, so an id is never durably marked seen while its
// record is still buffered.
func openSinks(cfg types.HarvestConfig) (*dedup.Store, *shard.Writer, error) {
	store, err := dedup.Open(filepath.Join(cfg.OutDir, dedup.DBFile), cfg.CommitInterval)
	if err != nil {
		return nil, nil, fmt.Errorf("opening dedup store: %w", err)
	}
	shards, err := shard.NewWriter(cfg.OutDir, cfg.Shards)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("opening shard writer: %w", err)
	}
	store.BeforeCommit = shards.Flush
	return store, shards, nil
}

// consume is the only goroutine that touches the store and the shards.
// After a fatal error it records the crash, cancels producers and keeps
// draining so no producer stays blocked on a full queue.
func (h *Harvester) consume(ctx context.Context, queue <-chan types.ArticleMetadata, store *dedup.Store, shards *shard.Writer, m *Metrics, cancel context.CancelFunc) (Summary, error) {
	var sum Summary
	var fatal error
	for rec := range queue {
		if fatal != nil {
			continue
		}
		m.QueueDepth.Set(float64(len(queue)))
		sum.Records++
		m.Records.Inc()

		isNew, err := store.InsertIfNew(ctx, rec.ID)
		if err == nil && isNew {
			if _, err = shards.Append(rec); err != nil {
				err = errors.Join(err, store.Forget(ctx, rec.ID))
			}
		}
		if err != nil {
			fatal = fmt.Errorf("writing %s: %w", rec.ID, err)
			h.recordCrash(rec.ID, fatal)
			cancel()
			continue
		}
		if isNew {
			sum.New++
			m.NewIDs.Inc()
		} else {
			sum.Duplicates++
			m.Duplicates.Inc()
		}
	}
	if fatal == nil {
		fatal = store.Flush()
		if fatal != nil {
			h.recordCrash("", fatal)
		}
	}
	return sum, fatal
}

// runTask pages through one query until the result limit is reached, a
// page comes back empty, or the cursor stops advancing.
func (h *Harvester) runTask(ctx context.Context, t Task, out chan<- types.ArticleMetadata, m *Metrics) (int, error) {
	pageSize := h.Config.PageSize
	if pageSize <= 0 || pageSize > europepmc.MaxPageSize {
		pageSize = europepmc.MaxPageSize
	}
	limit := h.Config.ResultLimit
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	cursor := europepmc.InitialCursor
	fetched := 0
	for page := 0; ; page++ {
		start := time.Now()
		p, err := h.Search.Search(ctx, t.Query, pageSize, cursor)
		m.PageSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			return fetched, err
		}
		if page == 0 {
			h.Log.Info().Str("task", t.Name).Int("hits", p.HitCount).Msg("query started")
		}

		for _, r := range p.Results {
			if limit > 0 && fetched >= limit {
				return fetched, nil
			}
			rec := europepmc.Reduce(r)
			if rec.ID == "" {
				continue
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return fetched, ctx.Err()
			}
			fetched++
		}

		switch {
		case len(p.Results) == 0:
			return fetched, nil
		case limit > 0 && fetched >= limit:
			return fetched, nil
		case p.NextCursor == "" || p.NextCursor == cursor:
			return fetched, nil
		}
		cursor = p.NextCursor
	}
}

// recordCrash appends a fatal writer error to the crash log. Failure to
// write the log itself is only logged.
func (h *Harvester) recordCrash(id string, cause error) {
	h.Log.Error().Err(cause).Str("id", id).Msg("writer failed")
	path := filepath.Join(h.Config.OutDir, CrashLogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		h.Log.Error().Err(err).Str("path", path).Msg("cannot open crash log")
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s id=%q error=%v\n", time.Now().UTC().Format(time.RFC3339), id, cause)
}
