// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shard

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/pdiddy/resource-miner/pkg/types"
)

// Reader looks up metadata records by id. It keeps the most recently read
// shard in memory, so callers should visit ids in SortByShard order.
type Reader struct {
	Dir   string
	Count int

	cached  int
	records map[string]types.ArticleMetadata
	loads   int
}

// NewReader returns a reader over count shards in dir.
func NewReader(dir string, count int) *Reader {
	if count < 1 {
		count = DefaultCount
	}
	return &Reader{Dir: dir, Count: count, cached: -1}
}

// Lookup returns the record for id. A missing shard file or a shard without
// the id reports false.
func (r *Reader) Lookup(id string) (types.ArticleMetadata, bool, error) {
	i := Index(id, r.Count)
	if i != r.cached {
		recs, err := r.load(i)
		if err != nil {
			return types.ArticleMetadata{}, false, err
		}
		r.cached, r.records = i, recs
		r.loads++
	}
	rec, ok := r.records[id]
	return rec, ok, nil
}

func (r *Reader) load(i int) (map[string]types.ArticleMetadata, error) {
	recs := make(map[string]types.ArticleMetadata)
	path := Path(r.Dir, i, r.Count)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return recs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return recs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer gz.Close()

	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var bad error
	for sc.Scan() {
		if bad != nil {
			return nil, bad
		}
		if len(sc.Bytes()) == 0 {
			continue
		}
		var rec types.ArticleMetadata
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			bad = fmt.Errorf("decoding %s: %w", path, err)
			continue
		}
		if _, seen := recs[rec.ID]; !seen {
			recs[rec.ID] = rec
		}
	}
	err = sc.Err()
	// A member cut short by a crash ends the stream early; its partial last
	// line is dropped and every record before it is kept.
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return recs, nil
	}
	if bad != nil {
		return nil, bad
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}
