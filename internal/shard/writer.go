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

type shardFile struct {
	f     *os.File
	gz    *gzip.Writer
	dirty bool
}

// Writer appends metadata records to shard files. Each shard is opened on
// first use and stays open until Close. Every Flush and every run ends the
// current gzip member, so a shard is a sequence of members that gzip
// readers concatenate. A member cut short by a crash is truncated away the
// next time the shard is opened for writing.
// It is not safe for concurrent use.
type Writer struct {
	Dir   string
	Count int

	open map[int]*shardFile
}

// NewWriter returns a writer over count shards in dir.
func NewWriter(dir string, count int) (*Writer, error) {
	if count < 1 {
		count = DefaultCount
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating shard directory: %w", err)
	}
	return &Writer{Dir: dir, Count: count, open: make(map[int]*shardFile)}, nil
}

// Append writes rec as one JSON line to the shard selected by rec.ID and
// returns that shard's index.
func (w *Writer) Append(rec types.ArticleMetadata) (int, error) {
	i := Index(rec.ID, w.Count)
	sf, err := w.shard(i)
	if err != nil {
		return i, err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return i, fmt.Errorf("%w: encoding %s: %v", ErrWrite, rec.ID, err)
	}
	line = append(line, '\n')
	if _, err := sf.gz.Write(line); err != nil {
		return i, fmt.Errorf("%w: shard %d: %v", ErrWrite, i, err)
	}
	sf.dirty = true
	return i, nil
}

func (w *Writer) shard(i int) (*shardFile, error) {
	if sf, ok := w.open[i]; ok {
		return sf, nil
	}
	path := Path(w.Dir, i, w.Count)
	if err := repair(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrWrite, path, err)
	}
	sf := &shardFile{f: f, gz: gzip.NewWriter(f)}
	w.open[i] = sf
	return sf, nil
}

// Opened returns how many shard files are currently open.
func (w *Writer) Opened() int {
	return len(w.open)
}

// Flush ends the current gzip member of every shard written since the last
// flush and syncs it to disk. Records appended before Flush returns nil are
// readable even if the process dies before Close.
func (w *Writer) Flush() error {
	var errs []error
	for i, sf := range w.open {
		if !sf.dirty {
			continue
		}
		if err := sf.gz.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%w: shard %d: %v", ErrWrite, i, err))
			continue
		}
		if err := sf.f.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("%w: shard %d: %v", ErrWrite, i, err))
			continue
		}
		sf.gz.Reset(sf.f)
		sf.dirty = false
	}
	return errors.Join(errs...)
}

// Close flushes and closes every open shard.
func (w *Writer) Close() error {
	var errs []error
	for i, sf := range w.open {
		if sf.dirty {
			if err := sf.gz.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%w: shard %d: %v", ErrWrite, i, err))
			}
		}
		if err := sf.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%w: shard %d: %v", ErrWrite, i, err))
		}
		delete(w.open, i)
	}
	return errors.Join(errs...)
}

type countingReader struct {
	r   io.Reader
	n   int64
	err error
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}

// repair truncates path to the end of its last complete gzip member. A
// missing file is left alone.
func repair(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	cr := &countingReader{r: f}
	br := bufio.NewReader(cr)
	offset := func() int64 { return cr.n - int64(br.Buffered()) }

	var good int64
	zr, err := gzip.NewReader(br)
	for err == nil {
		zr.Multistream(false)
		if _, err = io.Copy(io.Discard, zr); err != nil {
			break
		}
		good = offset()
		err = zr.Reset(br)
	}
	if cr.err != nil {
		return fmt.Errorf("reading %s: %w", path, cr.err)
	}
	if errors.Is(err, io.EOF) && good == info.Size() {
		return nil
	}
	if err := os.Truncate(path, good); err != nil {
		return fmt.Errorf("truncating %s: %w", path, err)
	}
	return nil
}
