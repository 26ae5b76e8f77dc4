// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chunk splits the stored id set into ordered batch files for
// downstream processing.
package chunk

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Source streams ids in ascending numeric order and reports their count.
type Source interface {
	Count(ctx context.Context) (int, error)
	EachID(ctx context.Context, fn func(id string) error) error
}

// FileName returns the name of chunk i (zero-based).
func FileName(i int) string {
	return fmt.Sprintf("pmc_idlist.chunk_%d.txt", i+1)
}

// Sizes returns the number of ids in each of c chunks for total ids: every
// chunk but the last holds ceil(total/c) and the last takes the remainder,
// which may be zero.
func Sizes(total, c int) []int {
	if c < 1 {
		c = 1
	}
	per := (total + c - 1) / c
	sizes := make([]int, c)
	left := total
	for i := 0; i < c-1; i++ {
		n := min(per, left)
		sizes[i] = n
		left -= n
	}
	sizes[c-1] = left
	return sizes
}

// Partition writes the ids from src into c files in dir, one id per line,
// and returns the file paths. Ids are streamed and never held in memory
// as a whole.
func Partition(ctx context.Context, src Source, dir string, c int) ([]string, error) {
	if c < 1 {
		c = 1
	}
	total, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chunk directory: %w", err)
	}
	sizes := Sizes(total, c)

	paths := make([]string, 0, c)
	var (
		cur     *os.File
		buf     *bufio.Writer
		idx     = -1
		written int
	)
	closeCur := func() error {
		if cur == nil {
			return nil
		}
		ferr := buf.Flush()
		cerr := cur.Close()
		cur = nil
		if ferr != nil {
			return fmt.Errorf("writing chunk: %w", ferr)
		}
		if cerr != nil {
			return fmt.Errorf("closing chunk: %w", cerr)
		}
		return nil
	}
	open := func(i int) error {
		if err := closeCur(); err != nil {
			return err
		}
		path := filepath.Join(dir, FileName(i))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating chunk: %w", err)
		}
		cur, buf, idx, written = f, bufio.NewWriter(f), i, 0
		paths = append(paths, path)
		return nil
	}

	if err := open(0); err != nil {
		return nil, err
	}
	err = src.EachID(ctx, func(id string) error {
		// Advance past full chunks; the last chunk accepts any overflow
		// from ids inserted after Count.
		for idx < c-1 && written >= sizes[idx] {
			if err := open(idx + 1); err != nil {
				return err
			}
		}
		if _, err := buf.WriteString(id + "\n"); err != nil {
			return fmt.Errorf("writing chunk: %w", err)
		}
		written++
		return nil
	})
	if err != nil {
		closeCur()
		return paths, err
	}
	// Every chunk file exists even when it is empty.
	for idx < c-1 {
		if err := open(idx + 1); err != nil {
			return paths, err
		}
	}
	if err := closeCur(); err != nil {
		return paths, err
	}
	return paths, nil
}
