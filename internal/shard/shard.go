// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package shard partitions article metadata across N gzip-compressed JSONL
// files selected by a stable hash of the document id.
package shard

import (
	"crypto/md5"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"sort"
	"strconv"
)

// DefaultCount is the shard count used when none is configured.
const DefaultCount = 128

// ErrWrite reports a failed shard append or close. It is fatal to a harvest.
var ErrWrite = errors.New("shard write failed")

// Index returns the shard for id: the MD5 digest of id read as a big-endian
// integer, modulo n. n below 1 is treated as 1.
func Index(id string, n int) int {
	if n <= 1 {
		return 0
	}
	sum := md5.Sum([]byte(id))
	var v big.Int
	v.SetBytes(sum[:])
	return int(v.Mod(&v, big.NewInt(int64(n))).Int64())
}

// FileName returns the name of shard i out of n, zero-padded to the width
// of the largest index (at least two digits).
func FileName(i, n int) string {
	width := len(strconv.Itoa(n - 1))
	if width < 2 {
		width = 2
	}
	return fmt.Sprintf("metadata_shard_%0*d.jsonl.gz", width, i)
}

// Path returns the full path of shard i out of n under dir.
func Path(dir string, i, n int) string {
	return filepath.Join(dir, FileName(i, n))
}

// SortByShard orders ids so that ids sharing a shard are adjacent, keeping
// input order within a shard.
func SortByShard(ids []string, n int) {
	idx := make(map[string]int, len(ids))
	for _, id := range ids {
		idx[id] = Index(id, n)
	}
	sort.SliceStable(ids, func(i, j int) bool { return idx[ids[i]] < idx[ids[j]] })
}
