// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jats

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/pdiddy/resource-miner/pkg/types"
)

// archiveName matches bundle files named for the id range they hold,
// e.g. PMC1000000_PMC1099999.xml.gz.
var archiveName = regexp.MustCompile(`^PMC(\d+)_PMC(\d+)\.xml(\.gz)?$`)

type archiveRange struct {
	lo, hi uint64
	path   string
}

// Archive resolves documents from a directory of range-named XML bundles.
// The range index is built once, on first lookup.
type Archive struct {
	Dir string

	once   sync.Once
	ranges []archiveRange
	err    error
}

// NewArchive returns an archive rooted at dir.
func NewArchive(dir string) *Archive {
	return &Archive{Dir: dir}
}

func (a *Archive) index() error {
	a.once.Do(func() {
		entries, err := os.ReadDir(a.Dir)
		if err != nil {
			a.err = fmt.Errorf("reading archive dir %s: %w", a.Dir, err)
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			m := archiveName.FindStringSubmatch(e.Name())
			if m == nil {
				continue
			}
			lo, err1 := strconv.ParseUint(m[1], 10, 64)
			hi, err2 := strconv.ParseUint(m[2], 10, 64)
			if err1 != nil || err2 != nil || hi < lo {
				continue
			}
			a.ranges = append(a.ranges, archiveRange{lo: lo, hi: hi, path: filepath.Join(a.Dir, e.Name())})
		}
		sort.Slice(a.ranges, func(i, j int) bool { return a.ranges[i].lo < a.ranges[j].lo })
	})
	return a.err
}

// Locate returns the bundle whose declared range covers id. When ranges
// overlap it returns the one that starts latest.
func (a *Archive) Locate(id string) (string, bool, error) {
	paths, err := a.candidates(id)
	if err != nil || len(paths) == 0 {
		return "", false, err
	}
	return paths[0], true, nil
}

// candidates lists every bundle whose range covers id, latest start first.
func (a *Archive) candidates(id string) ([]string, error) {
	if err := a.index(); err != nil {
		return nil, err
	}
	n, ok := types.NumericID(id)
	if !ok {
		return nil, nil
	}
	i := sort.Search(len(a.ranges), func(i int) bool { return a.ranges[i].lo > n })
	var paths []string
	for j := i - 1; j >= 0; j-- {
		if a.ranges[j].hi >= n {
			paths = append(paths, a.ranges[j].path)
		}
	}
	return paths, nil
}

// Fetch returns the XML of the single article with the given id from the
// local archive. Overlapping bundles are tried in Locate order. The bool is
// false when no covering bundle contains the id.
func (a *Archive) Fetch(id string) ([]byte, bool, error) {
	paths, err := a.candidates(id)
	if err != nil {
		return nil, false, err
	}
	n, _ := types.NumericID(id)
	for _, path := range paths {
		data, ok, err := fetchFrom(path, n)
		if err != nil || ok {
			return data, ok, err
		}
	}
	return nil, false, nil
}

func fetchFrom(path string, n uint64) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
		}
		defer gz.Close()
		r = gz
	}
	return findArticle(r, n)
}

type articleProbe struct {
	IDs []struct {
		Type  string `xml:"pub-id-type,attr"`
		Value string `xml:",chardata"`
	} `xml:"front>article-meta>article-id"`
	Inner []byte `xml:",innerxml"`
}

// findArticle streams a bundle and returns the first article whose pmcid
// matches want, re-wrapped in its own root element.
func findArticle(r io.Reader, want uint64) ([]byte, bool, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "article" {
			continue
		}
		var p articleProbe
		if err := dec.DecodeElement(&p, &se); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		for _, aid := range p.IDs {
			if aid.Type != "pmcid" && aid.Type != "pmc" {
				continue
			}
			if n, ok := types.NumericID(aid.Value); ok && n == want {
				return wrapArticle(se, p.Inner), true, nil
			}
		}
	}
}

func wrapArticle(se xml.StartElement, inner []byte) []byte {
	var b bytes.Buffer
	b.WriteString("<article")
	for _, at := range se.Attr {
		if at.Name.Space != "" {
			continue
		}
		b.WriteString(" " + at.Name.Local + `="`)
		_ = xml.EscapeText(&b, []byte(at.Value))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.Write(inner)
	b.WriteString("</article>")
	return b.Bytes()
}
