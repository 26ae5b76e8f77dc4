// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jats

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-miner/internal/europepmc"
	"github.com/pdiddy/resource-miner/internal/httputil"
	"github.com/pdiddy/resource-miner/pkg/types"
)

func bundleArticle(id, title string) string {
	return fmt.Sprintf(`<article article-type="research-article"><front><article-meta>`+
		`<article-id pub-id-type="pmcid">%s</article-id>`+
		`<title-group><article-title>%s</article-title></title-group>`+
		`</article-meta></front><body><sec><title>Results</title><p>Data from %s.</p></sec></body></article>`, id, title, title)
}

func writeBundle(t *testing.T, dir, name string, articles ...string) {
	t.Helper()
	body := "<?xml version=\"1.0\"?>\n<articles>" + strings.Join(articles, "\n") + "</articles>"
	path := filepath.Join(dir, name)
	if !strings.HasSuffix(name, ".gz") {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
}

func TestArchive_Locate(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "PMC100_PMC199.xml", bundleArticle("PMC150", "A"))
	writeBundle(t, dir, "PMC200_PMC299.xml.gz", bundleArticle("PMC250", "B"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	a := NewArchive(dir)
	tests := []struct {
		id   string
		want string
		ok   bool
	}{
		{"PMC100", "PMC100_PMC199.xml", true},
		{"PMC199", "PMC100_PMC199.xml", true},
		{"pmc250", "PMC200_PMC299.xml.gz", true},
		{"250", "PMC200_PMC299.xml.gz", true},
		{"PMC300", "", false},
		{"PMC99", "", false},
		{"garbage", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			path, ok, err := a.Locate(tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, filepath.Base(path))
			}
		})
	}
}

func TestArchive_MissingDir(t *testing.T) {
	a := NewArchive(filepath.Join(t.TempDir(), "absent"))
	_, _, err := a.Locate("PMC1")
	assert.Error(t, err)
}

func TestArchive_FetchPlainAndGzip(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "PMC100_PMC199.xml", bundleArticle("PMC150", "Alpha"), bundleArticle("PMC151", "Beta"))
	writeBundle(t, dir, "PMC200_PMC299.xml.gz", bundleArticle("PMC250", "Gamma"))

	a := NewArchive(dir)

	data, ok, err := a.Fetch("PMC151")
	require.NoError(t, err)
	require.True(t, ok)
	doc, err := Normalizer{}.Normalize("PMC151", data)
	require.NoError(t, err)
	assert.Equal(t, "Beta", doc.Title)
	assert.NotContains(t, doc.Text(), "Alpha")

	data, ok, err = a.Fetch("PMC250")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), "Gamma")
	assert.Contains(t, string(data), `article-type="research-article"`)

	// Covered by a range but absent from the bundle.
	_, ok, err = a.Fetch("PMC160")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArchive_FetchTriesOverlappingBundles(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "PMC100_PMC299.xml", bundleArticle("PMC150", "Older"))
	writeBundle(t, dir, "PMC140_PMC199.xml.gz", bundleArticle("PMC160", "Newer"))

	a := NewArchive(dir)
	path, ok, err := a.Locate("PMC150")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PMC140_PMC199.xml.gz", filepath.Base(path))

	data, ok, err := a.Fetch("PMC150")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), "Older")

	data, ok, err = a.Fetch("PMC160")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), "Newer")

	_, ok, err = a.Fetch("PMC170")
	require.NoError(t, err)
	assert.False(t, ok)
}

type stubFetcher struct {
	calls int
	data  []byte
	err   error
}

func (s *stubFetcher) FullTextXML(_ context.Context, _ string) ([]byte, error) {
	s.calls++
	return s.data, s.err
}

func TestExtractor_LocalFirst(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "PMC100_PMC199.xml.gz", bundleArticle("PMC150", "Local"))

	remote := &stubFetcher{data: []byte(bundleArticle("PMC150", "Remote"))}
	e := &Extractor{Archive: NewArchive(dir), Remote: remote, Log: zerolog.Nop()}

	doc, err := e.Extract(context.Background(), "PMC150")
	require.NoError(t, err)
	assert.Equal(t, "Local", doc.Title)
	assert.Equal(t, 0, remote.calls)

	doc, err = e.Extract(context.Background(), "PMC500")
	require.NoError(t, err)
	assert.Equal(t, "Remote", doc.Title)
	assert.Equal(t, 1, remote.calls)
}

func TestExtractor_NotFoundAndMalformedAreEmpty(t *testing.T) {
	e := &Extractor{Remote: &stubFetcher{err: fmt.Errorf("PMC1: %w", europepmc.ErrNotFound)}, Log: zerolog.Nop()}
	doc, err := e.Extract(context.Background(), "PMC1")
	require.NoError(t, err)
	assert.True(t, doc.IsEmpty())
	assert.Equal(t, "PMC1", doc.ID)

	e.Remote = &stubFetcher{data: []byte("")}
	doc, err = e.Extract(context.Background(), "PMC1")
	require.NoError(t, err)
	assert.True(t, doc.IsEmpty())
}

func TestExtractor_TransientFailureReturned(t *testing.T) {
	e := &Extractor{Remote: &stubFetcher{err: assert.AnError}, Log: zerolog.Nop()}
	_, err := e.Extract(context.Background(), "PMC1")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestExtractor_RemoteService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "PMC404") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(bundleArticle("PMC7", "Served")))
	}))
	defer srv.Close()
	restore := europepmc.SetBaseURL(srv.URL)
	defer restore()

	e := &Extractor{Remote: europepmc.New(httputil.NewClient(types.HTTPConfig{MaxRetries: 1})), Log: zerolog.Nop()}
	doc, err := e.Extract(context.Background(), "PMC7")
	require.NoError(t, err)
	assert.Equal(t, "Served", doc.Title)

	doc, err = e.Extract(context.Background(), "PMC404")
	require.NoError(t, err)
	assert.True(t, doc.IsEmpty())
}
