// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-miner/internal/jats"
	"github.com/pdiddy/resource-miner/pkg/types"
)

func TestDecodeConfig_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	c := decodeConfig(v)

	assert.Equal(t, 4, c.Harvest.Workers)
	assert.Equal(t, 1000, c.Harvest.QueueSize)
	assert.Equal(t, 1000, c.Harvest.PageSize)
	assert.Equal(t, 128, c.Harvest.Shards)
	assert.Equal(t, 1, c.Harvest.Chunks)
	assert.Equal(t, 5*time.Second, c.Harvest.CommitInterval)
	assert.Equal(t, 30, c.Detect.EscalationThreshold)
	assert.InDelta(t, 0.9, c.Detect.MinConfidence, 1e-9)
	assert.Equal(t, defaultUserAgent, c.Extract.UserAgent)
	assert.Equal(t, "info", c.Log.Level)
}

func TestDecodeConfig_EnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resource-miner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("harvest:\n  shards: 16\n  out_dir: out\ndetect:\n  case_sensitive_resources: [STRING, GEO]\n"), 0o644))
	t.Setenv("TESTRM_HARVEST_WORKERS", "9")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TESTRM")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()
	setDefaults(v)
	require.NoError(t, v.ReadInConfig())

	c := decodeConfig(v)
	assert.Equal(t, 16, c.Harvest.Shards)
	assert.Equal(t, "out", c.Harvest.OutDir)
	assert.Equal(t, 9, c.Harvest.Workers)
	assert.Equal(t, []string{"STRING", "GEO"}, c.Detect.CaseSensitiveResources)
}

func TestCollectIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("PMC1\n\n# comment\n PMC2 \n"), 0o644))
	ids, err := collectIDs([]string{" PMC0 ", ""}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"PMC0", "PMC1", "PMC2"}, ids)

	_, err = collectIDs(nil, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestTextFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"PMC2.txt", "PMC1.txt", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	single := filepath.Join(t.TempDir(), "PMC9.txt")
	require.NoError(t, os.WriteFile(single, []byte("x"), 0o644))

	files, err := textFiles([]string{dir, single})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "PMC1.txt", filepath.Base(files[0]))
	assert.Equal(t, "PMC2.txt", filepath.Base(files[1]))
	assert.Equal(t, single, files[2])
}

func TestPreprocessBatch(t *testing.T) {
	archiveDir := t.TempDir()
	bundle := `<articles><article><front><article-meta><article-id pub-id-type="pmcid">PMC5</article-id>` +
		`<title-group><article-title>Five</article-title></title-group></article-meta></front>` +
		`<body><sec><title>Methods</title><p>We used UniProt.</p></sec></body></article></articles>`
	require.NoError(t, os.WriteFile(filepath.Join(archiveDir, "PMC1_PMC9.xml"), []byte(bundle), 0o644))

	e := &jats.Extractor{Archive: jats.NewArchive(archiveDir), Log: zerolog.Nop()}
	outDir := t.TempDir()
	var buf bytes.Buffer
	res := preprocessBatch(context.Background(), e, []string{"PMC5", "PMC6"}, outDir, 2, &buf)

	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 1, res.Empty)
	assert.Equal(t, 0, res.Failed)
	assert.Contains(t, buf.String(), "Preprocess summary: 1 written, 1 empty, 0 failed (total: 2)")

	data, err := os.ReadFile(filepath.Join(outDir, "PMC5.txt"))
	require.NoError(t, err)
	assert.Equal(t, "# TITLE\nFive\n\n# METHODS\nWe used UniProt.\n", string(data))
	_, err = os.Stat(filepath.Join(outDir, "PMC6.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteDocument_RejectsPathIDs(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	for _, id := range []string{"../escaped", "a/b", `a\b`, "..", ""} {
		err := writeDocument(outDir, &types.Document{ID: id, Title: "T"})
		assert.Error(t, err, id)
	}
	_, err := os.Stat(filepath.Join(root, "escaped.txt"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, writeDocument(outDir, &types.Document{ID: "PMC7", Title: "T"}))
	_, err = os.Stat(filepath.Join(outDir, "PMC7.txt"))
	assert.NoError(t, err)
}
