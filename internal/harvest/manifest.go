// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"
)

// ManifestFile records the last run in the output directory.
const ManifestFile = "harvest.yaml"

// Manifest describes one harvest run.
type Manifest struct {
	RunID         string    `yaml:"run_id"`
	StartedAt     time.Time `yaml:"started_at"`
	FinishedAt    time.Time `yaml:"finished_at"`
	Resources     int       `yaml:"resources"`
	Queries       int       `yaml:"queries"`
	FailedQueries int       `yaml:"failed_queries"`
	Records       int       `yaml:"records"`
	NewIDs        int       `yaml:"new_ids"`
	Duplicates    int       `yaml:"duplicates"`
	TotalIDs      int       `yaml:"total_ids"`
	Shards        int       `yaml:"shards"`
	ChunkFiles    []string  `yaml:"chunk_files,omitempty"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Apply copies the counts of s into the manifest.
func (m *Manifest) Apply(s Summary) {
	m.Queries = s.Queries
	m.FailedQueries = s.FailedQueries
	m.Records = s.Records
	m.NewIDs = s.New
	m.Duplicates = s.Duplicates
}

// WriteManifest writes m as YAML to dir/harvest.yaml through a temporary
// file so a reader never sees a partial manifest.
func WriteManifest(dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".harvest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing manifest: %w", errors.Join(werr, cerr))
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, ManifestFile)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming manifest: %w", err)
	}
	return nil
}

// ReadManifest loads dir/harvest.yaml.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}
