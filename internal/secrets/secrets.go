// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognized keys: classifier-api-key, contact-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/resource-miner/pkg/types"
)

const (
	// ClassifierAPIKey authenticates calls to the mention classifier.
	ClassifierAPIKey = "classifier-api-key"

	// ContactEmail is appended to the User-Agent sent to Europe PMC.
	ContactEmail = "contact-email"
)

// DefaultDir is the secrets directory looked up relative to the working directory.
const DefaultDir = ".secrets"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory yields an empty map. Unreadable files are
// logged and skipped.
func Load(dir string, log zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Apply fills unset credentials in cfg from s. Values already present in
// the config, from flags or environment, win.
func Apply(cfg *types.PipelineConfig, s map[string]string) {
	if cfg.Detect.ClassifierAPIKey == "" {
		cfg.Detect.ClassifierAPIKey = s[ClassifierAPIKey]
	}
	if email := s[ContactEmail]; email != "" {
		for _, h := range []*types.HTTPConfig{&cfg.Harvest.HTTPConfig, &cfg.Extract.HTTPConfig} {
			if !strings.Contains(h.UserAgent, "mailto:") {
				h.UserAgent = strings.TrimSpace(h.UserAgent + " (mailto:" + email + ")")
			}
		}
	}
}
