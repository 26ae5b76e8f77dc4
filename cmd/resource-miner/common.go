// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/resource-miner/internal/vocab"
	"github.com/pdiddy/resource-miner/pkg/types"
)

// loadVocabulary reads the resource file and merges the optional extra
// aliases file, both taken from config.
func loadVocabulary() (types.Vocabulary, error) {
	path := viper.GetString(keyResources)
	if path == "" {
		return types.Vocabulary{}, fmt.Errorf("no resource vocabulary: set --resources or %s", keyResources)
	}
	v, err := vocab.Load(path)
	if err != nil {
		return v, err
	}
	if extraPath := viper.GetString(keyExtraAliases); extraPath != "" {
		extra, err := vocab.LoadExtraAliases(extraPath)
		if err != nil {
			return v, err
		}
		var unknown []string
		v, unknown = vocab.Merge(v, extra)
		if len(unknown) > 0 {
			logger.Warn().Strs("names", unknown).Msg("extra aliases for unknown resources")
		}
	}
	v = vocab.MarkCaseSensitive(v, cfg.Detect.CaseSensitiveResources)
	logger.Info().Int("resources", v.Len()).Str("path", path).Msg("loaded vocabulary")
	return v, nil
}

// collectIDs merges ids given directly with those read from a file, one
// per line. Blank lines and lines starting with # are ignored.
func collectIDs(ids []string, file string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	if file == "" {
		return out, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening id list: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading id list: %w", err)
	}
	return out, nil
}
