// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vocab loads the resource vocabulary: a mapping from resource id
// to its aliases, the first alias being the primary name.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/resource-miner/pkg/types"
)

// Load reads a vocabulary file. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON. Resources are ordered by id, numerically
// when both ids are numbers.
func Load(path string) (types.Vocabulary, error) {
	raw, err := readMapping(path)
	if err != nil {
		return types.Vocabulary{}, err
	}
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return idLess(ids[i], ids[j]) })

	var v types.Vocabulary
	for _, id := range ids {
		r := types.NewResource(id, raw[id])
		if len(r.Aliases) == 0 {
			continue
		}
		v.Resources = append(v.Resources, r)
	}
	return v, nil
}

// LoadExtraAliases reads a file mapping primary names to additional aliases.
func LoadExtraAliases(path string) (map[string][]string, error) {
	return readMapping(path)
}

// Merge appends extra aliases to the resources whose primary name they are
// keyed by, keeping the case-insensitive alias dedup. Unknown names are
// returned so callers can report them.
func Merge(v types.Vocabulary, extra map[string][]string) (types.Vocabulary, []string) {
	used := make(map[string]bool, len(extra))
	out := types.Vocabulary{Resources: make([]types.Resource, 0, len(v.Resources))}
	for _, r := range v.Resources {
		more, ok := extra[r.Name]
		if !ok {
			out.Resources = append(out.Resources, r)
			continue
		}
		used[r.Name] = true
		merged := types.NewResource(r.ID, append(append([]string{}, r.Aliases...), more...))
		merged.CaseSensitive = r.CaseSensitive
		out.Resources = append(out.Resources, merged)
	}
	var unknown []string
	for name := range extra {
		if !used[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return out, unknown
}

// MarkCaseSensitive flags the resources whose primary name is listed.
func MarkCaseSensitive(v types.Vocabulary, names []string) types.Vocabulary {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	for i := range v.Resources {
		if set[v.Resources[i].Name] {
			v.Resources[i].CaseSensitive = true
		}
	}
	return v
}

func readMapping(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var raw map[string][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return raw, nil
}

func idLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
