// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the resource-miner pipeline:
// the resource vocabulary, harvested article metadata, normalized documents,
// mention candidates, and per-stage configuration.
package types

import "strings"

// Resource is a named entity whose mentions are detected in literature text.
type Resource struct {
	// ID is the stable identifier from the vocabulary source.
	ID string `json:"id" yaml:"id"`

	// Name is the primary name (the first alias in the source list).
	Name string `json:"name" yaml:"name"`

	// Aliases lists distinct names in source order, deduplicated
	// case-insensitively. Name is always Aliases[0].
	Aliases []string `json:"aliases" yaml:"aliases"`

	// CaseSensitive matches aliases against unmodified text.
	CaseSensitive bool `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
}

// NewResource builds a Resource from a raw alias list. Empty aliases are
// dropped and later aliases that differ from an earlier one only by case are
// discarded.
func NewResource(id string, aliases []string) Resource {
	r := Resource{ID: id}
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if seen[key] {
			continue
		}
		seen[key] = true
		r.Aliases = append(r.Aliases, a)
	}
	if len(r.Aliases) > 0 {
		r.Name = r.Aliases[0]
	}
	return r
}

// Vocabulary is the immutable set of resources loaded at startup.
type Vocabulary struct {
	Resources []Resource `json:"resources" yaml:"resources"`
}

// Len returns the number of resources.
func (v Vocabulary) Len() int { return len(v.Resources) }

// ByName returns the resource whose primary name equals name.
func (v Vocabulary) ByName(name string) (Resource, bool) {
	for _, r := range v.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}
