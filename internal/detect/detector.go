// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detect finds resource mentions in normalized document text and
// produces (sentence, alias, resource) candidates for the external
// classifier.
package detect

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/resource-miner/internal/alias"
	"github.com/pdiddy/resource-miner/pkg/types"
)

// DefaultEscalationThreshold is the per-document match count above which a
// case-insensitive alias is re-checked case-sensitively.
const DefaultEscalationThreshold = 30

// Detector applies a compiled alias set to documents. It holds no mutable
// state and may be shared across goroutines when its Segmenter can.
type Detector struct {
	Set       *alias.Set
	Segmenter Segmenter
	Threshold int
	Log       zerolog.Logger
}

// New returns a Detector. A threshold <= 0 selects the default.
func New(set *alias.Set, seg Segmenter, threshold int, log zerolog.Logger) *Detector {
	if threshold <= 0 {
		threshold = DefaultEscalationThreshold
	}
	return &Detector{Set: set, Segmenter: seg, Threshold: threshold, Log: log}
}

// hit is one alias match on one text unit.
type hit struct {
	text string
	m    *alias.Matcher
}

// Detect returns the deduplicated mention candidates of doc. Text blocks are
// split into sentences and table blocks into rows. Order is unspecified.
func (d *Detector) Detect(doc *types.Document) []types.MentionCandidate {
	if doc.IsEmpty() {
		return nil
	}
	var hits []hit
	for _, b := range doc.Blocks {
		for _, s := range d.Segmenter.Sentences(b.String()) {
			hits = append(hits, d.matchUnit(s)...)
		}
	}
	for _, t := range doc.Tables {
		for _, row := range t.Lines {
			hits = append(hits, d.matchUnit(row)...)
		}
	}
	return d.finish(doc.ID, hits)
}

// DetectText runs detection over a raw text body, such as a preprocessed
// document file.
func (d *Detector) DetectText(docID, text string) []types.MentionCandidate {
	var hits []hit
	for _, s := range d.Segmenter.Sentences(text) {
		hits = append(hits, d.matchUnit(s)...)
	}
	return d.finish(docID, hits)
}

// matchUnit matches one sentence or row and suppresses aliases contained in
// another alias matched on the same unit.
func (d *Detector) matchUnit(unit string) []hit {
	unit = strings.TrimSpace(strings.ReplaceAll(unit, "\n", " "))
	if unit == "" {
		return nil
	}
	ms := d.Set.Match(unit)
	if len(ms) > 1 {
		ms = suppressSubstrings(ms)
	}
	hits := make([]hit, len(ms))
	for i, m := range ms {
		hits[i] = hit{text: unit, m: m}
	}
	return hits
}

// suppressSubstrings drops every matcher whose folded alias is a proper
// substring of another matched alias. With three or more overlapping
// aliases only the ones not contained in any other survive.
func suppressSubstrings(ms []*alias.Matcher) []*alias.Matcher {
	folded := make([]string, len(ms))
	for i, m := range ms {
		folded[i] = alias.Fold(m.Alias)
	}
	out := ms[:0:0]
	for i, m := range ms {
		contained := false
		for j := range ms {
			if folded[i] != folded[j] && strings.Contains(folded[j], folded[i]) {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, m)
		}
	}
	return out
}

// finish applies precision escalation and deduplicates.
func (d *Detector) finish(docID string, hits []hit) []types.MentionCandidate {
	counts := make(map[string]int)
	for _, h := range hits {
		counts[h.m.Alias]++
	}
	for a, n := range counts {
		if n > d.Threshold {
			d.Log.Debug().Str("document", docID).Str("alias", a).Int("matches", n).
				Msg("switching alias to case-sensitive matching")
		}
	}

	seen := make(map[types.MentionCandidate]bool)
	var out []types.MentionCandidate
	for _, h := range hits {
		if h.text == "" {
			continue
		}
		if counts[h.m.Alias] > d.Threshold && !h.m.CaseSensitive && !h.m.MatchStrict(h.text) {
			continue
		}
		c := types.MentionCandidate{
			Text:       h.text,
			Alias:      h.m.Alias,
			Resource:   h.m.Resource,
			DocumentID: docID,
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
