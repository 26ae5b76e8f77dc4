// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Segmenter splits a block of prose into sentences.
type Segmenter interface {
	Sentences(text string) []string
}

// PunktSegmenter segments English text with the pre-trained Punkt model,
// which knows common abbreviations ("e.g.", "et al.", "Fig.").
type PunktSegmenter struct {
	tok *sentences.DefaultSentenceTokenizer
}

// NewPunktSegmenter loads the English Punkt model.
func NewPunktSegmenter() (*PunktSegmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading sentence model: %w", err)
	}
	return &PunktSegmenter{tok: tok}, nil
}

// Sentences returns the trimmed, non-empty sentences of text.
func (p *PunktSegmenter) Sentences(text string) []string {
	var out []string
	for _, s := range p.tok.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// LineSegmenter treats every non-empty line as one unit. Table blocks are
// always split this way.
type LineSegmenter struct{}

// Sentences returns the trimmed, non-empty lines of text.
func (LineSegmenter) Sentences(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}
