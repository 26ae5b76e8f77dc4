// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// BlockKind labels the origin of a TextBlock.
type BlockKind string

const (
	BlockTitle    BlockKind = "title"
	BlockAbstract BlockKind = "abstract"
	BlockMeta     BlockKind = "meta"
	BlockSection  BlockKind = "section"
)

// TextBlock is one labeled unit of normalized text. Section blocks embed
// their nested heading lines ("## HEADING") in Text; Depth is the heading
// depth of the block's own label.
type TextBlock struct {
	Kind  BlockKind `json:"kind" yaml:"kind"`
	Label string    `json:"label" yaml:"label"`
	Depth int       `json:"depth" yaml:"depth"`
	Text  string    `json:"text" yaml:"text"`
}

// String renders the block with its heading line.
func (b TextBlock) String() string {
	if b.Kind == BlockSection {
		return b.Text
	}
	depth := b.Depth
	if depth < 1 {
		depth = 1
	}
	return strings.Repeat("#", depth) + " " + b.Label + "\n" + b.Text
}

// TableBlock is a flattened table: an optional caption line followed by one
// line per row.
type TableBlock struct {
	Lines []string `json:"lines" yaml:"lines"`
}

// String joins the table lines with newlines.
func (t TableBlock) String() string {
	return strings.Join(t.Lines, "\n")
}

// Document is one unit of literature normalized into ordered blocks.
type Document struct {
	ID          string       `json:"id" yaml:"id"`
	SecondaryID string       `json:"secondary_id,omitempty" yaml:"secondary_id,omitempty"`
	Title       string       `json:"title" yaml:"title"`
	Blocks      []TextBlock  `json:"blocks" yaml:"blocks"`
	Tables      []TableBlock `json:"tables" yaml:"tables"`
}

// IsEmpty reports whether the document carries no text and no tables.
func (d *Document) IsEmpty() bool {
	return d == nil || (len(d.Blocks) == 0 && len(d.Tables) == 0)
}

// Text renders the document as plain text: text blocks then table blocks,
// separated by blank lines.
func (d *Document) Text() string {
	if d.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, len(d.Blocks)+len(d.Tables))
	for _, b := range d.Blocks {
		parts = append(parts, b.String())
	}
	for _, t := range d.Tables {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// MentionCandidate is a text unit that lexically matched a resource alias.
type MentionCandidate struct {
	Text       string `json:"text" yaml:"text"`
	Alias      string `json:"alias" yaml:"alias"`
	Resource   string `json:"resource" yaml:"resource"`
	DocumentID string `json:"document_id" yaml:"document_id"`
}

// Classification is the external classifier's verdict on one candidate.
type Classification struct {
	MentionCandidate `yaml:",inline"`

	// Label is 1 for a genuine mention, 0 otherwise.
	Label int `json:"label" yaml:"label"`

	// Confidence is the probability of Label.
	Confidence float64 `json:"confidence" yaml:"confidence"`
}
