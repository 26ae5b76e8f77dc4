// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-miner/internal/alias"
	"github.com/pdiddy/resource-miner/pkg/types"
)

func newDetector(t *testing.T, seg Segmenter, caseSensitive []string, resources ...types.Resource) *Detector {
	t.Helper()
	set := alias.Compile(types.Vocabulary{Resources: resources}, caseSensitive)
	return New(set, seg, 0, zerolog.Nop())
}

func byAlias(cands []types.MentionCandidate) map[string]int {
	out := make(map[string]int)
	for _, c := range cands {
		out[c.Alias]++
	}
	return out
}

func TestDetect_SubstringSuppression(t *testing.T) {
	d := newDetector(t, LineSegmenter{}, nil,
		types.NewResource("1", []string{"Bank"}),
		types.NewResource("2", []string{"Biobank"}),
	)

	got := d.DetectText("PMC1", "Samples came from the UK Biobank and the Bank of England.")
	require.Len(t, got, 1)
	assert.Equal(t, "Biobank", got[0].Alias)
	assert.Equal(t, "Biobank", got[0].Resource)
	assert.Equal(t, "PMC1", got[0].DocumentID)

	// On its own line "Bank" still counts.
	got = d.DetectText("PMC1", "Funded by the Bank of England.")
	require.Len(t, got, 1)
	assert.Equal(t, "Bank", got[0].Alias)
}

func TestDetect_SubstringSuppressionThreeWay(t *testing.T) {
	d := newDetector(t, LineSegmenter{}, nil,
		types.NewResource("1", []string{"PDB"}),
		types.NewResource("2", []string{"PDBe"}),
		types.NewResource("3", []string{"PDBe-KB"}),
	)
	got := d.DetectText("PMC1", "PDB entries, PDBe pages and PDBe-KB annotations.")
	assert.Equal(t, map[string]int{"PDBe-KB": 1}, byAlias(got))
}

func TestDetect_CaseSensitivityEscalation(t *testing.T) {
	d := newDetector(t, LineSegmenter{}, nil, types.NewResource("9", []string{"STRING"}))

	var lines []string
	for i := 0; i < 26; i++ {
		lines = append(lines, fmt.Sprintf("Line %d holds a string value.", i))
	}
	for i := 0; i < 5; i++ {
		lines = append(lines, fmt.Sprintf("Interactions %d came from STRING.", i))
	}

	got := d.DetectText("PMC2", strings.Join(lines, "\n"))
	require.Len(t, got, 5)
	for _, c := range got {
		assert.Contains(t, c.Text, "STRING")
	}
}

func TestDetect_NoEscalationAtThreshold(t *testing.T) {
	d := newDetector(t, LineSegmenter{}, nil, types.NewResource("9", []string{"STRING"}))

	var lines []string
	for i := 0; i < DefaultEscalationThreshold; i++ {
		lines = append(lines, fmt.Sprintf("Line %d holds a string value.", i))
	}
	got := d.DetectText("PMC2", strings.Join(lines, "\n"))
	assert.Len(t, got, DefaultEscalationThreshold)
}

func TestDetect_ConfigurableThreshold(t *testing.T) {
	set := alias.Compile(types.Vocabulary{Resources: []types.Resource{types.NewResource("9", []string{"STRING"})}}, nil)
	d := New(set, LineSegmenter{}, 2, zerolog.Nop())
	got := d.DetectText("PMC2", "a string\nanother string\nthe STRING db")
	require.Len(t, got, 1)
	assert.Equal(t, "the STRING db", got[0].Text)
}

func TestDetect_DeduplicatesAndDropsEmpty(t *testing.T) {
	d := newDetector(t, LineSegmenter{}, nil, types.NewResource("1", []string{"GEO"}))
	got := d.DetectText("PMC3", "Data in GEO.\n\n   \nData in GEO.\n")
	require.Len(t, got, 1)
	assert.Equal(t, "Data in GEO.", got[0].Text)
}

func TestDetect_DocumentBlocksAndTables(t *testing.T) {
	d := newDetector(t, LineSegmenter{}, nil,
		types.NewResource("1", []string{"UniProt"}),
		types.NewResource("2", []string{"Pfam"}),
	)
	doc := &types.Document{
		ID: "PMC4",
		Blocks: []types.TextBlock{
			{Kind: types.BlockTitle, Label: "TITLE", Depth: 1, Text: "Mining UniProt"},
			{Kind: types.BlockSection, Label: "METHODS", Depth: 1, Text: "# METHODS\nSequences were taken from UniProt."},
		},
		Tables: []types.TableBlock{
			{Lines: []string{"[TABLE-CAPTION] Databases", "[COLUMN-HEADER] Name [COLUMN-HEADER] Use", "Pfam domains"}},
		},
	}
	got := d.Detect(doc)

	var texts []string
	for _, c := range got {
		texts = append(texts, c.Resource+"|"+c.Text)
	}
	sort.Strings(texts)
	assert.Equal(t, []string{
		"Pfam|Pfam domains",
		"UniProt|Mining UniProt",
		"UniProt|Sequences were taken from UniProt.",
	}, texts)
}

func TestDetect_EmptyDocument(t *testing.T) {
	d := newDetector(t, LineSegmenter{}, nil, types.NewResource("1", []string{"GEO"}))
	assert.Empty(t, d.Detect(&types.Document{ID: "PMC5"}))
	assert.Empty(t, d.Detect(nil))
}

func TestPunktSegmenter(t *testing.T) {
	seg, err := NewPunktSegmenter()
	require.NoError(t, err)

	got := seg.Sentences("We used GEO for expression data. Sequences came from UniProt.")
	assert.Equal(t, []string{"We used GEO for expression data.", "Sequences came from UniProt."}, got)
}

func TestLineSegmenter(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, LineSegmenter{}.Sentences("a\n\n  b c  \n"))
}
