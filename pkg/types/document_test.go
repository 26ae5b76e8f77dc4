// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentText(t *testing.T) {
	var nilDoc *Document
	assert.True(t, nilDoc.IsEmpty())
	assert.Equal(t, "", nilDoc.Text())

	doc := &Document{
		ID: "PMC1",
		Blocks: []TextBlock{
			{Kind: BlockTitle, Label: "TITLE", Depth: 1, Text: "A title"},
			{Kind: BlockMeta, Label: "FUNDING", Depth: 3, Text: "Grant 1"},
			{Kind: BlockSection, Label: "INTRO", Depth: 1, Text: "# INTRO\nBody."},
		},
		Tables: []TableBlock{{Lines: []string{"[TABLE-CAPTION] T", "a b"}}},
	}
	assert.Equal(t, "# TITLE\nA title\n\n### FUNDING\nGrant 1\n\n# INTRO\nBody.\n\n[TABLE-CAPTION] T\na b\n", doc.Text())
}

func TestNewResource(t *testing.T) {
	r := NewResource("7", []string{" GEO ", "", "geo", "Gene Expression Omnibus"})
	assert.Equal(t, "GEO", r.Name)
	assert.Equal(t, []string{"GEO", "Gene Expression Omnibus"}, r.Aliases)

	assert.Equal(t, "", NewResource("8", nil).Name)
}

func TestNumericID(t *testing.T) {
	n, ok := NumericID("PMC123")
	assert.True(t, ok)
	assert.Equal(t, uint64(123), n)

	n, ok = NumericID(" pmc42 ")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), n)

	_, ok = NumericID("PMCabc")
	assert.False(t, ok)
}
