// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jats turns JATS full-text XML into ordered text and table blocks,
// resolving documents from a local archive or the remote service.
package jats

import (
	"encoding/xml"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/resource-miner/pkg/types"
)

// ErrMalformed reports markup that cannot be parsed.
var ErrMalformed = errors.New("malformed document")

const (
	tableCaptionPrefix = "[TABLE-CAPTION] "
	columnHeaderPrefix = "[COLUMN-HEADER] "
	metaDepth          = 3
)

// DefaultExcludedSections lists top-level sec-type values that are skipped.
var DefaultExcludedSections = []string{"orcid"}

// Normalizer converts parsed JATS into a Document. The zero value uses
// DefaultExcludedSections.
type Normalizer struct {
	ExcludedSections []string
}

func (n Normalizer) excluded(secType string) bool {
	list := n.ExcludedSections
	if list == nil {
		list = DefaultExcludedSections
	}
	return slices.Contains(list, secType)
}

// Normalize parses one article's XML and returns its blocks in document
// order: title, abstract, metadata fields, then body sections. Tables are
// emitted separately and never appear in section text.
func (n Normalizer) Normalize(id string, data []byte) (*types.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{Permissive: true, Entity: xml.HTMLEntity}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, id, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: %s: no root element", ErrMalformed, id)
	}

	out := &types.Document{ID: id}

	for _, aid := range doc.FindElements("//article-id") {
		if aid.SelectAttrValue("pub-id-type", "") == "pmid" {
			out.SecondaryID = textOf(aid)
			break
		}
	}

	title := doc.FindElement("//title-group/article-title")
	if title == nil {
		title = doc.FindElement("//article-title")
	}
	if title != nil {
		if t := textOf(title); t != "" {
			out.Title = t
			out.Blocks = append(out.Blocks, types.TextBlock{Kind: types.BlockTitle, Label: "TITLE", Depth: 1, Text: t})
		}
	}

	if abstract := doc.FindElement("//abstract"); abstract != nil {
		heading := headingOf(abstract)
		if heading == "ABSTRACT" {
			heading = ""
		}
		text := sectionBody(abstract, heading, 1)
		if text == "" {
			text = textOf(abstract)
		}
		if text != "" {
			out.Blocks = append(out.Blocks, types.TextBlock{Kind: types.BlockAbstract, Label: "ABSTRACT", Depth: 1, Text: text})
		}
	}

	if fs := doc.FindElement("//funding-statement"); fs != nil {
		if t := textOf(fs); t != "" {
			out.Blocks = append(out.Blocks, types.TextBlock{Kind: types.BlockMeta, Label: "FUNDING", Depth: metaDepth, Text: t})
		}
	}
	for _, cm := range doc.FindElements("//custom-meta") {
		name, value := cm.SelectElement("meta-name"), cm.SelectElement("meta-value")
		if name == nil || value == nil {
			continue
		}
		nt, vt := textOf(name), textOf(value)
		if nt != "" && vt != "" {
			out.Blocks = append(out.Blocks, types.TextBlock{Kind: types.BlockMeta, Label: strings.ToUpper(nt), Depth: metaDepth, Text: vt})
		}
	}

	for _, tw := range doc.FindElements("//table-wrap") {
		if tb, ok := flattenTable(tw); ok {
			out.Tables = append(out.Tables, tb)
		}
	}

	if body := doc.FindElement("//body"); body != nil {
		for _, el := range body.ChildElements() {
			switch el.Tag {
			case "sec":
				if n.excluded(el.SelectAttrValue("sec-type", "")) {
					continue
				}
				if text := sectionText(el, 1); text != "" {
					out.Blocks = append(out.Blocks, types.TextBlock{
						Kind:  types.BlockSection,
						Label: headingOf(el),
						Depth: 1,
						Text:  text,
					})
				}
			case "p":
				if lines := paragraphLines(el); len(lines) > 0 {
					out.Blocks = append(out.Blocks, types.TextBlock{Kind: types.BlockSection, Depth: 1, Text: strings.Join(lines, "\n")})
				}
			}
		}
	}

	return out, nil
}

func headingOf(sec *etree.Element) string {
	if t := sec.SelectElement("title"); t != nil {
		return strings.ToUpper(textOf(t))
	}
	return ""
}

// sectionText flattens a section: its heading at the given depth, then its
// direct paragraphs, lists and nested sections in document order.
func sectionText(sec *etree.Element, depth int) string {
	return sectionBody(sec, headingOf(sec), depth)
}

func sectionBody(sec *etree.Element, heading string, depth int) string {
	var lines []string
	if heading != "" {
		lines = append(lines, strings.Repeat("#", depth)+" "+heading)
	}
	for _, el := range sec.ChildElements() {
		switch el.Tag {
		case "sec":
			if t := sectionText(el, depth+1); t != "" {
				lines = append(lines, t)
			}
		case "p":
			lines = append(lines, paragraphLines(el)...)
		case "list":
			lines = append(lines, listLines(el)...)
		}
	}
	return strings.Join(lines, "\n")
}

// paragraphLines emits embedded list items as bullets, then the paragraph
// text without those lists or any embedded tables.
func paragraphLines(p *etree.Element) []string {
	var lines []string
	for _, l := range p.SelectElements("list") {
		lines = append(lines, listLines(l)...)
	}
	if t := textOf(p, "list", "table-wrap"); t != "" {
		lines = append(lines, t)
	}
	return lines
}

func listLines(l *etree.Element) []string {
	var lines []string
	for _, li := range l.FindElements(".//list-item") {
		if t := textOf(li); t != "" {
			lines = append(lines, "- "+strings.TrimSuffix(t, ".")+".")
		}
	}
	return lines
}

// flattenTable renders a table-wrap as a caption line plus one line per row.
// Cells in the first row or tagged th are marked as column headers.
func flattenTable(tw *etree.Element) (types.TableBlock, bool) {
	var tb types.TableBlock
	if c := tw.FindElement(".//caption"); c != nil {
		if t := textOf(c); t != "" {
			tb.Lines = append(tb.Lines, tableCaptionPrefix+t)
		}
	}
	if table := tw.FindElement(".//table"); table != nil {
		for i, row := range table.FindElements(".//tr") {
			var cells []string
			for _, cell := range row.ChildElements() {
				if cell.Tag != "td" && cell.Tag != "th" {
					continue
				}
				t := textOf(cell)
				if t == "" {
					continue
				}
				if cell.Tag == "th" || i == 0 {
					t = columnHeaderPrefix + t
				}
				cells = append(cells, t)
			}
			if len(cells) > 0 {
				tb.Lines = append(tb.Lines, strings.Join(cells, " "))
			}
		}
	}
	return tb, len(tb.Lines) > 0
}

// textOf returns the element's descendant character data with whitespace
// collapsed, in NFC form. Subtrees tagged with any of skip are left out.
func textOf(el *etree.Element, skip ...string) string {
	var b strings.Builder
	collectText(el, &b, skip)
	return norm.NFC.String(strings.Join(strings.Fields(b.String()), " "))
}

func collectText(el *etree.Element, b *strings.Builder, skip []string) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			if !slices.Contains(skip, t.Tag) {
				collectText(t, b, skip)
			}
		}
	}
}
