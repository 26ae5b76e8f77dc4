// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NumericID returns the numeric part of a document id such as "PMC123".
// A bare number is accepted.
func NumericID(id string) (uint64, bool) {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(id)), "PMC")
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}

// ArticleMetadata is the reduced bibliographic record written to a shard for
// every newly seen document. Nested structures from the search service
// (author, grant, keyword and MeSH lists) are kept verbatim.
type ArticleMetadata struct {
	// ID is the primary document id (the PMC id for Europe PMC records).
	ID string `json:"id" yaml:"id"`

	PMCID string `json:"pmcid" yaml:"pmcid"`

	// PMID is the optional secondary id.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	Title string `json:"title" yaml:"title"`

	// FirstPublicationDate prefers the journal print date when the service
	// reports one.
	FirstPublicationDate string `json:"firstPublicationDate,omitempty" yaml:"first_publication_date,omitempty"`

	AuthorString string `json:"authorString" yaml:"author_string"`

	CitedByCount int `json:"citedByCount" yaml:"cited_by_count"`

	AuthorList      json.RawMessage `json:"authorList,omitempty" yaml:"-"`
	GrantsList      json.RawMessage `json:"grantsList,omitempty" yaml:"-"`
	KeywordList     json.RawMessage `json:"keywordList,omitempty" yaml:"-"`
	MeshHeadingList json.RawMessage `json:"meshHeadingList,omitempty" yaml:"-"`
}
