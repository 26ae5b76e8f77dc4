// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"strings"

	"github.com/pdiddy/resource-miner/pkg/types"
)

// fullTextFilter restricts searches to records with full text available.
const fullTextFilter = "(HAS_FT:Y)"

// ResourceQuery builds "(HAS_FT:Y) AND ("a" OR "b" ...)" from a resource's
// aliases. Duplicates and empty aliases are skipped. It returns "" when no
// alias remains.
func ResourceQuery(aliases []string) string {
	var terms []string
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		a = strings.TrimSpace(strings.ReplaceAll(a, `"`, ""))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		terms = append(terms, `"`+a+`"`)
	}
	if len(terms) == 0 {
		return ""
	}
	return fullTextFilter + " AND (" + strings.Join(terms, " OR ") + ")"
}

// IDsQuery builds "(HAS_FT:Y) AND (PMCID:(PMC1) OR ...)" for explicit ids.
func IDsQuery(ids []string) string {
	var terms []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		terms = append(terms, "PMCID:("+id+")")
	}
	if len(terms) == 0 {
		return ""
	}
	return fullTextFilter + " AND (" + strings.Join(terms, " OR ") + ")"
}

// Reduce maps a search record to the fixed metadata field set written to
// shards. The journal print date is preferred over the first publication date.
func Reduce(r Record) types.ArticleMetadata {
	date := r.JournalInfo.PrintPublicationDate
	if date == "" {
		date = r.FirstPublicationDate
	}
	return types.ArticleMetadata{
		ID:                   r.PMCID,
		PMCID:                r.PMCID,
		PMID:                 r.PMID,
		Title:                r.Title,
		FirstPublicationDate: date,
		AuthorString:         r.AuthorString,
		CitedByCount:         r.CitedByCount,
		AuthorList:           r.AuthorList,
		GrantsList:           r.GrantsList,
		KeywordList:          r.KeywordList,
		MeshHeadingList:      r.MeshHeadingList,
	}
}
