// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-miner/internal/httputil"
	"github.com/pdiddy/resource-miner/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

// --- query builders ---

func TestResourceQuery(t *testing.T) {
	tests := []struct {
		name    string
		aliases []string
		want    string
	}{
		{"single", []string{"UniProt"}, `(HAS_FT:Y) AND ("UniProt")`},
		{"dedup and skip empty", []string{"PDB", "", "PDB", "Protein Data Bank"}, `(HAS_FT:Y) AND ("PDB" OR "Protein Data Bank")`},
		{"strips quotes", []string{`"GEO"`}, `(HAS_FT:Y) AND ("GEO")`},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResourceQuery(tt.aliases))
		})
	}
}

func TestIDsQuery(t *testing.T) {
	assert.Equal(t, "(HAS_FT:Y) AND (PMCID:(PMC1) OR PMCID:(PMC2))", IDsQuery([]string{"PMC1", " PMC2 ", "PMC1"}))
	assert.Equal(t, "", IDsQuery([]string{" "}))
}

func TestReduce_PrefersPrintDate(t *testing.T) {
	r := Record{
		PMCID:                "PMC42",
		PMID:                 "1234",
		Title:                "A title",
		FirstPublicationDate: "2020-01-01",
		JournalInfo:          journalInfo{PrintPublicationDate: "2020-03-01"},
		CitedByCount:         7,
	}
	m := Reduce(r)
	assert.Equal(t, "PMC42", m.ID)
	assert.Equal(t, "PMC42", m.PMCID)
	assert.Equal(t, "2020-03-01", m.FirstPublicationDate)
	assert.Equal(t, 7, m.CitedByCount)

	r.JournalInfo.PrintPublicationDate = ""
	assert.Equal(t, "2020-01-01", Reduce(r).FirstPublicationDate)
}

// --- mock service ---

const sampleSearchJSON = `{
  "hitCount": 2,
  "nextCursorMark": "AoE=",
  "resultList": {"result": [
    {"pmcid": "PMC100", "pmid": "11", "title": "First", "authorString": "Doe J.",
     "citedByCount": 3, "authorList": {"author": [{"fullName": "Doe J"}]},
     "journalInfo": {"printPublicationDate": "2021-05-01"}},
    {"pmid": "12", "title": "No PMC id"}
  ]}
}`

func testClient(ts *httptest.Server) *Client {
	baseURL = ts.URL
	return New(httputil.NewClient(types.HTTPConfig{Timeout: 5 * time.Second, MaxRetries: 2}))
}

func TestSearch_ParsesPage(t *testing.T) {
	var gotQuery, gotCursor, gotSize string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotCursor = r.URL.Query().Get("cursorMark")
		gotSize = r.URL.Query().Get("pageSize")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleSearchJSON)
	}))
	defer ts.Close()
	old := baseURL
	defer func() { baseURL = old }()

	c := testClient(ts)
	page, err := c.Search(context.Background(), `(HAS_FT:Y) AND ("x")`, 50, "")
	require.NoError(t, err)

	assert.Equal(t, `(HAS_FT:Y) AND ("x")`, gotQuery)
	assert.Equal(t, InitialCursor, gotCursor)
	assert.Equal(t, "50", gotSize)
	assert.Equal(t, 2, page.HitCount)
	assert.Equal(t, "AoE=", page.NextCursor)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "PMC100", page.Results[0].PMCID)

	var authors map[string]any
	require.NoError(t, json.Unmarshal(page.Results[0].AuthorList, &authors))
	assert.Contains(t, authors, "author")
}

func TestSearch_ClampsPageSize(t *testing.T) {
	var gotSize string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSize = r.URL.Query().Get("pageSize")
		fmt.Fprint(w, `{"hitCount":0,"resultList":{"result":[]}}`)
	}))
	defer ts.Close()
	old := baseURL
	defer func() { baseURL = old }()

	_, err := testClient(ts).Search(context.Background(), "q", 5000, "abc")
	require.NoError(t, err)
	assert.Equal(t, "1000", gotSize)
}

func TestSearch_NonRetryableStatusFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()
	old := baseURL
	defer func() { baseURL = old }()

	_, err := testClient(ts).Search(context.Background(), "q", 10, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestSearch_TransientErrorSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	old := baseURL
	defer func() { baseURL = old }()

	_, err := testClient(ts).Search(context.Background(), "q", 10, "")
	assert.ErrorIs(t, err, httputil.ErrTransient)
}

func TestFullTextXML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/PMC1/fullTextXML":
			fmt.Fprint(w, "<article/>")
		case "/PMC2/fullTextXML":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer ts.Close()
	old := baseURL
	defer func() { baseURL = old }()

	c := testClient(ts)

	data, err := c.FullTextXML(context.Background(), "PMC1")
	require.NoError(t, err)
	assert.Equal(t, "<article/>", string(data))

	_, err = c.FullTextXML(context.Background(), "PMC2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.FullTextXML(context.Background(), "PMC3")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
