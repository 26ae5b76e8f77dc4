// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package europepmc queries the Europe PMC REST service: cursor-paginated
// search and full-text XML retrieval.
package europepmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/resource-miner/internal/httputil"
)

// baseURL is the Europe PMC REST root. Declared as a var so tests can
// substitute an httptest server.
var baseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

// SetBaseURL points the package at another service root and returns a
// function restoring the previous one.
func SetBaseURL(u string) (restore func()) {
	old := baseURL
	baseURL = u
	return func() { baseURL = old }
}

// MaxPageSize is the largest page the search endpoint serves.
const MaxPageSize = 1000

// InitialCursor starts a cursor-paginated search.
const InitialCursor = "*"

// ErrNotFound reports a document the service does not hold.
var ErrNotFound = errors.New("document not found")

// Client talks to Europe PMC through a paced, retrying HTTP client.
type Client struct {
	HTTP *httputil.Client
}

// New returns a Client using h for transport.
func New(h *httputil.Client) *Client {
	return &Client{HTTP: h}
}

// Page is one page of search results.
type Page struct {
	HitCount   int
	NextCursor string
	Results    []Record
}

// Search fetches one page of results for query starting at cursor.
func (c *Client) Search(ctx context.Context, query string, pageSize int, cursor string) (Page, error) {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if cursor == "" {
		cursor = InitialCursor
	}
	params := url.Values{
		"query":      {query},
		"resultType": {"core"},
		"format":     {"json"},
		"pageSize":   {strconv.Itoa(pageSize)},
		"cursorMark": {cursor},
	}
	reqURL := baseURL + "/search?" + params.Encode()

	resp, err := c.HTTP.Get(ctx, reqURL, "application/json")
	if err != nil {
		return Page{}, fmt.Errorf("Europe PMC search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("Europe PMC search returned HTTP %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Page{}, fmt.Errorf("parsing Europe PMC response: %w", err)
	}
	return Page{
		HitCount:   sr.HitCount,
		NextCursor: sr.NextCursorMark,
		Results:    sr.ResultList.Result,
	}, nil
}

// FullTextXML returns the JATS XML of document id. A 404 yields ErrNotFound.
func (c *Client) FullTextXML(ctx context.Context, id string) ([]byte, error) {
	reqURL := baseURL + "/" + url.PathEscape(id) + "/fullTextXML"

	resp, err := c.HTTP.Get(ctx, reqURL, "application/xml")
	if err != nil {
		return nil, fmt.Errorf("fetching full text for %s: %w", id, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	default:
		return nil, fmt.Errorf("full text for %s returned HTTP %d", id, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading full text for %s: %w", id, err)
	}
	return data, nil
}

// Europe PMC JSON structures.
type searchResponse struct {
	HitCount       int    `json:"hitCount"`
	NextCursorMark string `json:"nextCursorMark"`
	ResultList     struct {
		Result []Record `json:"result"`
	} `json:"resultList"`
}

// Record is one search hit restricted to the fields the pipeline keeps.
type Record struct {
	PMCID                string          `json:"pmcid"`
	PMID                 string          `json:"pmid"`
	Title                string          `json:"title"`
	FirstPublicationDate string          `json:"firstPublicationDate"`
	JournalInfo          journalInfo     `json:"journalInfo"`
	AuthorString         string          `json:"authorString"`
	AuthorList           json.RawMessage `json:"authorList"`
	CitedByCount         int             `json:"citedByCount"`
	GrantsList           json.RawMessage `json:"grantsList"`
	KeywordList          json.RawMessage `json:"keywordList"`
	MeshHeadingList      json.RawMessage `json:"meshHeadingList"`
}

type journalInfo struct {
	PrintPublicationDate string `json:"printPublicationDate"`
}
