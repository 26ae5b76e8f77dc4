// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/resource-miner/pkg/types"
)

type stubClassifier map[string]struct {
	label int
	conf  float64
	err   error
}

func (s stubClassifier) Classify(_ context.Context, text, _ string) (int, float64, error) {
	r := s[text]
	return r.label, r.conf, r.err
}

func TestClassifyAll(t *testing.T) {
	c := stubClassifier{
		"strong": {label: 1, conf: 0.97},
		"weak":   {label: 1, conf: 0.6},
		"no":     {label: 0, conf: 0.99},
		"boom":   {err: errors.New("service down")},
	}
	var cands []types.MentionCandidate
	for _, text := range []string{"strong", "weak", "no", "boom"} {
		cands = append(cands, types.MentionCandidate{Text: text, Alias: "GEO", Resource: "GEO", DocumentID: "PMC1"})
	}

	kept, sum := ClassifyAll(context.Background(), c, cands, 0.9, zerolog.Nop())
	require.Len(t, kept, 1)
	assert.Equal(t, "strong", kept[0].Text)
	assert.Equal(t, 1, kept[0].Label)
	assert.Equal(t, ClassifySummary{Positive: 2, Negative: 1, Failed: 1}, sum)
}

func TestHTTPClassifier(t *testing.T) {
	var got classifyRequest
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(classifyResponse{Label: 1, Confidence: 0.93})
	}))
	defer ts.Close()

	c := &HTTPClassifier{Client: ts.Client(), URL: ts.URL, APIKey: "k"}
	label, conf, err := c.Classify(context.Background(), "Data in GEO.", "GEO")
	require.NoError(t, err)
	assert.Equal(t, 1, label)
	assert.InDelta(t, 0.93, conf, 1e-9)
	assert.Equal(t, classifyRequest{Text: "Data in GEO.", Alias: "GEO"}, got)
	assert.Equal(t, "Bearer k", auth)
}

func TestHTTPClassifier_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := &HTTPClassifier{Client: ts.Client(), URL: ts.URL}
	_, _, err := c.Classify(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}
