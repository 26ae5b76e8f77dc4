// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/pdiddy/resource-miner/internal/httputil"
	"github.com/pdiddy/resource-miner/pkg/types"
)

// Classifier labels a (text, alias) pair. Implementations wrap the external
// sentence classifier; label 1 means a genuine resource mention.
type Classifier interface {
	Classify(ctx context.Context, text, alias string) (label int, confidence float64, err error)
}

// HTTPClassifier calls a classifier service that accepts
// {"text": ..., "alias": ...} and answers {"label": 0|1, "confidence": p}.
type HTTPClassifier struct {
	Client     *http.Client
	URL        string
	APIKey     string
	MaxRetries int
}

type classifyRequest struct {
	Text  string `json:"text"`
	Alias string `json:"alias"`
}

type classifyResponse struct {
	Label      int     `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify posts one pair to the service.
func (c *HTTPClassifier) Classify(ctx context.Context, text, alias string) (int, float64, error) {
	body, err := json.Marshal(classifyRequest{Text: text, Alias: alias})
	if err != nil {
		return 0, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, c.MaxRetries)
	if err != nil {
		return 0, 0, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("classifier returned HTTP %d", resp.StatusCode)
	}
	var cr classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return 0, 0, fmt.Errorf("parsing classifier response: %w", err)
	}
	return cr.Label, cr.Confidence, nil
}

// ClassifySummary holds counts from a classification pass.
type ClassifySummary struct {
	Positive int
	Negative int
	Failed   int
}

// ClassifyAll labels every candidate. Failures are logged and counted; they
// do not stop the pass. The returned slice holds only positive labels with
// confidence >= minConfidence.
func ClassifyAll(ctx context.Context, c Classifier, cands []types.MentionCandidate, minConfidence float64, log zerolog.Logger) ([]types.Classification, ClassifySummary) {
	var sum ClassifySummary
	var kept []types.Classification
	for _, cand := range cands {
		if ctx.Err() != nil {
			break
		}
		label, conf, err := c.Classify(ctx, cand.Text, cand.Alias)
		if err != nil {
			log.Warn().Err(err).Str("document", cand.DocumentID).Str("alias", cand.Alias).Msg("classification failed")
			sum.Failed++
			continue
		}
		if label != 1 {
			sum.Negative++
			continue
		}
		sum.Positive++
		if conf >= minConfidence {
			kept = append(kept, types.Classification{MentionCandidate: cand, Label: label, Confidence: conf})
		}
	}
	return kept, sum
}
