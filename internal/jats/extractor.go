// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package jats

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/resource-miner/internal/europepmc"
	"github.com/pdiddy/resource-miner/pkg/types"
)

// Fetcher retrieves a document's full-text XML from a remote service.
type Fetcher interface {
	FullTextXML(ctx context.Context, id string) ([]byte, error)
}

// Extractor resolves a document id to a normalized Document. The local
// archive is tried first; the remote fetcher is used on a miss.
type Extractor struct {
	Archive    *Archive
	Remote     Fetcher
	Normalizer Normalizer
	Log        zerolog.Logger
}

// Extract returns the document for id. A document that does not exist
// remotely or cannot be parsed yields an empty Document and a nil error;
// other failures are returned so callers can count and skip them.
func (e *Extractor) Extract(ctx context.Context, id string) (*types.Document, error) {
	empty := &types.Document{ID: id}

	var data []byte
	if e.Archive != nil {
		b, ok, err := e.Archive.Fetch(id)
		switch {
		case errors.Is(err, ErrMalformed):
			e.Log.Warn().Str("id", id).Err(err).Msg("local archive unreadable")
		case err != nil:
			e.Log.Warn().Str("id", id).Err(err).Msg("local archive lookup failed")
		case ok:
			data = b
		}
	}

	if data == nil {
		if e.Remote == nil {
			return empty, nil
		}
		b, err := e.Remote.FullTextXML(ctx, id)
		if errors.Is(err, europepmc.ErrNotFound) {
			e.Log.Debug().Str("id", id).Msg("no full text available")
			return empty, nil
		}
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", id, err)
		}
		data = b
	}

	doc, err := e.Normalizer.Normalize(id, data)
	if errors.Is(err, ErrMalformed) {
		e.Log.Warn().Str("id", id).Err(err).Msg("unparsable full text")
		return empty, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
