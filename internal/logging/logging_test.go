// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestNew_JSONCarriesRunAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", RunID: "run-1", Writer: &buf})
	cl := Component(l, "harvest")
	cl.Info().Int("n", 3).Msg("done")
	l.Debug().Msg("hidden")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "harvest", entry["component"])
	assert.Equal(t, "done", entry["message"])
	assert.EqualValues(t, 3, entry["n"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Writer: &buf})
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}
