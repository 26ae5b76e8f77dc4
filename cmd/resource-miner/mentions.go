// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resource-miner/internal/alias"
	"github.com/pdiddy/resource-miner/internal/detect"
	"github.com/pdiddy/resource-miner/internal/logging"
	"github.com/pdiddy/resource-miner/pkg/types"
)

var mentionsCmd = &cobra.Command{
	Use:   "mentions [files or directories...]",
	Short: "Detect resource mentions in preprocessed text or fetched articles",
	Long: `Mentions matches every resource alias against sentence and table-row
units of each document and writes one JSON line per candidate
(text, alias, resource, document_id). Arguments are .txt files written by
preprocess, or directories of them; --id and --ids fetch and normalize
articles instead.

When a classifier URL is configured each candidate is sent to it and only
positive labels with confidence at or above --min-confidence are written.`,
	RunE: runMentions,
}

func init() {
	f := mentionsCmd.Flags()
	f.String("resources", "", "vocabulary file (JSON or YAML) mapping resource id to aliases")
	f.String("aliases", "", "extra aliases file keyed by primary resource name")
	f.StringSlice("case-sensitive", nil, "primary resource names matched case-sensitively")
	f.Int("threshold", 0, "per-document match count that triggers case-sensitive re-check (default 30)")
	f.String("segmenter", "punkt", "sentence segmenter: punkt or line")
	f.String("classifier-url", "", "mention classifier endpoint; empty writes raw candidates")
	f.Float64("min-confidence", 0, "minimum classifier confidence kept (default 0.9)")
	f.StringSlice("id", nil, "article id to fetch and scan (repeatable)")
	f.String("ids", "", "file of article ids to fetch and scan")
	f.String("archive", "", "local archive directory used with --id/--ids")
	f.StringP("output", "o", "", "JSONL output file (default stdout)")

	for flag, key := range map[string]string{
		"resources":      keyResources,
		"aliases":        keyExtraAliases,
		"case-sensitive": keyCaseSensitive,
		"threshold":      keyThreshold,
		"classifier-url": keyClassifierURL,
		"min-confidence": keyMinConfidence,
		"archive":        keyArchiveDir,
	} {
		bindFlag(mentionsCmd, flag, key)
	}

	rootCmd.AddCommand(mentionsCmd)
}

func runMentions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.Component(logger, "mentions")
	dc := cfg.Detect

	v, err := loadVocabulary()
	if err != nil {
		return err
	}
	set := alias.Compile(v, dc.CaseSensitiveResources)

	var seg detect.Segmenter = detect.LineSegmenter{}
	if name, _ := cmd.Flags().GetString("segmenter"); name != "line" {
		p, err := detect.NewPunktSegmenter()
		if err != nil {
			return err
		}
		seg = p
	}
	det := detect.New(set, seg, dc.EscalationThreshold, log)

	var classifier detect.Classifier
	if dc.ClassifierURL != "" {
		classifier = &detect.HTTPClassifier{
			Client:     &http.Client{Timeout: cfg.Extract.Timeout},
			URL:        dc.ClassifierURL,
			APIKey:     dc.ClassifierAPIKey,
			MaxRetries: cfg.Extract.MaxRetries,
		}
	}

	var out io.Writer = cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	status := cmd.ErrOrStderr()

	emit := func(docID string, cands []types.MentionCandidate) error {
		if classifier == nil {
			for _, c := range cands {
				if err := enc.Encode(c); err != nil {
					return err
				}
			}
			fmt.Fprintf(status, "scanned: %s (%d candidates)\n", docID, len(cands))
			return nil
		}
		kept, sum := detect.ClassifyAll(ctx, classifier, cands, dc.MinConfidence, log)
		for _, c := range kept {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
		fmt.Fprintf(status, "classified: %s (%d candidates, %d positive, %d kept, %d failed)\n",
			docID, len(cands), sum.Positive, len(kept), sum.Failed)
		return nil
	}

	files, err := textFiles(args)
	if err != nil {
		return err
	}
	docs := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		id := strings.TrimSuffix(filepath.Base(path), ".txt")
		if err := emit(id, det.DetectText(id, string(data))); err != nil {
			return err
		}
		docs++
	}

	idFlags, _ := cmd.Flags().GetStringSlice("id")
	idFile, _ := cmd.Flags().GetString("ids")
	ids, err := collectIDs(idFlags, idFile)
	if err != nil {
		return err
	}
	failed := 0
	if len(ids) > 0 {
		e := newExtractor(logging.Component(logger, "extract"))
		for _, id := range ids {
			doc, err := e.Extract(ctx, id)
			if err != nil {
				failed++
				fmt.Fprintf(status, "failed:  %s (%v)\n", id, err)
				continue
			}
			if err := emit(id, det.Detect(doc)); err != nil {
				return err
			}
			docs++
		}
	}

	if docs == 0 && failed == 0 {
		return fmt.Errorf("provide .txt files, directories, --id or --ids")
	}
	fmt.Fprintf(status, "\nMentions summary: %d document(s) scanned, %d failed\n", docs, failed)
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed", failed)
	}
	return nil
}

// textFiles expands directories to the .txt files they contain, sorted.
func textFiles(args []string) ([]string, error) {
	var files []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, a)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(a, "*.txt"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}
