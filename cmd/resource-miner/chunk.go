// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/resource-miner/internal/harvest"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split the stored article ids into ordered batch files",
	Long: `Chunk reads every id from the dedup store in an output directory,
ordered by numeric suffix, and writes them to pmc_idlist.chunk_N.txt files.
All files but the last hold the same number of ids; the last takes the
remainder. The run manifest is updated when present.`,
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().String("out", "", "harvest output directory holding the dedup store")
	chunkCmd.Flags().Int("chunks", 0, "number of chunk files (default 1)")
	bindFlag(chunkCmd, "out", keyHarvestOut)
	bindFlag(chunkCmd, "chunks", keyChunks)

	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	hc := cfg.Harvest

	paths, total, err := partition(ctx, hc.OutDir, hc.CommitInterval, hc.Chunks)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote: %s\n", p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nChunk summary: %d ids into %d file(s)\n", total, len(paths))

	if m, err := harvest.ReadManifest(hc.OutDir); err == nil {
		m.ChunkFiles = m.ChunkFiles[:0]
		for _, p := range paths {
			m.ChunkFiles = append(m.ChunkFiles, filepath.Base(p))
		}
		m.TotalIDs = total
		if err := harvest.WriteManifest(hc.OutDir, m); err != nil {
			return err
		}
	}
	return nil
}
