//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// envOr returns the environment value of key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Harvest searches Europe PMC for every resource in RESOURCES
// (default data/resources.json) and writes shards and chunks to harvest/.
func Harvest() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "harvest",
		"--resources", envOr("RESOURCES", "data/resources.json"),
		"--out", envOr("HARVEST_OUT", "harvest"))
}

// Preprocess converts the ids in CHUNK (default the first chunk file) to
// plain text under text/.
func Preprocess() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "preprocess",
		"--ids", envOr("CHUNK", "harvest/pmc_idlist.chunk_1.txt"),
		"--archive", envOr("ARCHIVE", "data/archive"),
		"--out", envOr("TEXT_OUT", "text"))
}

// Mentions scans text/ for resource mentions and writes mentions/mentions.jsonl.
func Mentions() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "mentions",
		"--resources", envOr("RESOURCES", "data/resources.json"),
		"-o", envOr("MENTIONS_OUT", "mentions/mentions.jsonl"),
		envOr("TEXT_OUT", "text"))
}
