// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/resource-miner/internal/detect"
	"github.com/pdiddy/resource-miner/internal/shard"
	"github.com/pdiddy/resource-miner/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "resource-miner/0.1"
)

// Config keys. Nested keys map to RESOURCE_MINER_<SECTION>_<NAME> in the
// environment.
const (
	keyLogLevel  = "log.level"
	keyLogFormat = "log.format"

	keyTimeout    = "http.timeout"
	keyUserAgent  = "http.user_agent"
	keyMaxRetries = "http.max_retries"
	keyRPS        = "http.requests_per_second"
	keyBurst      = "http.burst"

	keyHarvestOut     = "harvest.out_dir"
	keyWorkers        = "harvest.workers"
	keyQueueSize      = "harvest.queue_size"
	keyPageSize       = "harvest.page_size"
	keyResultLimit    = "harvest.result_limit"
	keyShards         = "harvest.shards"
	keyChunks         = "harvest.chunks"
	keyCommitInterval = "harvest.commit_interval"
	keyIncludeIDs     = "harvest.include_ids"

	keyArchiveDir    = "extract.local_archive_dir"
	keyPreprocessOut = "extract.out_dir"

	keyCaseSensitive = "detect.case_sensitive_resources"
	keyThreshold     = "detect.escalation_threshold"
	keyClassifierURL = "detect.classifier_url"
	keyClassifierKey = "detect.classifier_api_key"
	keyMinConfidence = "detect.min_confidence"

	keyResources    = "vocab.resources"
	keyExtraAliases = "vocab.extra_aliases"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "console")

	v.SetDefault(keyTimeout, defaultTimeout)
	v.SetDefault(keyUserAgent, defaultUserAgent)
	v.SetDefault(keyMaxRetries, 5)
	v.SetDefault(keyRPS, 10.0)
	v.SetDefault(keyBurst, 1)

	v.SetDefault(keyHarvestOut, "harvest")
	v.SetDefault(keyWorkers, 4)
	v.SetDefault(keyQueueSize, 1000)
	v.SetDefault(keyPageSize, 1000)
	v.SetDefault(keyShards, shard.DefaultCount)
	v.SetDefault(keyChunks, 1)
	v.SetDefault(keyCommitInterval, 5*time.Second)

	v.SetDefault(keyPreprocessOut, "text")

	v.SetDefault(keyThreshold, detect.DefaultEscalationThreshold)
	v.SetDefault(keyMinConfidence, 0.9)
}

// decodeConfig assembles the pipeline config from defaults, the config
// file, the environment and bound flags, in increasing precedence.
func decodeConfig(v *viper.Viper) types.PipelineConfig {
	httpCfg := types.HTTPConfig{
		Timeout:           v.GetDuration(keyTimeout),
		UserAgent:         v.GetString(keyUserAgent),
		MaxRetries:        v.GetInt(keyMaxRetries),
		RequestsPerSecond: v.GetFloat64(keyRPS),
		Burst:             v.GetInt(keyBurst),
	}
	return types.PipelineConfig{
		Log: types.LogConfig{
			Level:  v.GetString(keyLogLevel),
			Format: v.GetString(keyLogFormat),
		},
		Harvest: types.HarvestConfig{
			HTTPConfig:     httpCfg,
			OutDir:         v.GetString(keyHarvestOut),
			Workers:        v.GetInt(keyWorkers),
			QueueSize:      v.GetInt(keyQueueSize),
			PageSize:       v.GetInt(keyPageSize),
			ResultLimit:    v.GetInt(keyResultLimit),
			Shards:         v.GetInt(keyShards),
			Chunks:         v.GetInt(keyChunks),
			CommitInterval: v.GetDuration(keyCommitInterval),
			IncludeIDs:     v.GetStringSlice(keyIncludeIDs),
		},
		Extract: types.ExtractConfig{
			HTTPConfig:      httpCfg,
			LocalArchiveDir: v.GetString(keyArchiveDir),
			OutDir:          v.GetString(keyPreprocessOut),
		},
		Detect: types.DetectConfig{
			CaseSensitiveResources: v.GetStringSlice(keyCaseSensitive),
			EscalationThreshold:    v.GetInt(keyThreshold),
			ClassifierURL:          v.GetString(keyClassifierURL),
			ClassifierAPIKey:       v.GetString(keyClassifierKey),
			MinConfidence:          v.GetFloat64(keyMinConfidence),
		},
	}
}

// flagBindings maps command name to flag name to config key. Bindings are
// applied only for the command being executed, so commands may share keys.
var flagBindings = map[string]map[string]string{}

func bindFlag(cmd *cobra.Command, flag, key string) {
	m, ok := flagBindings[cmd.Name()]
	if !ok {
		m = map[string]string{}
		flagBindings[cmd.Name()] = m
	}
	m[flag] = key
}

func bindCommandFlags(v *viper.Viper, cmd *cobra.Command) error {
	for flag, key := range flagBindings[cmd.Name()] {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q bound to %s", flag, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}
	return nil
}
