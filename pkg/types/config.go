// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that call the remote service.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "resource-miner/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries caps retries of rate-limited or server-error responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerSecond paces calls to the remote service; 0 disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// Burst is the token bucket size used with RequestsPerSecond (default 1).
	Burst int `json:"burst" yaml:"burst"`
}

// HarvestConfig holds settings for the harvest stage.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutDir receives the dedup store, metadata shards, chunk files and logs.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// Workers is the number of concurrent query tasks (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize bounds in-flight records between producers and the writer (default 1000).
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// PageSize is the search page size (default 1000, service max 1000).
	PageSize int `json:"page_size" yaml:"page_size"`

	// ResultLimit caps results fetched per query; 0 means no cap.
	ResultLimit int `json:"result_limit" yaml:"result_limit"`

	// Shards is the number of metadata shard files (default 128).
	Shards int `json:"shards" yaml:"shards"`

	// Chunks is the number of id-list chunk files (default 1).
	Chunks int `json:"chunks" yaml:"chunks"`

	// CommitInterval is the dedup store commit window (default 5s).
	CommitInterval time.Duration `json:"commit_interval" yaml:"commit_interval"`

	// IncludeIDs are extra document ids queried directly (at most 100).
	IncludeIDs []string `json:"include_ids,omitempty" yaml:"include_ids,omitempty"`
}

// ExtractConfig holds settings for document extraction and preprocessing.
type ExtractConfig struct {
	HTTPConfig `yaml:",inline"`

	// LocalArchiveDir holds range-named archive files searched before the
	// remote service. Empty disables local lookup.
	LocalArchiveDir string `json:"local_archive_dir" yaml:"local_archive_dir"`

	// OutDir receives one <id>.txt file per document.
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// DetectConfig holds settings for mention detection and classification.
type DetectConfig struct {
	// CaseSensitiveResources lists primary names matched case-sensitively.
	CaseSensitiveResources []string `json:"case_sensitive_resources,omitempty" yaml:"case_sensitive_resources,omitempty"`

	// EscalationThreshold is the per-document match count above which an
	// alias is re-checked case-sensitively (default 30).
	EscalationThreshold int `json:"escalation_threshold" yaml:"escalation_threshold"`

	// ClassifierURL is the endpoint of the external mention classifier.
	// Empty skips classification.
	ClassifierURL string `json:"classifier_url,omitempty" yaml:"classifier_url,omitempty"`

	// ClassifierAPIKey authenticates classifier calls.
	ClassifierAPIKey string `json:"classifier_api_key,omitempty" yaml:"classifier_api_key,omitempty"`

	// MinConfidence filters positive classifications (default 0.9).
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is console or json (default console).
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Log     LogConfig     `json:"log" yaml:"log"`
	Harvest HarvestConfig `json:"harvest" yaml:"harvest"`
	Extract ExtractConfig `json:"extract" yaml:"extract"`
	Detect  DetectConfig  `json:"detect" yaml:"detect"`
}
