// Package config loads and validates the Amtsrag configuration from
// a TOML file. Missing values fall back to documented defaults so a
// minimal config only needs provider credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for tunable parameters. The retrieval weights were tuned
// empirically on municipal statute corpora; they are configuration,
// not structural constants.
const (
	DefaultMaxChunkSize    = 1200
	DefaultChunkOverlap    = 200
	DefaultMinDirectChars  = 64
	DefaultDenseWeight     = 0.3
	DefaultSparseWeight    = 0.7
	DefaultOverfetchFactor = 2
	DefaultTopK            = 6
	DefaultMaxTokens       = 1024
	DefaultTopP            = 0.9
	DefaultContextBudget   = 4000
	DefaultBuildWorkers    = 4
	DefaultTimeout         = 120 * time.Second
)

// Config is the root configuration.
type Config struct {
	// DataDir holds the SQLite store. Defaults to ~/.amtsrag/data.
	DataDir string `toml:"data_dir"`

	Segmenter  SegmenterConfig  `toml:"segmenter"`
	Extraction ExtractionConfig `toml:"extraction"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Generation GenerationConfig `toml:"generation"`
	Embedding  ProviderConfig   `toml:"embedding"`
	LLM        ProviderConfig   `toml:"llm"`
}

// SegmenterConfig bounds chunk sizes.
type SegmenterConfig struct {
	// MaxChunkSize is the maximum chunk length in bytes.
	MaxChunkSize int `toml:"max_chunk_size"`

	// ChunkOverlap is the overlap between consecutive fallback
	// chunks in bytes.
	ChunkOverlap int `toml:"chunk_overlap"`
}

// ExtractionConfig tunes the OCR fallback trigger.
type ExtractionConfig struct {
	// MinDirectChars is the minimum number of characters the direct
	// extraction path must yield before it is trusted. Below this
	// the optical fallback runs.
	MinDirectChars int `toml:"min_direct_chars"`

	// TesseractPath overrides the tesseract binary location.
	TesseractPath string `toml:"tesseract_path"`

	// Languages passed to the OCR engine, e.g. "deu+eng".
	Languages string `toml:"languages"`

	// BuildWorkers bounds parallel per-document extraction.
	BuildWorkers int `toml:"build_workers"`
}

// RetrievalConfig tunes hybrid fusion.
type RetrievalConfig struct {
	// DenseWeight and SparseWeight are the fusion weights. They
	// should sum to 1; Validate enforces this.
	DenseWeight  float64 `toml:"dense_weight"`
	SparseWeight float64 `toml:"sparse_weight"`

	// OverfetchFactor multiplies k when querying each index, to
	// stabilise fusion.
	OverfetchFactor int `toml:"overfetch_factor"`

	// TopK is the default number of results per query.
	TopK int `toml:"top_k"`
}

// GenerationConfig tunes answer decoding.
type GenerationConfig struct {
	// MaxTokens bounds the answer length.
	MaxTokens int `toml:"max_tokens"`

	// TopP is the nucleus sampling parameter. Temperature is always
	// 0 and not configurable: grounded answers must be reproducible.
	TopP float64 `toml:"top_p"`

	// ContextBudget caps the evidence characters packed into the
	// prompt.
	ContextBudget int `toml:"context_budget"`

	// RefusalMessage is returned verbatim when no grounded answer is
	// possible.
	RefusalMessage string `toml:"refusal_message"`

	// Timeout bounds the external generation call.
	Timeout time.Duration `toml:"timeout"`
}

// ProviderConfig points at an OpenAI-compatible API.
type ProviderConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// DefaultRefusalMessage is used when the config does not override it.
const DefaultRefusalMessage = "No reliable information on this is available in the indexed documents."

// Default returns a configuration with every tunable at its default.
// Load decodes the TOML file on top of it, so only keys present in
// the file override defaults and an explicit zero stays zero.
func Default() *Config {
	return &Config{
		Segmenter: SegmenterConfig{
			MaxChunkSize: DefaultMaxChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
		},
		Extraction: ExtractionConfig{
			MinDirectChars: DefaultMinDirectChars,
			Languages:      "deu+eng",
			BuildWorkers:   DefaultBuildWorkers,
		},
		Retrieval: RetrievalConfig{
			DenseWeight:     DefaultDenseWeight,
			SparseWeight:    DefaultSparseWeight,
			OverfetchFactor: DefaultOverfetchFactor,
			TopK:            DefaultTopK,
		},
		Generation: GenerationConfig{
			MaxTokens:      DefaultMaxTokens,
			TopP:           DefaultTopP,
			ContextBudget:  DefaultContextBudget,
			RefusalMessage: DefaultRefusalMessage,
			Timeout:        DefaultTimeout,
		},
	}
}

// Load reads the configuration file over the defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Segmenter.ChunkOverlap >= c.Segmenter.MaxChunkSize {
		return fmt.Errorf("config: chunk_overlap (%d) must be smaller than max_chunk_size (%d)",
			c.Segmenter.ChunkOverlap, c.Segmenter.MaxChunkSize)
	}
	sum := c.Retrieval.DenseWeight + c.Retrieval.SparseWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("config: retrieval weights must sum to 1, got %.3f", sum)
	}
	if c.Retrieval.DenseWeight < 0 || c.Retrieval.SparseWeight < 0 {
		return fmt.Errorf("config: retrieval weights must be non-negative")
	}
	if c.Retrieval.OverfetchFactor < 1 {
		return fmt.Errorf("config: overfetch_factor must be at least 1")
	}
	return nil
}
