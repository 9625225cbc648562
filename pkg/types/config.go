package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetrievalConfig holds settings for the case-report retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent with every E-utilities request as the contact address
	// NCBI requires for programmatic access.
	Email string `json:"email" yaml:"email"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxPapers caps the number of articles retrieved per run (default 20).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// RequestDelay is the minimum spacing between consecutive E-utilities
	// calls (default 1s; halved when an API key is present).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// ScrapeConfig holds settings for the figure-scraping stage.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// FigurePageTimeout is the shorter timeout used for per-figure detail
	// page fetches (default 15s; the article page uses Timeout).
	FigurePageTimeout time.Duration `json:"figure_page_timeout" yaml:"figure_page_timeout"`

	// FigurePageDelay is the pause applied before each figure detail page
	// fetch (default 300ms).
	FigurePageDelay time.Duration `json:"figure_page_delay" yaml:"figure_page_delay"`
}

// MCQConfig holds settings for the question-generation stage.
type MCQConfig struct {
	// Enabled controls whether questions are generated at all. Turned off
	// automatically when no OpenAI API key is available.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Model is the chat model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the OpenAI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-request timeout for generation calls (default 45s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MinCaptionLength is the minimum caption length required before a
	// question is attempted (default 40).
	MinCaptionLength int `json:"min_caption_length" yaml:"min_caption_length"`
}

// ExportConfig holds settings for the output stage.
type ExportConfig struct {
	// OutputDir is the base directory for run sessions (default "outputs").
	// Each run creates a session_<timestamp>/ directory beneath it.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// CacheConfig holds settings for the article-metadata memo cache.
type CacheConfig struct {
	// Path is the SQLite database file. Empty disables caching.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	Scrape    ScrapeConfig    `json:"scrape" yaml:"scrape"`
	MCQ       MCQConfig       `json:"mcq" yaml:"mcq"`
	Export    ExportConfig    `json:"export" yaml:"export"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
}
