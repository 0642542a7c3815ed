package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "science-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PathsConfig locates the on-disk working directories.
type PathsConfig struct {
	// QueueDir holds fetched papers waiting for generation (raw_queue/<subject>/).
	QueueDir string `json:"queue_dir" yaml:"queue_dir"`

	// ArticlesDir holds generated articles (articles/<subject>/).
	ArticlesDir string `json:"articles_dir" yaml:"articles_dir"`

	// IndexDir holds the SQLite catalog.
	IndexDir string `json:"index_dir" yaml:"index_dir"`

	// Syllabus is an optional YAML syllabus file. Empty uses the built-in map.
	Syllabus string `json:"syllabus" yaml:"syllabus"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BatchSize is how many fetch attempts the run command makes (default 20).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Interval is the pause between consecutive fetch attempts (default 2s).
	Interval time.Duration `json:"interval" yaml:"interval"`

	// MaxResults is how many candidates each backend returns per search (default 3).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// NCBIEmail is sent to the E-utilities as the contact address.
	NCBIEmail string `json:"ncbi_email,omitempty" yaml:"ncbi_email,omitempty"`

	// NCBIAPIKey raises the E-utilities rate limit when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the OpenAI-compatible endpoint of the provider.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature (default 0.4).
	Temperature float32 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of retry attempts for failed API calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// GenerationConfig holds settings for the processing stage.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// ItemDelay is the pause between queued papers (default 3s).
	ItemDelay time.Duration `json:"item_delay" yaml:"item_delay"`

	// SettleDelay is the pause between the fetch and process phases of a run (default 2s).
	SettleDelay time.Duration `json:"settle_delay" yaml:"settle_delay"`
}

// ServerConfig holds settings for the web UI.
type ServerConfig struct {
	// Addr is the listen address (default ":8501").
	Addr string `json:"addr" yaml:"addr"`

	// StrictGrading requires the answer tag to prefix the option instead of
	// appearing anywhere in it.
	StrictGrading bool `json:"strict_grading" yaml:"strict_grading"`

	// AllowedOrigins lists CORS origins for the JSON API.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// SessionSecret signs the quiz state cookie. Empty generates a random key.
	SessionSecret string `json:"session_secret,omitempty" yaml:"session_secret,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Paths      PathsConfig      `json:"paths" yaml:"paths"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	LogLevel   string           `json:"log_level" yaml:"log_level"`
}
