package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const DefaultListingURL = "https://www.screener.in/annual-reports/"

type Config struct {
	ListingURL    string `yaml:"listing_url" validate:"required,url"`
	OutputDir     string `yaml:"output_dir" validate:"required"`
	MaxConcurrent int    `yaml:"max_concurrent" validate:"gte=1,lte=32"`
	Renderer      string `yaml:"renderer" validate:"oneof=CHROME STATIC"`

	Selectors struct {
		Ready       string `yaml:"ready"`
		LinkRegion  string `yaml:"link_region" validate:"required"`
		LinkSection string `yaml:"link_section"`
		LinkItem    string `yaml:"link_item" validate:"required"`
		Label       string `yaml:"label" validate:"required"`
	} `yaml:"selectors"`

	// Window is the half-open range [Start, End) of discovered links kept per run.
	Window struct {
		Start int `yaml:"start" validate:"gte=0"`
		End   int `yaml:"end" validate:"gtfield=Start"`
	} `yaml:"window"`

	Download struct {
		MaxAttempts    int     `yaml:"max_attempts" validate:"gte=1,lte=10"`
		TimeoutSeconds int     `yaml:"timeout_seconds" validate:"gte=1"`
		BackoffBase    float64 `yaml:"backoff_base" validate:"gte=1"`
		BackoffUnitMs  int     `yaml:"backoff_unit_ms" validate:"gte=0"`
		JitterMinMs    int     `yaml:"jitter_min_ms" validate:"gte=0"`
		JitterMaxMs    int     `yaml:"jitter_max_ms" validate:"gtefield=JitterMinMs"`
		VerifyTLS      bool    `yaml:"verify_tls"`
		RequestsPerSec float64 `yaml:"requests_per_second" validate:"gte=0"`
		RetryStatuses  []int   `yaml:"retry_statuses" validate:"dive,gte=400,lte=599"`
	} `yaml:"download"`

	Politeness struct {
		MinMs int `yaml:"min_ms" validate:"gte=0"`
		MaxMs int `yaml:"max_ms" validate:"gtefield=MinMs"`
	} `yaml:"politeness"`

	Classifier struct {
		Provider       string `yaml:"provider" validate:"oneof=LEXICON CLAUDE GEMINI"`
		Model          string `yaml:"model"`
		MaxTokens      int    `yaml:"max_tokens" validate:"gte=0"`
		APIKeyEnv      string `yaml:"api_key_env"`
		ActionMaxWords int    `yaml:"action_max_words" validate:"gte=1"`
	} `yaml:"classifier"`

	Chrome struct {
		Headful              bool   `yaml:"headful"`
		Sandbox              bool   `yaml:"sandbox"`
		UserAgent            string `yaml:"user_agent"`
		RenderTimeoutSeconds int    `yaml:"render_timeout_seconds" validate:"gte=1"`
	} `yaml:"chrome"`

	Report struct {
		Format string `yaml:"format" validate:"oneof=text json csv pdf"`
		Dir    string `yaml:"dir"`
	} `yaml:"report"`

	RunLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days" validate:"gte=0"`
	} `yaml:"run_log"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Classifier.Provider != "LEXICON" && c.Classifier.Model == "" {
		return fmt.Errorf("classifier.model is required for provider '%s'", c.Classifier.Provider)
	}
	if c.Renderer == "CHROME" && c.Selectors.Ready == "" {
		return errors.New("selectors.ready is required for the CHROME renderer")
	}
	return nil
}

// DownloadTimeout is the per-request timeout for document downloads.
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

// RenderTimeout bounds a single listing-page render.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Chrome.RenderTimeoutSeconds) * time.Second
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.ListingURL == "" {
		c.ListingURL = DefaultListingURL
	}
	if c.OutputDir == "" {
		c.OutputDir = "pdfs"
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 3
	}
	if c.Renderer == "" {
		c.Renderer = "CHROME"
	}

	if c.Selectors.Ready == "" {
		c.Selectors.Ready = "body > main > div:nth-of-type(2)"
	}
	if c.Selectors.LinkRegion == "" {
		c.Selectors.LinkRegion = "body > main > div:nth-of-type(2)"
	}
	if c.Selectors.LinkSection == "" {
		c.Selectors.LinkSection = "div:nth-of-type(2)"
	}
	if c.Selectors.LinkItem == "" {
		c.Selectors.LinkItem = "ul a[href$='.pdf']"
	}
	if c.Selectors.Label == "" {
		c.Selectors.Label = "#annual-reports-list ul.items li strong"
	}

	if c.Window.Start == 0 && c.Window.End == 0 {
		c.Window.Start = 5
		c.Window.End = 10
	}

	if c.Download.MaxAttempts == 0 {
		c.Download.MaxAttempts = 3
	}
	if c.Download.TimeoutSeconds == 0 {
		c.Download.TimeoutSeconds = 30
	}
	if c.Download.BackoffBase == 0 {
		c.Download.BackoffBase = 2
	}
	if c.Download.BackoffUnitMs == 0 {
		c.Download.BackoffUnitMs = 1000
	}
	if c.Download.JitterMinMs == 0 && c.Download.JitterMaxMs == 0 {
		c.Download.JitterMinMs = 1000
		c.Download.JitterMaxMs = 2000
	}
	if len(c.Download.RetryStatuses) == 0 {
		c.Download.RetryStatuses = []int{429, 502, 503, 504}
	}

	if c.Politeness.MinMs == 0 && c.Politeness.MaxMs == 0 {
		c.Politeness.MinMs = 1000
		c.Politeness.MaxMs = 2000
	}

	if c.Classifier.Provider == "" {
		c.Classifier.Provider = "LEXICON"
	}
	if c.Classifier.MaxTokens == 0 {
		c.Classifier.MaxTokens = 1024
	}
	if c.Classifier.ActionMaxWords == 0 {
		c.Classifier.ActionMaxWords = 512
	}
	if c.Classifier.APIKeyEnv == "" {
		switch c.Classifier.Provider {
		case "CLAUDE":
			c.Classifier.APIKeyEnv = "ANTHROPIC_API_KEY"
		case "GEMINI":
			c.Classifier.APIKeyEnv = "GEMINI_API_KEY"
		}
	}

	if c.Chrome.UserAgent == "" {
		c.Chrome.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.Chrome.RenderTimeoutSeconds == 0 {
		c.Chrome.RenderTimeoutSeconds = 60
	}

	if c.Report.Format == "" {
		c.Report.Format = "text"
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "logs/annual_reports"
	}
	if c.RunLog.Dir == "" {
		c.RunLog.Dir = "logs/runs"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
