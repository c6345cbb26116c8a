package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// API key precedence order:
// 1. Vault (if configured) - highest priority
// 2. Config file values
// 3. Environment variables (RESUMEFORGE_AI_APIKEY, etc.)
// 4. Default values - lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Store         StoreConfig         `mapstructure:"store"`
	Resume        ResumeConfig        `mapstructure:"resume"`
	Render        RenderConfig        `mapstructure:"render"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds AI service configuration
type AIConfig struct {
	// Global/fallback configuration
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig  `mapstructure:"customPrompts"`

	// Operation-specific configurations
	Extract OperationAIConfig `mapstructure:"extract"`
	Rewrite OperationAIConfig `mapstructure:"rewrite"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold"`
}

// OperationAIConfig holds AI configuration for specific operations
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	CustomPrompts    PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

// SystemPrompts contains system-level instructions
type SystemPrompts struct {
	ExtractKeywords     string `mapstructure:"extractKeywords"`
	ExtractKeywordsFile string `mapstructure:"extractKeywordsFile"`
	RewriteResume       string `mapstructure:"rewriteResume"`
	RewriteResumeFile   string `mapstructure:"rewriteResumeFile"`
}

// UserPrompts contains user-level prompt templates
type UserPrompts struct {
	ExtractKeywords     string `mapstructure:"extractKeywords"`
	ExtractKeywordsFile string `mapstructure:"extractKeywordsFile"`
	RewriteResume       string `mapstructure:"rewriteResume"`
	RewriteResumeFile   string `mapstructure:"rewriteResumeFile"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// Valid API keys for authentication; empty disables auth
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS configuration. Only "disabled" and "server" modes are
// supported; certificates are read from files at startup.
type TLSConfig struct {
	Mode       string `mapstructure:"mode"`
	CertFile   string `mapstructure:"certFile"`
	KeyFile    string `mapstructure:"keyFile"`
	MinVersion string `mapstructure:"minVersion"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`

	// Which keyword categories feed the rewrite: "core" or "all"
	KeywordFlattenMode string `mapstructure:"keywordFlattenMode"`
}

// StoreConfig holds record store configuration
type StoreConfig struct {
	OutputsDir string `mapstructure:"outputsDir"`
}

// ResumeConfig holds canonical resume configuration
type ResumeConfig struct {
	CanonicalPath string `mapstructure:"canonicalPath"`
	WatchChanges  bool   `mapstructure:"watchChanges"`
}

// RenderConfig holds resume rendering configuration
type RenderConfig struct {
	// TemplatePath overrides the embedded HTML template when set
	TemplatePath string `mapstructure:"templatePath"`
	// RendererURL points at a remote HTML-to-PDF service; when empty the
	// local pdfCommand is used instead
	RendererURL string        `mapstructure:"rendererURL"`
	PDFCommand  string        `mapstructure:"pdfCommand"`
	PDFTimeout  time.Duration `mapstructure:"pdfTimeout"`
	OutputDir   string        `mapstructure:"outputDir"`
}

// VaultConfig holds HashiCorp Vault configuration
type VaultConfig struct {
	Enabled   bool         `mapstructure:"enabled"`
	Address   string       `mapstructure:"address"`
	Token     string       `mapstructure:"token"`
	TokenFile string       `mapstructure:"tokenFile"`
	Namespace string       `mapstructure:"namespace"`
	Secrets   VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds the Vault paths for individual secrets
type VaultSecrets struct {
	GeminiKey string `mapstructure:"geminiKey"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	SampleRate      float64           `mapstructure:"sampleRate"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Console         ConsoleConfig     `mapstructure:"console"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console exporter configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RESUMEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumeforge/")
	v.AddConfigPath("$HOME/.resumeforge")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Resolve secrets from Vault before validation so a Vault-provided API
	// key satisfies the required-key check.
	if err := config.resolveVaultSecrets(); err != nil {
		return nil, fmt.Errorf("failed to resolve Vault secrets: %w", err)
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI configuration - global defaults. maxRetries defaults to 0: a failed
	// call surfaces immediately and retrying is the caller's decision.
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 0)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.useSystemPrompts", true)

	// Keyword extraction defaults
	v.SetDefault("ai.extract.provider", "gemini")
	v.SetDefault("ai.extract.model", "")
	v.SetDefault("ai.extract.timeout", 60*time.Second)
	v.SetDefault("ai.extract.temperature", 0.2)

	// Resume rewriting gets a longer timeout: prompts carry the full resume
	v.SetDefault("ai.rewrite.provider", "gemini")
	v.SetDefault("ai.rewrite.model", "")
	v.SetDefault("ai.rewrite.timeout", 90*time.Second)
	v.SetDefault("ai.rewrite.temperature", 0.3)

	// Circuit breaker defaults for both operations
	for _, op := range []string{"extract", "rewrite"} {
		v.SetDefault("ai."+op+".circuitBreaker.enabled", true)
		v.SetDefault("ai."+op+".circuitBreaker.maxRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault("ai."+op+".circuitBreaker.minRequests", 3)
		v.SetDefault("ai."+op+".circuitBreaker.failureThreshold", 0.6)
	}

	// Server configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 120*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB
	v.SetDefault("app.keywordFlattenMode", "core")

	// Record store
	v.SetDefault("store.outputsDir", "outputs")

	// Canonical resume
	v.SetDefault("resume.canonicalPath", "docs/resume.md")
	v.SetDefault("resume.watchChanges", true)

	// Rendering
	v.SetDefault("render.templatePath", "")
	v.SetDefault("render.rendererURL", "")
	v.SetDefault("render.pdfCommand", "wkhtmltopdf")
	v.SetDefault("render.pdfTimeout", 60*time.Second)
	v.SetDefault("render.outputDir", "outputs/resumes")

	// Vault configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.geminiKey", "")

	// Observability configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumeforge")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.APIKey == "" && c.AI.Extract.APIKey == "" && c.AI.Rewrite.APIKey == "" {
		return fmt.Errorf("AI API key is required (set RESUMEFORGE_AI_APIKEY environment variable)")
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	switch c.App.KeywordFlattenMode {
	case "core", "all":
	default:
		return fmt.Errorf("invalid keyword flatten mode: %s (must be \"core\" or \"all\")", c.App.KeywordFlattenMode)
	}

	switch c.Server.TLS.Mode {
	case "disabled":
	case "server":
		if c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("TLS certificate and key files are required for server mode")
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s", c.Server.TLS.Mode)
	}

	return nil
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetExtractConfig returns the AI configuration for keyword extraction with
// fallback to the global config
func (c *Config) GetExtractConfig() OperationAIConfig {
	config := c.AI.Extract
	c.applyOperationDefaults(&config)

	if config.CustomPrompts.SystemPrompts.ExtractKeywords == "" {
		config.CustomPrompts.SystemPrompts.ExtractKeywords = c.AI.CustomPrompts.SystemPrompts.ExtractKeywords
	}
	if config.CustomPrompts.UserPrompts.ExtractKeywords == "" {
		config.CustomPrompts.UserPrompts.ExtractKeywords = c.AI.CustomPrompts.UserPrompts.ExtractKeywords
	}

	return config
}

// GetRewriteConfig returns the AI configuration for resume rewriting with
// fallback to the global config
func (c *Config) GetRewriteConfig() OperationAIConfig {
	config := c.AI.Rewrite
	c.applyOperationDefaults(&config)

	if config.CustomPrompts.SystemPrompts.RewriteResume == "" {
		config.CustomPrompts.SystemPrompts.RewriteResume = c.AI.CustomPrompts.SystemPrompts.RewriteResume
	}
	if config.CustomPrompts.UserPrompts.RewriteResume == "" {
		config.CustomPrompts.UserPrompts.RewriteResume = c.AI.CustomPrompts.UserPrompts.RewriteResume
	}

	return config
}
