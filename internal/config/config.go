// Package config loads the engine's static and runtime configuration.
//
// Two files back the configuration, mirroring the original service:
// config.ini holds operator-set values (providers, timeouts, throttle,
// feature flags); config.runtime.ini holds values the process itself
// learns and persists (per-model LLM capability flags, window geometry).
// Environment variables override config.ini values; config.runtime.ini is
// read from disk only.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the static configuration loaded from config.ini plus
// environment overrides.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"` // optional, feedback store only

	CatalogDir string `mapstructure:"CATALOG_DIR"`

	AuthMode string `mapstructure:"AUTH_MODE"` // "", "disabled", "api_key"
	APIKey   string `mapstructure:"API_KEY"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit      string   `mapstructure:"BODY_LIMIT"`

	Stage1Provider string `mapstructure:"STAGE1_LLM_PROVIDER"`
	Stage1Model    string `mapstructure:"STAGE1_LLM_MODEL"`
	Stage1Timeout  int    `mapstructure:"STAGE1_TIMEOUT_SECONDS"`
	Stage2Provider string `mapstructure:"STAGE2_LLM_PROVIDER"`
	Stage2Model    string `mapstructure:"STAGE2_LLM_MODEL"`
	Stage2Timeout  int    `mapstructure:"STAGE2_TIMEOUT_SECONDS"`

	LLMMinCallIntervalSeconds int `mapstructure:"LLM_MIN_CALL_INTERVAL_SECONDS"`

	KumulationExplizit bool `mapstructure:"KUMULATION_EXPLIZIT"`
	UseICDDefault      bool `mapstructure:"USE_ICD_DEFAULT"`
	StrictUnknownRules bool `mapstructure:"STRICT_UNKNOWN_RULES"`

	RetrievalTopN      int     `mapstructure:"RETRIEVAL_TOP_N"`
	VectorFusionWeight float64 `mapstructure:"VECTOR_FUSION_WEIGHT"`
	EmbeddingIndexPath string  `mapstructure:"EMBEDDING_INDEX_PATH"`
	SynonymDBPath      string  `mapstructure:"SYNONYM_DB_PATH"`

	GitHubFeedbackRepo  string `mapstructure:"GITHUB_FEEDBACK_REPO"` // "owner/name"
	GitHubFeedbackToken string `mapstructure:"GITHUB_FEEDBACK_TOKEN"`

	AppVersion      string `mapstructure:"APP_VERSION"`
	TarifVersion    string `mapstructure:"TARIF_VERSION"`
	UserAgentProduct string `mapstructure:"USER_AGENT_PRODUCT"`
}

// EnvCredentials implements llmgateway.Credentials by reading
// `{PROVIDER}_API_KEY` / `{PROVIDER}_BASE_URL` from the process
// environment, the form §6 Configuration names.
type EnvCredentials struct{}

// Resolve returns the API key and base URL configured for provider.
func (EnvCredentials) Resolve(provider string) (apiKey, baseURL string) {
	prefix := strings.ToUpper(provider)
	return os.Getenv(prefix + "_API_KEY"), os.Getenv(prefix + "_BASE_URL")
}

// Load reads config.ini (if present) from dir, merges environment
// overrides, and returns the static Config.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("ini")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config.ini: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.LLMMinCallIntervalSeconds < 0 {
		cfg.LLMMinCallIntervalSeconds = 0
	}
	if cfg.LLMMinCallIntervalSeconds > 1000 {
		cfg.LLMMinCallIntervalSeconds = 1000
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CATALOG_DIR", "./data")
	v.SetDefault("AUTH_MODE", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("BODY_LIMIT", "256K")
	v.SetDefault("STAGE1_LLM_PROVIDER", "openai")
	v.SetDefault("STAGE1_LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("STAGE1_TIMEOUT_SECONDS", 60)
	v.SetDefault("STAGE2_LLM_PROVIDER", "openai")
	v.SetDefault("STAGE2_LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("STAGE2_TIMEOUT_SECONDS", 45)
	v.SetDefault("LLM_MIN_CALL_INTERVAL_SECONDS", 0)
	v.SetDefault("KUMULATION_EXPLIZIT", false)
	v.SetDefault("USE_ICD_DEFAULT", true)
	v.SetDefault("STRICT_UNKNOWN_RULES", false)
	v.SetDefault("RETRIEVAL_TOP_N", 200)
	v.SetDefault("VECTOR_FUSION_WEIGHT", 0.0)
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("USER_AGENT_PRODUCT", "TarifEngine")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("API_KEY", "")
	v.SetDefault("EMBEDDING_INDEX_PATH", "")
	v.SetDefault("SYNONYM_DB_PATH", "")
	v.SetDefault("GITHUB_FEEDBACK_REPO", "")
	v.SetDefault("GITHUB_FEEDBACK_TOKEN", "")
	v.SetDefault("TARIF_VERSION", "")
}

func (c *Config) IsDev() bool { return c.Env == "development" }

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.AuthMode != "" && c.AuthMode != "disabled" && c.AuthMode != "api_key" {
		return fmt.Errorf("AUTH_MODE must be \"\", \"disabled\", or \"api_key\", got %q", c.AuthMode)
	}
	if c.AuthMode == "api_key" && c.APIKey == "" {
		return fmt.Errorf("API_KEY is required when AUTH_MODE is \"api_key\"")
	}
	if c.RetrievalTopN <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_N must be positive, got %d", c.RetrievalTopN)
	}
	return nil
}
