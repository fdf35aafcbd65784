package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/immo-dpe/dpe-search/internal/db"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	ADEME     ADEMEConfig     `yaml:"ademe" mapstructure:"ademe"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	DVF       DVFConfig       `yaml:"dvf" mapstructure:"dvf"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
}

// StoreConfig configures the saved-filter backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Table       string        `yaml:"table" mapstructure:"table"`
	Pool        db.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	SearchTimeoutSecs int      `yaml:"search_timeout_secs" mapstructure:"search_timeout_secs"`
}

// ADEMEConfig configures the DPE listing endpoint.
type ADEMEConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	PageSize    int    `yaml:"page_size" mapstructure:"page_size"`
	PageDelayMS int    `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
}

// GeocodeConfig configures place resolution.
type GeocodeConfig struct {
	BANURL          string `yaml:"ban_url" mapstructure:"ban_url"`
	GeoAPIURL       string `yaml:"geo_api_url" mapstructure:"geo_api_url"`
	NominatimURL    string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
}

// DVFConfig configures transaction enrichment.
type DVFConfig struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	MaxAddresses    int    `yaml:"max_addresses" mapstructure:"max_addresses"`
	PerAddressLimit int    `yaml:"per_address_limit" mapstructure:"per_address_limit"`
}

// HTTPConfig configures the shared outbound HTTP client.
type HTTPConfig struct {
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int    `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// NormalizeConfig configures record normalization.
type NormalizeConfig struct {
	// FieldMapFile is an optional YAML file of extra source keys per field.
	FieldMapFile string `yaml:"field_map_file" mapstructure:"field_map_file"`
}

// SearchConfig holds defaults applied to queries that leave them unset.
type SearchConfig struct {
	PageCap int `yaml:"page_cap" mapstructure:"page_cap"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "dpe-search.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.search_timeout_secs", 300)
	v.SetDefault("ademe.base_url", "https://data.ademe.fr/data-fair/api/v1/datasets/dpe03existant/lines")
	v.SetDefault("ademe.page_size", 300)
	v.SetDefault("ademe.page_delay_ms", 200)
	v.SetDefault("geocode.ban_url", "https://api-adresse.data.gouv.fr/search/")
	v.SetDefault("geocode.geo_api_url", "https://geo.api.gouv.fr")
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.cache_ttl_minutes", 60)
	v.SetDefault("dvf.base_url", "https://data.ademe.fr/data-fair/api/v1/datasets/dvf/lines")
	v.SetDefault("dvf.max_addresses", 50)
	v.SetDefault("dvf.per_address_limit", 10)
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("http.user_agent", "dpe-search/1.0 (+https://github.com/immo-dpe/dpe-search)")
	v.SetDefault("http.max_attempts", 1)
	v.SetDefault("http.initial_backoff_ms", 500)
	v.SetDefault("http.max_backoff_ms", 5000)
	v.SetDefault("search.page_cap", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is one of
// "search", "filters" or "serve".
func (c *Config) Validate(mode string) error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "search":
		c.validateSearch(require)
	case "filters":
		c.validateStore(require)
	case "serve":
		c.validateSearch(require)
		c.validateStore(require)
		require(c.Server.Port > 0, "server.port must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateSearch(require func(bool, string)) {
	require(c.ADEME.BaseURL != "", "ademe.base_url is required")
	require(c.ADEME.PageSize > 0, "ademe.page_size must be > 0")
	require(c.ADEME.PageDelayMS >= 0, "ademe.page_delay_ms must be >= 0")
	require(c.HTTP.TimeoutSecs > 0, "http.timeout_secs must be > 0")
	require(c.HTTP.UserAgent != "", "http.user_agent is required")
	require(c.HTTP.MaxAttempts >= 1, "http.max_attempts must be >= 1")
	require(c.Search.PageCap >= 0, "search.page_cap must be >= 0")
}

func (c *Config) validateStore(require func(bool, string)) {
	require(c.Store.DatabaseURL != "", "store.database_url is required")
	require(c.Store.Driver == "sqlite" || c.Store.Driver == "postgres", "store.driver must be sqlite or postgres")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
