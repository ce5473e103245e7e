package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Mock      MockConfig      `mapstructure:"mock"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	Weather   WeatherConfig   `mapstructure:"weather"`
	Compute   ComputeConfig   `mapstructure:"compute"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	RequestTimeout int    `mapstructure:"request_timeout"`
	ProxyHeader    string `mapstructure:"proxy_header"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CacheConfig selects the cache backend. A non-empty URL enables Valkey;
// otherwise an in-process cache bounded by MaxEntries is used.
type CacheConfig struct {
	URL        string `mapstructure:"url"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type RateLimitConfig struct {
	Limit  int `mapstructure:"limit"`
	Window int `mapstructure:"window"`
}

type MockConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type GeocoderConfig struct {
	Provider     string   `mapstructure:"provider"`
	BaseURL      string   `mapstructure:"base_url"`
	MapboxToken  string   `mapstructure:"mapbox_token"`
	UserAgent    string   `mapstructure:"user_agent"`
	RPS          float64  `mapstructure:"rps"`
	CountryCodes []string `mapstructure:"country_codes"`
}

type WeatherConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ComputeConfig points at an out-of-process ephemeris. Empty means the
// in-process one.
type ComputeConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type DashboardConfig struct {
	LightPollution int `mapstructure:"light_pollution"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("server.request_timeout", 15)
	v.SetDefault("server.proxy_header", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cache.url", "")
	v.SetDefault("cache.max_entries", 500)
	v.SetDefault("ratelimit.limit", 60)
	v.SetDefault("ratelimit.window", 60)
	v.SetDefault("mock.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("geocoder.provider", "nominatim")
	v.SetDefault("geocoder.base_url", "")
	v.SetDefault("geocoder.mapbox_token", "")
	v.SetDefault("geocoder.user_agent", "skywatch-api/1.0")
	v.SetDefault("geocoder.rps", 1.0)
	v.SetDefault("geocoder.country_codes", []string{})
	v.SetDefault("weather.base_url", "https://api.open-meteo.com")
	v.SetDefault("compute.base_url", "")
	v.SetDefault("dashboard.light_pollution", 4)
	v.SetDefault("nats.url", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SKYWATCH_CACHE_URL → cache.url
	v.SetEnvPrefix("SKYWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Geocoder.CountryCodes = splitCodes(cfg.Geocoder.CountryCodes)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// splitCodes accepts both a YAML list and a comma-separated env value.
func splitCodes(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Cache.URL == "" && c.Cache.MaxEntries <= 0 {
		errs = append(errs, "cache.max_entries must be positive when cache.url is unset")
	}
	if c.RateLimit.Limit <= 0 {
		errs = append(errs, "ratelimit.limit must be positive")
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, "ratelimit.window must be positive")
	}
	switch c.Geocoder.Provider {
	case "nominatim":
	case "mapbox":
		if c.Geocoder.MapboxToken == "" && !c.Mock.Enabled {
			errs = append(errs, "geocoder.mapbox_token is required for the mapbox provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("geocoder.provider must be nominatim or mapbox, got %q", c.Geocoder.Provider))
	}
	if c.Geocoder.RPS <= 0 {
		errs = append(errs, "geocoder.rps must be positive")
	}
	for _, raw := range []struct{ key, val string }{
		{"weather.base_url", c.Weather.BaseURL},
		{"geocoder.base_url", c.Geocoder.BaseURL},
		{"compute.base_url", c.Compute.BaseURL},
	} {
		if raw.val == "" {
			continue
		}
		if u, err := url.Parse(raw.val); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("%s must be an absolute URL, got %q", raw.key, raw.val))
		}
	}
	if c.Dashboard.LightPollution < 1 || c.Dashboard.LightPollution > 9 {
		errs = append(errs, fmt.Sprintf("dashboard.light_pollution must be 1-9, got %d", c.Dashboard.LightPollution))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
