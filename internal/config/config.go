package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/weerlive-forecast/internal/common"
	"github.com/i474232898/weerlive-forecast/internal/weather"
	"github.com/i474232898/weerlive-forecast/internal/weather/providers"
)

// Coordinate places a configured location on the map.
type Coordinate struct {
	Name string  `mapstructure:"name" validate:"required"`
	Lat  float64 `mapstructure:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `mapstructure:"lon" validate:"gte=-180,lte=180"`
}

type AppConfig struct {
	APIKey  string `mapstructure:"api_key" validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Locations to fetch, in display order.
	Locations   []string          `mapstructure:"locations" validate:"required,min=1,unique,dive,required"`
	Coordinates []Coordinate      `mapstructure:"coordinates" validate:"dive"`
	Icons       map[string]string `mapstructure:"icons"`

	FallbackIcon  string `mapstructure:"fallback_icon" validate:"required"`
	Timezone      string `mapstructure:"timezone" validate:"required"`
	AllNullPolicy string `mapstructure:"all_null_policy" validate:"oneof=zero null"`

	// RefreshInterval starts a new session on every tick. Zero runs a
	// single session at startup.
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=0"`
	SessionTimeout  time.Duration `mapstructure:"session_timeout" validate:"gt=0"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout" validate:"gt=0"`

	BreakerFailures    uint32        `mapstructure:"breaker_failures" validate:"gt=0"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout" validate:"gt=0"`

	// Outbound request cap towards Weerlive. Zero disables it.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	RequestBurst      int     `mapstructure:"request_burst" validate:"gte=0"`

	// In-memory store retention.
	StoreMaxHistory int           `mapstructure:"store_max_history" validate:"gte=0"` // 0 = unlimited
	StoreMaxAge     time.Duration `mapstructure:"store_max_age" validate:"gte=0"`     // 0 = unlimited

	Port     string `mapstructure:"port" validate:"required,numeric"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	Env      string `mapstructure:"env"`

	// Zone is the resolved Timezone. ZoneFallback is set when Timezone could
	// not be loaded and UTC is used instead.
	Zone         *time.Location `mapstructure:"-" validate:"-"`
	ZoneFallback bool           `mapstructure:"-"`
}

// DefaultLocations are the fourteen provincial capitals and large cities
// shown on the dashboard.
func DefaultLocations() []string {
	return []string{
		"Amsterdam", "Assen", "Lelystad", "Leeuwarden", "Arnhem", "Groningen", "Maastricht",
		"Eindhoven", "Den Helder", "Enschede", "Amersfoort", "Middelburg", "Rotterdam", "Zwolle",
	}
}

func DefaultCoordinates() []Coordinate {
	return []Coordinate{
		{Name: "Amsterdam", Lat: 52.3676, Lon: 4.9041},
		{Name: "Assen", Lat: 52.9929, Lon: 6.5642},
		{Name: "Lelystad", Lat: 52.5185, Lon: 5.4714},
		{Name: "Leeuwarden", Lat: 53.2012, Lon: 5.7999},
		{Name: "Arnhem", Lat: 51.9851, Lon: 5.8987},
		{Name: "Groningen", Lat: 53.2194, Lon: 6.5665},
		{Name: "Maastricht", Lat: 50.8514, Lon: 5.6910},
		{Name: "Eindhoven", Lat: 51.4416, Lon: 5.4697},
		{Name: "Den Helder", Lat: 52.9563, Lon: 4.7601},
		{Name: "Enschede", Lat: 52.2215, Lon: 6.8937},
		{Name: "Amersfoort", Lat: 52.1561, Lon: 5.3878},
		{Name: "Middelburg", Lat: 51.4988, Lon: 3.6136},
		{Name: "Rotterdam", Lat: 51.9225, Lon: 4.4792},
		{Name: "Zwolle", Lat: 52.5167, Lon: 6.0833},
	}
}

// envOverrides maps environment variables onto config keys.
var envOverrides = map[string]string{
	"WEERLIVE_API_KEY":  "api_key",
	"WEERLIVE_BASE_URL": "base_url",
	"TIMEZONE":          "timezone",
	"REFRESH_INTERVAL":  "refresh_interval",
	"ALL_NULL_POLICY":   "all_null_policy",
	"PORT":              "port",
	"LOG_LEVEL":         "log_level",
	"APP_ENV":           "env",
}

// Load reads configuration from .env, an optional config.yaml and the
// environment, in increasing order of precedence.
func Load() (*AppConfig, error) {
	// A missing .env file is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	for env, key := range envOverrides {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}
	if locs := common.SplitList(os.Getenv("LOCATIONS")); len(locs) > 0 {
		v.Set("locations", locs)
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Coordinates) == 0 {
		cfg.Coordinates = DefaultCoordinates()
	}
	if len(cfg.Icons) == 0 {
		cfg.Icons = weather.DefaultIcons()
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	zone, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		zone = time.UTC
		cfg.ZoneFallback = true
	}
	cfg.Zone = zone

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", providers.DefaultWeerliveURL)
	v.SetDefault("locations", DefaultLocations())
	v.SetDefault("fallback_icon", weather.DefaultFallbackIcon)
	v.SetDefault("timezone", "Europe/Amsterdam")
	v.SetDefault("all_null_policy", string(weather.ZeroFill))
	v.SetDefault("refresh_interval", "0s")
	v.SetDefault("session_timeout", "1m")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("breaker_failures", providers.DefaultBreakerConfig.ConsecutiveFailures)
	v.SetDefault("breaker_open_timeout", providers.DefaultBreakerConfig.OpenTimeout.String())
	v.SetDefault("requests_per_second", 2)
	v.SetDefault("request_burst", 4)
	v.SetDefault("store_max_history", 24)
	v.SetDefault("store_max_age", "24h")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("env", "development")
}

// LocationIDs returns the configured locations.
func (c *AppConfig) LocationIDs() []weather.LocationID {
	out := make([]weather.LocationID, 0, len(c.Locations))
	for _, l := range c.Locations {
		out = append(out, weather.LocationID(l))
	}
	return out
}

// CoordinateMap indexes the configured coordinates by location.
func (c *AppConfig) CoordinateMap() map[weather.LocationID]weather.Coordinate {
	out := make(map[weather.LocationID]weather.Coordinate, len(c.Coordinates))
	for _, co := range c.Coordinates {
		out[weather.LocationID(co.Name)] = weather.Coordinate{Lat: co.Lat, Lon: co.Lon}
	}
	return out
}

// NullPolicy returns the parsed all-null policy.
func (c *AppConfig) NullPolicy() weather.NullPolicy {
	p, err := weather.ParseNullPolicy(c.AllNullPolicy)
	if err != nil {
		return weather.ZeroFill
	}
	return p
}

// Breaker returns the per-location circuit breaker settings.
func (c *AppConfig) Breaker() providers.BreakerConfig {
	return providers.BreakerConfig{
		ConsecutiveFailures: c.BreakerFailures,
		OpenTimeout:         c.BreakerOpenTimeout,
	}
}
