package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML accepts "90s"/"2m" strings
// (bare integers are taken as seconds).
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return fmt.Errorf("config: invalid duration value")
}

// Weights combine the three ranking signals into one score. They are
// tunables, not algorithm constants; defaults favour category affinity.
type Weights struct {
	Affinity float64 `yaml:"affinity"`
	Distance float64 `yaml:"distance"`
	Rating   float64 `yaml:"rating"`
}

// LogConfig selects zap encoding and destination.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, console
	Output     string `yaml:"output"` // stdout, file, both
	FilePath   string `yaml:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Config holds every tunable of the dispatch engine. Values come from
// defaults, then an optional YAML file, then environment variables.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	MongoURI string `yaml:"mongo_uri"` // empty means in-memory mode
	MongoDB  string `yaml:"mongo_db"`

	RedisAddr     string `yaml:"redis_addr"` // empty disables the broadcast publisher
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	SearchRadiusMeters float64  `yaml:"search_radius_meters"`
	OfferTTL           Duration `yaml:"offer_ttl"`
	ScanInterval       Duration `yaml:"scan_interval"`
	MaxRating          float64  `yaml:"max_rating"`
	Weights            Weights  `yaml:"weights"`

	Log LogConfig `yaml:"log"`
}

// Default returns the engine defaults used when nothing else is set.
func Default() *Config {
	return &Config{
		HTTPAddr:           ":8080",
		MongoDB:            "runmatch",
		RedisDB:            0,
		SearchRadiusMeters: 5000,
		OfferTTL:           Duration(90 * time.Second),
		ScanInterval:       Duration(15 * time.Second),
		MaxRating:          5,
		Weights: Weights{
			Affinity: 0.50,
			Distance: 0.30,
			Rating:   0.20,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stdout",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load builds the effective configuration. The YAML file named by
// RUNMATCH_CONFIG is optional; a missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("RUNMATCH_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getenv("HTTP_ADDR", c.HTTPAddr)
	c.MongoURI = getenv("MONGODB_URI", c.MongoURI)
	c.MongoDB = getenv("MONGO_DB_NAME", c.MongoDB)
	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getenv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getint("REDIS_DB", c.RedisDB)

	c.SearchRadiusMeters = getfloat("SEARCH_RADIUS_METERS", c.SearchRadiusMeters)
	c.OfferTTL = getduration("OFFER_TTL", c.OfferTTL)
	c.ScanInterval = getduration("SCAN_INTERVAL", c.ScanInterval)
	c.MaxRating = getfloat("MAX_RATING", c.MaxRating)

	c.Weights.Affinity = getfloat("WEIGHT_AFFINITY", c.Weights.Affinity)
	c.Weights.Distance = getfloat("WEIGHT_DISTANCE", c.Weights.Distance)
	c.Weights.Rating = getfloat("WEIGHT_RATING", c.Weights.Rating)

	c.Log.Level = getenv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenv("LOG_FORMAT", c.Log.Format)
	c.Log.Output = getenv("LOG_OUTPUT", c.Log.Output)
	c.Log.FilePath = getenv("LOG_FILE", c.Log.FilePath)
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.SearchRadiusMeters <= 0 {
		return fmt.Errorf("config: search radius must be positive, got %v", c.SearchRadiusMeters)
	}
	if c.OfferTTL <= 0 {
		return fmt.Errorf("config: offer TTL must be positive, got %v", c.OfferTTL.Std())
	}
	if c.MaxRating <= 0 {
		return fmt.Errorf("config: max rating must be positive, got %v", c.MaxRating)
	}
	w := c.Weights
	if w.Affinity < 0 || w.Distance < 0 || w.Rating < 0 {
		return fmt.Errorf("config: ranking weights must be non-negative, got %+v", w)
	}
	if w.Affinity+w.Distance+w.Rating == 0 {
		return fmt.Errorf("config: at least one ranking weight must be positive")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def Duration) Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return Duration(d)
		}
	}
	return def
}
