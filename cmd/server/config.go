package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hazyhaar/wardrobe/pkg/catalog"
	"github.com/hazyhaar/wardrobe/pkg/scoring"
)

type config struct {
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// LexiconFile overrides the embedded lexicon when set.
	LexiconFile  string `mapstructure:"lexicon_file"`
	WatchLexicon bool   `mapstructure:"watch_lexicon"`

	Fuzzy struct {
		Threshold float64 `mapstructure:"threshold"`
		MinRunes  int     `mapstructure:"min_runes"`
	} `mapstructure:"fuzzy"`

	Scoring scoring.Policy `mapstructure:"scoring"`

	Catalog catalogConfig `mapstructure:"catalog"`
	Log     logConfig     `mapstructure:"log"`
}

type catalogConfig struct {
	// DB is a SQLite catalog file; URL a remote catalog service. DB wins.
	DB            string        `mapstructure:"db"`
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Limit         int           `mapstructure:"limit"`
	CheckInterval time.Duration `mapstructure:"check_interval"`

	Redis    catalog.RedisConfig `mapstructure:"redis"`
	CacheTTL time.Duration       `mapstructure:"cache_ttl"`
}

type logConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

func defaultConfig() config {
	var cfg config
	cfg.Addr = ":8430"
	cfg.RequestTimeout = 30 * time.Second
	cfg.Scoring = scoring.DefaultPolicy()
	cfg.Catalog.Timeout = 5 * time.Second
	cfg.Catalog.Limit = catalog.DefaultLimit
	cfg.Catalog.CheckInterval = time.Minute
	cfg.Catalog.CacheTTL = 5 * time.Minute
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// envKeys are the settings that may come from WARDROBE_* variables.
// Viper only consults the environment for keys it already knows.
var envKeys = []string{
	"addr", "request_timeout", "lexicon_file", "watch_lexicon",
	"fuzzy.threshold", "fuzzy.min_runes",
	"catalog.db", "catalog.url", "catalog.timeout", "catalog.limit", "catalog.check_interval",
	"catalog.redis.addr", "catalog.redis.password", "catalog.redis.db", "catalog.redis.prefix", "catalog.cache_ttl",
	"log.level", "log.format",
}

// loadConfig reads path (or ./wardrobe.yaml when path is empty and the file
// exists), then WARDROBE_* environment variables, over the defaults.
func loadConfig(path string) (config, error) {
	v := viper.New()
	v.SetEnvPrefix("WARDROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return config{}, fmt.Errorf("bind env %s: %w", k, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wardrobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Scoring.Validate(); err != nil {
		return config{}, fmt.Errorf("scoring: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, lc logConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", lc.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch lc.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", lc.Format)
	}
}
