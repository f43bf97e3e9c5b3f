package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/lineup/heuristic"
	"github.com/domino14/lineup/search"
)

const (
	EnvPrefix = "LINEUP"
	cfgFile   = "lineup/config.yaml"
)

const (
	ConfigDebug                   = "debug"
	ConfigCPUProfile              = "cpu-profile"
	ConfigSearchAlgorithm         = "search.algorithm"
	ConfigSearchHeuristic         = "search.heuristic"
	ConfigSearchMaxDepth          = "search.max-depth"
	ConfigSearchMaxTime           = "search.max-time"
	ConfigSearchEvalCacheFraction = "search.eval-cache-fraction"
	ConfigNatsURL                 = "nats.url"
	ConfigNatsSubject             = "nats.subject"
	ConfigNatsConnectAttempts     = "nats.connect-attempts"
	ConfigHTTPAddr                = "http.addr"
	ConfigHTTPWorkers             = "http.workers"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type SearchConfig struct {
	Algorithm string
	Heuristic string
	MaxDepth  int
	// MaxTime of zero means searches are bounded by depth only.
	MaxTime time.Duration
	// EvalCacheFraction is the share of system memory given to the
	// evaluation score table. Zero disables the cache.
	EvalCacheFraction float64
}

type NatsConfig struct {
	URL             string
	Subject         string
	ConnectAttempts uint
}

type HTTPConfig struct {
	Addr string
	// Workers is the number of searches the server runs at once. The
	// evaluation cache is split evenly between them.
	Workers int
}

type Config struct {
	Debug      bool
	CPUProfile string
	Search     SearchConfig
	Nats       NatsConfig
	HTTP       HTTPConfig

	// File is the config file that was read, if any.
	File string
}

func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			Algorithm: search.AlphaBetaName,
			Heuristic: heuristic.LinePotentialName,
			MaxDepth:  3,
			MaxTime:   2 * time.Second,
		},
		Nats: NatsConfig{
			URL:             "nats://localhost:4222",
			Subject:         "lineup.bot",
			ConnectAttempts: 5,
		},
		HTTP: HTTPConfig{
			Addr:    ":8088",
			Workers: 4,
		},
	}
}

// Load fills c from, in increasing priority, defaults, the config file,
// LINEUP_* environment variables and command line flags. The config file is
// given with --config or found in the XDG config directories.
func (c *Config) Load(args []string) error {
	def := DefaultConfig()
	v := viper.New()
	v.SetDefault(ConfigDebug, def.Debug)
	v.SetDefault(ConfigCPUProfile, def.CPUProfile)
	v.SetDefault(ConfigSearchAlgorithm, def.Search.Algorithm)
	v.SetDefault(ConfigSearchHeuristic, def.Search.Heuristic)
	v.SetDefault(ConfigSearchMaxDepth, def.Search.MaxDepth)
	v.SetDefault(ConfigSearchMaxTime, def.Search.MaxTime)
	v.SetDefault(ConfigSearchEvalCacheFraction, def.Search.EvalCacheFraction)
	v.SetDefault(ConfigNatsURL, def.Nats.URL)
	v.SetDefault(ConfigNatsSubject, def.Nats.Subject)
	v.SetDefault(ConfigNatsConnectAttempts, def.Nats.ConnectAttempts)
	v.SetDefault(ConfigHTTPAddr, def.HTTP.Addr)
	v.SetDefault(ConfigHTTPWorkers, def.HTTP.Workers)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("lineup", pflag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	fs.Bool("debug", def.Debug, "debug logging")
	fs.String("cpu-profile", def.CPUProfile, "write a CPU profile to this path")
	fs.String("algorithm", def.Search.Algorithm, "search algorithm: "+strings.Join(search.Names(), ", "))
	fs.String("heuristic", def.Search.Heuristic, "evaluator, e.g. line-potential:1,local-density:0.25")
	fs.Int("max-depth", def.Search.MaxDepth, "search depth in plies")
	fs.Duration("max-time", def.Search.MaxTime, "time budget per move, 0 for none")
	fs.Float64("eval-cache-fraction", def.Search.EvalCacheFraction, "fraction of memory for the evaluation cache")
	fs.String("nats-url", def.Nats.URL, "NATS server")
	fs.String("nats-subject", def.Nats.Subject, "NATS subject the bot listens on")
	fs.Uint("nats-connect-attempts", def.Nats.ConnectAttempts, "NATS connection attempts")
	fs.String("http-addr", def.HTTP.Addr, "HTTP listen address")
	fs.Int("http-workers", def.HTTP.Workers, "searches the HTTP server runs at once")
	if err := fs.Parse(args); err != nil {
		return err
	}
	bindings := map[string]string{
		ConfigDebug:                   "debug",
		ConfigCPUProfile:              "cpu-profile",
		ConfigSearchAlgorithm:         "algorithm",
		ConfigSearchHeuristic:         "heuristic",
		ConfigSearchMaxDepth:          "max-depth",
		ConfigSearchMaxTime:           "max-time",
		ConfigSearchEvalCacheFraction: "eval-cache-fraction",
		ConfigNatsURL:                 "nats-url",
		ConfigNatsSubject:             "nats-subject",
		ConfigNatsConnectAttempts:     "nats-connect-attempts",
		ConfigHTTPAddr:                "http-addr",
		ConfigHTTPWorkers:             "http-workers",
	}
	for key, flagName := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return err
		}
	}

	path := *configPath
	if path == "" {
		path, _ = xdg.SearchConfigFile(cfgFile)
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("read-config-file")
	}

	c.File = path
	c.Debug = v.GetBool(ConfigDebug)
	c.CPUProfile = v.GetString(ConfigCPUProfile)
	c.Search = SearchConfig{
		Algorithm:         v.GetString(ConfigSearchAlgorithm),
		Heuristic:         v.GetString(ConfigSearchHeuristic),
		MaxDepth:          v.GetInt(ConfigSearchMaxDepth),
		MaxTime:           v.GetDuration(ConfigSearchMaxTime),
		EvalCacheFraction: v.GetFloat64(ConfigSearchEvalCacheFraction),
	}
	c.Nats = NatsConfig{
		URL:             v.GetString(ConfigNatsURL),
		Subject:         v.GetString(ConfigNatsSubject),
		ConnectAttempts: v.GetUint(ConfigNatsConnectAttempts),
	}
	c.HTTP = HTTPConfig{
		Addr:    v.GetString(ConfigHTTPAddr),
		Workers: v.GetInt(ConfigHTTPWorkers),
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if !slices.Contains(search.Names(), c.Search.Algorithm) {
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, c.Search.Algorithm)
	}
	if c.Search.MaxDepth < 1 || c.Search.MaxDepth > search.MaxSearchDepth {
		return fmt.Errorf("%w: max-depth %d", ErrInvalidConfig, c.Search.MaxDepth)
	}
	if c.Search.MaxTime < 0 {
		return fmt.Errorf("%w: max-time %s", ErrInvalidConfig, c.Search.MaxTime)
	}
	if c.Search.EvalCacheFraction < 0 || c.Search.EvalCacheFraction >= 1 {
		return fmt.Errorf("%w: eval-cache-fraction %v", ErrInvalidConfig, c.Search.EvalCacheFraction)
	}
	if c.HTTP.Workers < 1 {
		return fmt.Errorf("%w: http workers must be positive", ErrInvalidConfig)
	}
	if c.Nats.ConnectAttempts == 0 {
		return fmt.Errorf("%w: nats connect-attempts must be positive", ErrInvalidConfig)
	}
	return nil
}
