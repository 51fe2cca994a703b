package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/S0me0neR0man/indexstash/internal/stashdb"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Config of the stash workload checker
type Config struct {
	ConfigFile    string `yaml:"-"`
	Seed          int64  `yaml:"seed"`
	Operations    int    `yaml:"operations"`
	Workers       int    `yaml:"workers"`
	IDSpace       int    `yaml:"id_space"`
	Users         int    `yaml:"users"`
	TimestampBase int    `yaml:"timestamp_base"`
	TimestampSpan int    `yaml:"timestamp_span"`
	KarmaSpan     int    `yaml:"karma_span"`
	CheckInterval int    `yaml:"check_interval"` // 0 - check consistency only at the end
	Index         string `yaml:"index"`
	LogLevel      string `yaml:"log_level"`
	Development   bool   `yaml:"development"`
}

func Default() *Config {
	return &Config{
		Seed:          1,
		Operations:    10000,
		Workers:       1,
		IDSpace:       500,
		Users:         10,
		TimestampBase: 1536107260,
		TimestampSpan: 3600,
		KarmaSpan:     1000,
		CheckInterval: 1000,
		Index:         "rbtree",
		LogLevel:      "info",
	}
}

// NewConfig builds the config from defaults, the optional YAML file given by
// -CONFIG and the command line flags, flags win over the file.
func NewConfig(args []string) (*Config, error) {
	c := Default()

	fs := flag.NewFlagSet("checkstash", flag.ContinueOnError)
	fs.StringVar(&c.ConfigFile, "CONFIG", "", "YAML config file")
	fs.Int64Var(&c.Seed, "SEED", c.Seed, "random seed of the first worker")
	fs.IntVar(&c.Operations, "OPERATIONS", c.Operations, "operations per worker")
	fs.IntVar(&c.Workers, "WORKERS", c.Workers, "independent workers, each with its own stash")
	fs.IntVar(&c.IDSpace, "ID_SPACE", c.IDSpace, "distinct record ids per worker")
	fs.IntVar(&c.Users, "USERS", c.Users, "distinct users")
	fs.IntVar(&c.TimestampBase, "TIMESTAMP_BASE", c.TimestampBase, "smallest generated timestamp")
	fs.IntVar(&c.TimestampSpan, "TIMESTAMP_SPAN", c.TimestampSpan, "generated timestamps are in [base, base+span)")
	fs.IntVar(&c.KarmaSpan, "KARMA_SPAN", c.KarmaSpan, "generated karma is in [-span, span]")
	fs.IntVar(&c.CheckInterval, "CHECK_INTERVAL", c.CheckInterval, "operations between consistency checks")
	fs.StringVar(&c.Index, "INDEX", c.Index, "index backend: rbtree or btree")
	fs.StringVar(&c.LogLevel, "LOG_LEVEL", c.LogLevel, "log level")
	fs.BoolVar(&c.Development, "DEVELOPMENT", c.Development, "development logger")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if c.ConfigFile != "" {
		if err := c.loadFile(c.ConfigFile); err != nil {
			return nil, err
		}
		// second pass puts explicit flags back on top of the file
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// loadFile reads the YAML file over the current values
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.Operations < 0:
		return fmt.Errorf("%w: operations %d", ErrInvalidConfig, c.Operations)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers %d", ErrInvalidConfig, c.Workers)
	case c.IDSpace <= 0:
		return fmt.Errorf("%w: id space %d", ErrInvalidConfig, c.IDSpace)
	case c.Users <= 0:
		return fmt.Errorf("%w: users %d", ErrInvalidConfig, c.Users)
	case c.TimestampSpan <= 0:
		return fmt.Errorf("%w: timestamp span %d", ErrInvalidConfig, c.TimestampSpan)
	case c.KarmaSpan < 0:
		return fmt.Errorf("%w: karma span %d", ErrInvalidConfig, c.KarmaSpan)
	case c.CheckInterval < 0:
		return fmt.Errorf("%w: check interval %d", ErrInvalidConfig, c.CheckInterval)
	}
	if _, err := stashdb.ParseIndexKind(c.Index); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
