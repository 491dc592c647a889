package log

import (
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
	"moul.io/zapfilter"
)

// Config holds per logger levels. Keys are logger names as produced by Named,
// a key matches the logger itself and all of its children.
//
// Example:
//
//	defaultLevel: info
//	loggers:
//	  openf1: debug
//	  cache: warn
type Config struct {
	DefaultLevel string            `yaml:"defaultLevel"`
	Loggers      map[string]string `yaml:"loggers"`

	defaultLevel Level
	rules        []levelRule
}

type levelRule struct {
	name  string
	level Level
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.compile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) compile() error {
	c.defaultLevel = InfoLevel
	if c.DefaultLevel != "" {
		l, err := ParseLevel(c.DefaultLevel)
		if err != nil {
			return err
		}
		c.defaultLevel = l
	}
	c.rules = make([]levelRule, 0, len(c.Loggers))
	for name, levelText := range c.Loggers {
		l, err := ParseLevel(levelText)
		if err != nil {
			return err
		}
		c.rules = append(c.rules, levelRule{name: name, level: l})
	}
	// longest name wins
	sort.Slice(c.rules, func(i, j int) bool {
		return len(c.rules[i].name) > len(c.rules[j].name)
	})
	return nil
}

// MinLevel is the lowest level any logger may emit. The core must be created
// with this level, the filter takes care of the rest.
func (c *Config) MinLevel() Level {
	ret := c.defaultLevel
	for _, r := range c.rules {
		if r.level < ret {
			ret = r.level
		}
	}
	return ret
}

func (c *Config) LevelFor(loggerName string) Level {
	for _, r := range c.rules {
		if loggerName == r.name || strings.HasPrefix(loggerName, r.name+".") {
			return r.level
		}
	}
	return c.defaultLevel
}

func (c *Config) filter(entry zapcore.Entry, _ []zapcore.Field) bool {
	return entry.Level >= c.LevelFor(entry.LoggerName)
}

// Option returns a logger option which applies the per logger levels
func (c *Config) Option() Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapfilter.NewFilteringCore(core, c.filter)
	})
}
