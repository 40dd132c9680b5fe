// Package config loads CLI settings from an optional config file, a .env
// file and BLOCKSTRINGS_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/valpere/blockstrings/internal/attribute"
	"github.com/valpere/blockstrings/internal/parser"
)

const envPrefix = "BLOCKSTRINGS"

// ParserConfig overrides or adds the parser used for one block name.
type ParserConfig struct {
	Tags            []string `mapstructure:"tags"`
	Attributes      []string `mapstructure:"attributes"`
	MinStringLength int      `mapstructure:"min_string_length"`
	// Regex lets tag names written as /pattern/ through unescaped.
	Regex bool `mapstructure:"regex"`
	// BlockAttributes are block attributes read as candidates in addition
	// to the "placeholder" attribute.
	BlockAttributes []string `mapstructure:"block_attributes"`
}

type Config struct {
	DB              string                  `mapstructure:"db"`
	Locale          string                  `mapstructure:"locale"`
	MinStringLength int                     `mapstructure:"min_string_length"`
	Parsers         map[string]ParserConfig `mapstructure:"parsers"`
}

// Load reads configuration. path may be empty, in which case only defaults,
// .env and the environment apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("db", "./data/blockstrings.db")
	v.SetDefault("locale", "")
	v.SetDefault("min_string_length", 0)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.MinStringLength < 0 {
		return nil, fmt.Errorf("min_string_length must be non-negative, got %d", cfg.MinStringLength)
	}
	if cfg.Locale != "" {
		if _, err := ParseLocale(cfg.Locale); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// ParseLocale validates a BCP 47 tag such as "uk" or "pt-BR" and returns it
// in canonical form.
func ParseLocale(s string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return tag.String(), nil
}

// Registry returns the default parser registry with cfg.Parsers applied on
// top. A global MinStringLength applies to every parser that leaves its own
// at zero.
func (c *Config) Registry() *parser.Registry {
	r := parser.DefaultRegistry()
	if c.MinStringLength > 0 {
		for _, name := range r.Names() {
			bp, _ := r.Lookup(name)
			if hp, ok := bp.(*parser.HTMLParser); ok && hp.MinStringLength == 0 {
				cp := *hp
				cp.MinStringLength = c.MinStringLength
				r.Register(name, &cp)
			}
		}
	}
	for name, pc := range c.Parsers {
		minLen := pc.MinStringLength
		if minLen == 0 {
			minLen = c.MinStringLength
		}

		var opts []parser.Option
		if len(pc.BlockAttributes) > 0 {
			acc := attribute.Multi{attribute.Placeholder}
			acc = append(acc, attribute.Attributes(pc.BlockAttributes...)...)
			opts = append(opts, parser.WithPlaceholder(acc))
		}

		if pc.Regex {
			r.Register(name, parser.NewRegex(pc.Tags, pc.Attributes, minLen, opts...))
		} else {
			r.Register(name, parser.New(pc.Tags, pc.Attributes, minLen, opts...))
		}
	}
	return r
}
