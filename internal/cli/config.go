package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults for settings that are neither in the config file, the
// environment nor on the command line.
const (
	DefaultSchemaDir  = "schema"
	DefaultCatalog    = ".pgshape/catalog.db"
	DefaultBaseURL    = "http://localhost:3000"
	DefaultFormat     = "text"
	DefaultGenPackage = "shapes"
	DefaultGenOut     = "shapes"
	DefaultDepth      = 2

	envPrefix = "PGSHAPE_"
)

// Config is the merged pgshape configuration.
type Config struct {
	Schema  string    `koanf:"schema"`   // CUE schema directory
	Catalog string    `koanf:"catalog"`  // SQLite shape catalog
	BaseURL string    `koanf:"base_url"` // PostgREST endpoint for request --execute
	Format  string    `koanf:"format"`
	Verbose bool      `koanf:"verbose"`
	Depth   int       `koanf:"depth"` // relationship bound for path enumeration
	Gen     GenConfig `koanf:"gen"`

	// File is the config file that was read, empty when none was.
	File string `koanf:"-"`
}

// GenConfig configures code generation.
type GenConfig struct {
	Package string `koanf:"package"`
	Out     string `koanf:"out"`
	Workers int    `koanf:"workers"` // 0 means GOMAXPROCS
}

// flagKeys maps flag names to config keys. Flags not listed are command
// options and never reach the config.
var flagKeys = map[string]string{
	"schema":   "schema",
	"catalog":  "catalog",
	"base-url": "base_url",
	"format":   "format",
	"verbose":  "verbose",
	"depth":    "depth",
	"package":  "gen.package",
	"out":      "gen.out",
	"workers":  "gen.workers",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > pgshape.yaml > pgshape.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"pgshape.yaml", "pgshape.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey turns PGSHAPE_BASE_URL into base_url and PGSHAPE_GEN__OUT into
// gen.out.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig merges configuration from defaults, the config file,
// PGSHAPE_ environment variables and explicitly set flags, in increasing
// priority. Relative paths from the config file are resolved against the
// file's directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"schema":      DefaultSchemaDir,
		"catalog":     DefaultCatalog,
		"base_url":    DefaultBaseURL,
		"format":      DefaultFormat,
		"verbose":     false,
		"depth":       DefaultDepth,
		"gen.package": DefaultGenPackage,
		"gen.out":     DefaultGenOut,
		"gen.workers": 0,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		fileConf := koanf.New(".")
		if err := fileConf.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
		base := filepath.Dir(used)
		for _, key := range []string{"schema", "catalog", "gen.out"} {
			if p := fileConf.String(key); p != "" {
				if err := fileConf.Set(key, resolvePathRelativeTo(p, base)); err != nil {
					return nil, fmt.Errorf("error resolving %s: %w", key, err)
				}
			}
		}
		if err := k.Merge(fileConf); err != nil {
			return nil, fmt.Errorf("error merging config file %s: %w", used, err)
		}
	}

	// 3. Environment
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those set explicitly
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if !isValidFormat(cfg.Format) {
		return nil, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
	}
	if cfg.Depth < 0 {
		return nil, fmt.Errorf("invalid depth %d: must not be negative", cfg.Depth)
	}
	if cfg.Gen.Workers < 0 {
		return nil, fmt.Errorf("invalid gen.workers %d: must not be negative", cfg.Gen.Workers)
	}
	return &cfg, nil
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
