package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix namespaces environment overrides: CHATTHING_WEB_SERVER_ADDR -> server.addr.
const EnvPrefix = "CHATTHING_WEB_"

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"addr":        "server.addr",
	"base-path":   "server.base_path",
	"content":     "content.path",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"log-file":    "log.file",
	"environment": "mode.environment",
	"policy":      "mode.policy",
	"max-views":   "views.max_views",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "listen address, e.g. :8080")
	fs.String("base-path", "", "path prefix the page is served under")
	fs.String("content", "", "content catalog YAML (embedded catalog when empty)")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("log-format", "", "log format (json, console)")
	fs.String("log-file", "", "also write JSON logs to this rotated file")
	fs.String("environment", "", "environment label, e.g. development or production")
	fs.String("policy", "", "contract violation policy (auto, strict, lenient)")
	fs.Int("max-views", 0, "maximum live page views kept in memory")
}

// Load reads configuration. Precedence, highest first: flags, environment,
// config file, defaults. A missing path is ignored; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns SECTION_SOME_KEY into section.some_key. Lists are comma separated.
func envKey(name, value string) (string, interface{}) {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, key, ok := strings.Cut(name, "_")
	if !ok || key == "" {
		return "", nil
	}
	path := section + "." + key
	if path == "cors.allowed_origins" {
		var origins []string
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		return path, origins
	}
	return path, value
}
