package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/spf13/pflag"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "leapclean.yaml"
	ConfigFileNameAlt = "leapclean.yml"
)

// EnvPrefix prefixes environment overrides. A double underscore separates nesting levels:
// LEAPCLEAN_TRANSFORM__OUTLIERS__METHOD sets transform.outliers.method.
const EnvPrefix = "LEAPCLEAN_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps CLI flag names to config keys where they differ from snake_case.
var flagKeys = map[string]string{
	"state":      "state_path",
	"env":        "pipeline.environment",
	"log-level":  "logging.level",
	"log-format": "logging.format",
	"report":     "transform.reporting.output_path",
}

// configExistsIn returns the config file in dir, or "" if there is none.
func configExistsIn(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigFile searches upward from startDir for a leapclean config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigFile(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load reads configuration from defaults, the config file, environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// An explicit cfgFile must exist; otherwise leapclean.yaml is searched upward from the
// working directory and its absence is not an error.
// The returned Config has been validated.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	if cfgFile == "" {
		cfgFile = findConfigFile(cwd)
	} else if _, err := os.Stat(cfgFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
	}
	projectRoot := cwd
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if abs, err := filepath.Abs(cfgFile); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment variables
	// Transform: LEAPCLEAN_TRANSFORM__MISSING_VALUES__THRESHOLD -> transform.missing_values.threshold
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	flagPaths := make(map[string]bool)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			flagPaths[key] = true
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Decode strictly
	cfg, err := decode(k)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = cfgFile
	cfg.ProjectRoot = projectRoot

	// 6. Resolve paths and expand secrets
	// Paths given as flags are relative to the working directory, all others to the project root.
	base := func(key string) string {
		if flagPaths[key] {
			return cwd
		}
		return projectRoot
	}
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, base("state_path"))
	cfg.Transform.Reporting.OutputPath = resolvePathRelativeTo(cfg.Transform.Reporting.OutputPath, base("transform.reporting.output_path"))
	for name, src := range cfg.Sources {
		src.Path = resolvePathRelativeTo(src.Path, projectRoot)
		expandTargetEnvVars(src.Target, projectRoot)
		cfg.Sources[name] = src
	}
	for name, dst := range cfg.Destinations {
		dst.Path = resolvePathRelativeTo(dst.Path, projectRoot)
		dst.AccessKeyID = expandEnvVars(dst.AccessKeyID)
		dst.SecretAccessKey = expandEnvVars(dst.SecretAccessKey)
		expandTargetEnvVars(dst.Target, projectRoot)
		cfg.Destinations[name] = dst
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode unmarshals k into a Config, rejecting keys no field accepts.
func decode(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	var md mapstructure.Metadata
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Metadata:         &md,
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return nil, &core.ConfigurationError{Reason: fmt.Sprintf("unable to decode config: %v", err)}
	}
	if unused := unknownKeys(md.Unused); len(unused) > 0 {
		return nil, &core.ConfigurationError{
			Key:    unused[0],
			Reason: "unknown configuration key",
		}
	}
	return &cfg, nil
}

// unknownKeys normalizes and sorts the keys no field accepted.
// Free-form maps (options, params) accept anything and never leave keys over.
func unknownKeys(unused []string) []string {
	out := make([]string, 0, len(unused))
	for _, key := range unused {
		out = append(out, strings.ToLower(key))
	}
	sort.Strings(out)
	return out
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, already absolute, or ":memory:".
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandTargetEnvVars expands environment variables in connection fields,
// lowercases the adapter type and anchors file database paths at the project root.
func expandTargetEnvVars(t *core.AdapterConfig, projectRoot string) {
	if t == nil {
		return
	}
	t.Type = strings.ToLower(t.Type)
	t.Password = expandEnvVars(t.Password)
	t.Username = expandEnvVars(t.Username)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
	t.Path = resolvePathRelativeTo(expandEnvVars(t.Path), projectRoot)
}
