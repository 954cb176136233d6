package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapclean/pkg/adapter"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	outputs    = []string{OutputAuto, OutputText, OutputJSON}
	writeModes = []string{string(adapter.WriteReplace), string(adapter.WriteAppend)}
	objFormats = []string{"csv", "json"}
)

// Validate checks the configuration for values no component accepts.
// It does not require any source or destination; see RequireRunnable.
func (c *Config) Validate() error {
	if err := c.Transform.Validate(); err != nil {
		var ce *core.ConfigurationError
		if errors.As(err, &ce) {
			return &core.ConfigurationError{Key: "transform." + ce.Key, Value: ce.Value, Reason: ce.Reason}
		}
		return err
	}
	if c.Pipeline.Name == "" {
		return &core.ConfigurationError{Key: "pipeline.name", Reason: "is required"}
	}
	if err := oneOf("logging.level", strings.ToLower(c.Logging.Level), logLevels); err != nil {
		return err
	}
	if err := oneOf("logging.format", c.Logging.Format, logFormats); err != nil {
		return err
	}
	if err := oneOf("output", c.Output, outputs); err != nil {
		return err
	}

	for _, name := range c.SourceNames() {
		if err := c.Sources[name].validate("sources." + name); err != nil {
			return err
		}
	}
	for _, name := range c.DestinationNames() {
		if err := c.Destinations[name].validate("destinations." + name); err != nil {
			return err
		}
	}
	return nil
}

// RequireRunnable checks that at least one source and one destination are enabled.
func (c *Config) RequireRunnable() error {
	if len(c.EnabledSources()) == 0 {
		return &core.ConfigurationError{Key: "sources", Reason: "at least one enabled source is required"}
	}
	if len(c.EnabledDestinations()) == 0 {
		return &core.ConfigurationError{Key: "destinations", Reason: "at least one enabled destination is required"}
	}
	return nil
}

func (s SourceConfig) validate(key string) error {
	if err := oneOf(key+".type", s.Type, SourceTypes); err != nil {
		return err
	}
	switch s.Type {
	case SourceDatabase:
		if s.Query == "" {
			return &core.ConfigurationError{Key: key + ".query", Reason: "is required for database sources"}
		}
		return validateTarget(key+".target", s.Target)
	default:
		if s.Path == "" {
			return &core.ConfigurationError{Key: key + ".path", Reason: fmt.Sprintf("is required for %s sources", s.Type)}
		}
	}
	return nil
}

func (d DestinationConfig) validate(key string) error {
	if err := oneOf(key+".type", d.Type, DestinationTypes); err != nil {
		return err
	}
	switch d.Type {
	case DestinationDatabase:
		if d.Table == "" {
			return &core.ConfigurationError{Key: key + ".table", Reason: "is required for database destinations"}
		}
		if d.Mode != "" {
			if err := oneOf(key+".mode", d.Mode, writeModes); err != nil {
				return err
			}
		}
		return validateTarget(key+".target", d.Target)
	case DestinationS3:
		if d.Bucket == "" {
			return &core.ConfigurationError{Key: key + ".bucket", Reason: "is required for s3 destinations"}
		}
		if d.Endpoint == "" {
			return &core.ConfigurationError{Key: key + ".endpoint", Reason: "is required for s3 destinations"}
		}
		if d.Format != "" {
			return oneOf(key+".format", d.Format, objFormats)
		}
	default:
		if d.Path == "" {
			return &core.ConfigurationError{Key: key + ".path", Reason: fmt.Sprintf("is required for %s destinations", d.Type)}
		}
	}
	return nil
}

// validateTarget checks a database connection against the adapter registry.
func validateTarget(key string, t *core.AdapterConfig) error {
	if t == nil || t.Type == "" {
		return &core.ConfigurationError{Key: key + ".type", Reason: "is required"}
	}
	if _, ok := adapter.Lookup(t.Type); !ok {
		return &core.ConfigurationError{
			Key:    key + ".type",
			Value:  t.Type,
			Reason: "must be one of " + strings.Join(adapter.Names(), ", "),
		}
	}
	return nil
}

func oneOf(key, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return &core.ConfigurationError{
		Key:    key,
		Value:  value,
		Reason: "must be one of " + strings.Join(allowed, ", "),
	}
}
