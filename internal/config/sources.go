package config

import "sort"

// SourceNames returns every configured source name, sorted.
// Sorted order is the extraction and merge order.
func (c *Config) SourceNames() []string {
	return sortedKeys(c.Sources)
}

// DestinationNames returns every configured destination name, sorted.
func (c *Config) DestinationNames() []string {
	return sortedKeys(c.Destinations)
}

// EnabledSources returns the names of enabled sources, sorted.
func (c *Config) EnabledSources() []string {
	var out []string
	for _, name := range c.SourceNames() {
		if c.Sources[name].IsEnabled() {
			out = append(out, name)
		}
	}
	return out
}

// EnabledDestinations returns the names of enabled destinations, sorted.
func (c *Config) EnabledDestinations() []string {
	var out []string
	for _, name := range c.DestinationNames() {
		if c.Destinations[name].IsEnabled() {
			out = append(out, name)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
