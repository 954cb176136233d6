package core

// =============================================================================
// Database adapter records
// =============================================================================

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string            `koanf:"type" yaml:"type"`
	Path     string            `koanf:"path" yaml:"path,omitempty"`
	Host     string            `koanf:"host" yaml:"host,omitempty"`
	Port     int               `koanf:"port" yaml:"port,omitempty"`
	Database string            `koanf:"database" yaml:"database,omitempty"`
	Username string            `koanf:"username" yaml:"username,omitempty"`
	Password string            `koanf:"password" yaml:"-"`
	Schema   string            `koanf:"schema" yaml:"schema,omitempty"`
	Options  map[string]string `koanf:"options" yaml:"options,omitempty"`
	Params   map[string]any    `koanf:"params" yaml:"params,omitempty"`
}

// ColumnMetadata describes a column of a database table.
type ColumnMetadata struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []ColumnMetadata
	RowCount int64
}
