package adapter_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leapclean/pkg/adapter"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapclean/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapclean/pkg/adapters/postgres"
)

func TestNames(t *testing.T) {
	names := adapter.Names()
	assert.Contains(t, names, "duckdb")
	assert.Contains(t, names, "postgres")
	assert.IsIncreasing(t, names)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"duckdb", true},
		{"DuckDB", true},
		{"postgres", true},
		{"oracle", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := adapter.Lookup(tt.name)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.NotNil(t, f)
			}
		})
	}
}

func TestRegister_Replaces(t *testing.T) {
	var calls int
	adapter.Register("Registry_Probe", func(*slog.Logger) adapter.Adapter {
		calls++
		return nil
	})
	f, ok := adapter.Lookup("registry_probe")
	require.True(t, ok)
	f(nil)
	assert.Equal(t, 1, calls)
}

func TestNew(t *testing.T) {
	t.Run("missing type", func(t *testing.T) {
		_, err := adapter.New(core.AdapterConfig{}, nil)
		assert.ErrorIs(t, err, adapter.ErrNoAdapterType)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := adapter.New(core.AdapterConfig{Type: "oracle"}, nil)
		var unknown *adapter.UnknownAdapterError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "oracle", unknown.Type)
		assert.Contains(t, unknown.Available, "duckdb")
		assert.Contains(t, err.Error(), "leapclean.yaml")
	})

	t.Run("known type is not connected", func(t *testing.T) {
		a, err := adapter.New(core.AdapterConfig{Type: "duckdb"}, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, a.Exec(context.Background(), "SELECT 1"), adapter.ErrNotConnected)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	a, err := adapter.Open(ctx, core.AdapterConfig{Type: "duckdb", Path: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	tbl, err := adapter.ReadTable(ctx, a, "SELECT 42 AS answer")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows())

	_, err = adapter.Open(ctx, core.AdapterConfig{Type: "duckdb", Params: map[string]any{"bogus": true}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to duckdb")
}
