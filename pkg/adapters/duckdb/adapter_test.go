package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leapclean/internal/testutil"
	"github.com/leapstack-labs/leapclean/pkg/adapter"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectMemory(t *testing.T, params map[string]any) *Adapter {
	t.Helper()
	adp := New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:", Params: params}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	ctx := context.Background()

	t.Run("empty path is in-memory", func(t *testing.T) {
		adp := New(nil)
		require.NoError(t, adp.Connect(ctx, core.AdapterConfig{}))
		assert.True(t, adp.IsConnected())
		assert.NoError(t, adp.Close())
	})

	t.Run("file path creates the database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "warehouse.duckdb")
		adp := New(nil)
		require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: path}))
		defer func() { _ = adp.Close() }()
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("operations before connect", func(t *testing.T) {
		adp := New(nil)
		assert.ErrorIs(t, adp.Exec(ctx, "SELECT 1"), adapter.ErrNotConnected)
		_, err := adp.GetTableMetadata(ctx, "orders")
		assert.ErrorIs(t, err, adapter.ErrNotConnected)
		assert.NoError(t, adp.Close())
	})
}

func TestAdapter_Params(t *testing.T) {
	ctx := context.Background()

	t.Run("settings are applied", func(t *testing.T) {
		adp := connectMemory(t, map[string]any{"settings": map[string]any{"threads": 2}})
		rows, err := adp.Query(ctx, "SELECT current_setting('threads')")
		require.NoError(t, err)
		defer func() { _ = rows.Close() }()
		require.True(t, rows.Next())
		var threads string
		require.NoError(t, rows.Scan(&threads))
		assert.Equal(t, "2", threads)
	})

	tests := []struct {
		name   string
		params map[string]any
		errMsg string
	}{
		{"unknown key", map[string]any{"extensionz": []any{"json"}}, "invalid duckdb params"},
		{"setting name injection", map[string]any{"settings": map[string]any{"threads; DROP": "2"}}, "invalid duckdb setting name"},
		{"extension name injection", map[string]any{"extensions": []any{"json; DROP"}}, "invalid duckdb extension name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp := New(nil)
			err := adp.Connect(ctx, core.AdapterConfig{Path: ":memory:", Params: tt.params})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.False(t, adp.IsConnected())
		})
	}
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	ctx := context.Background()
	adp := connectMemory(t, nil)
	require.NoError(t, adp.Exec(ctx, "CREATE TABLE customers (id INTEGER, email VARCHAR)"))
	require.NoError(t, adp.Exec(ctx, "INSERT INTO customers VALUES (1, 'a@x.io'), (2, NULL)"))

	meta, err := adp.GetTableMetadata(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, int64(2), meta.RowCount)
	require.Len(t, meta.Columns, 2)
	assert.Equal(t, "email", meta.Columns[1].Name)
	assert.True(t, meta.Columns[1].Nullable)

	_, err = adp.GetTableMetadata(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAdapter_TableRoundTrip(t *testing.T) {
	ctx := context.Background()
	adp := New(testutil.NewTestLogger(t))

	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: filepath.Join(t.TempDir(), "out.duckdb")}))
	defer func() { _ = adp.Close() }()

	placed := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	tbl := core.MustTable(
		core.NewColumn("order_id", []any{"ORD-1", "ORD-2", "ORD-3"}),
		core.NewColumn("price", []any{10.5, nil, 3.0}),
		core.NewColumn("placed_at", []any{placed, placed, nil}),
		core.NewColumn("paid", []any{true, false, true}),
		core.NewColumn("meta", []any{map[string]any{"k": 1.0}, "x", nil}),
	)

	n, err := adapter.WriteTable(ctx, adp, tbl, "orders", adapter.WriteReplace)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = adapter.WriteTable(ctx, adp, tbl.Head(1), "orders", adapter.WriteAppend)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	meta, err := adp.GetTableMetadata(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(4), meta.RowCount)

	got, err := adapter.ReadTable(ctx, adp, `SELECT * FROM orders ORDER BY order_id, paid`)
	require.NoError(t, err)
	assert.Equal(t, tbl.ColumnNames(), got.ColumnNames())
	assert.Equal(t, 4, got.NumRows())

	price, _ := got.Column("price")
	assert.Equal(t, core.TypeNumeric, price.Type)
	assert.Equal(t, []any{10.5, 10.5, nil, 3.0}, price.Values)

	at, _ := got.Column("placed_at")
	assert.Equal(t, core.TypeDatetime, at.Type)
	require.IsType(t, time.Time{}, at.Values[0])
	assert.True(t, placed.Equal(at.Values[0].(time.Time)))

	m, _ := got.Column("meta")
	assert.Equal(t, []any{`{"k":1}`, `{"k":1}`, "x", nil}, m.Values)

	// replace drops earlier rows
	_, err = adapter.WriteTable(ctx, adp, tbl.Head(2), "orders", adapter.WriteReplace)
	require.NoError(t, err)
	meta, err = adp.GetTableMetadata(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.RowCount)
}

func TestBuildCreateSecretSQL(t *testing.T) {
	ssl := false
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "type only",
			cfg:  SecretConfig{Type: "s3"},
			want: "CREATE SECRET (\n    TYPE s3\n)",
		},
		{
			name: "object store with scope list",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "config",
				KeyID:    "cleaner",
				Secret:   "it's-secret",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				UseSSL:   &ssl,
				Scope:    []any{"s3://raw", "s3://clean"},
			},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER config,\n    SCOPE ('s3://raw', 's3://clean'),\n" +
				"    KEY_ID 'cleaner',\n    SECRET 'it''s-secret',\n    ENDPOINT 'localhost:9000',\n" +
				"    URL_STYLE 'path',\n    USE_SSL false\n)",
		},
		{
			name: "single scope string",
			cfg:  SecretConfig{Type: "gcs", Region: "eu", Scope: "gs://exports"},
			want: "CREATE SECRET (\n    TYPE gcs,\n    REGION 'eu',\n    SCOPE 'gs://exports'\n)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCreateSecretSQL(tt.cfg))
		})
	}
}
