package sink

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapclean/internal/config"
	"github.com/leapstack-labs/leapclean/internal/testutil"
	"github.com/leapstack-labs/leapclean/pkg/adapter"
	"github.com/leapstack-labs/leapclean/pkg/adapters/duckdb"
	"github.com/leapstack-labs/leapclean/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *core.Table {
	return testutil.NewTable(t,
		testutil.Col("id", 1.0, 2.0),
		testutil.Col("name", "a", nil),
		testutil.Col("meta", map[string]any{"k": 1.0}, "x"),
	)
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open("d", config.DestinationConfig{Type: "ftp"}, nil)
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "clean.csv")

	res, err := Write(context.Background(), "out", config.DestinationConfig{Type: config.DestinationCSV, Path: path},
		sampleTable(t), testutil.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, Result{Location: path, Rows: 2}, res)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name,meta\n1,a,\"{\"\"k\"\":1}\"\n2,,x\n", string(data))
}

func TestCSVWriter_Delimiter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.tsv")
	cfg := config.DestinationConfig{Type: config.DestinationCSV, Path: path, Options: map[string]any{"delimiter": "\t"}}

	tbl := testutil.NewTable(t, testutil.Col("a", 1.0), testutil.Col("b", true))
	_, err := Write(context.Background(), "tsv", cfg, tbl, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\tb\n1\ttrue\n", string(data))

	cfg.Options = map[string]any{"delimiter": ""}
	_, err = Open("tsv", cfg, nil)
	assert.True(t, core.IsConfigurationError(err))
}

func TestJSONWriter(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	tbl := testutil.NewTable(t,
		testutil.Col("id", 1.0, 2.0),
		testutil.Col("name", "a", nil),
		testutil.Col("at", ts, ts),
	)

	t.Run("array", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clean.json")
		_, err := Write(context.Background(), "out", config.DestinationConfig{Type: config.DestinationJSON, Path: path}, tbl, nil)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		want := `[
  {
    "id": 1,
    "name": "a",
    "at": "2024-03-01T10:30:00Z"
  },
  {
    "id": 2,
    "name": null,
    "at": "2024-03-01T10:30:00Z"
  }
]
`
		assert.Equal(t, want, string(data))
	})

	t.Run("lines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clean.jsonl")
		cfg := config.DestinationConfig{Type: config.DestinationJSON, Path: path, Options: map[string]any{"lines": true}}
		_, err := Write(context.Background(), "out", cfg, tbl, nil)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t,
			"{\"id\":1,\"name\":\"a\",\"at\":\"2024-03-01T10:30:00Z\"}\n"+
				"{\"id\":2,\"name\":null,\"at\":\"2024-03-01T10:30:00Z\"}\n",
			string(data))
	})

	t.Run("unknown option", func(t *testing.T) {
		_, err := Open("out", config.DestinationConfig{Type: config.DestinationJSON, Options: map[string]any{"orient": "records"}}, nil)
		assert.True(t, core.IsConfigurationError(err))
	})
}

func TestDatabaseWriter_DuckDB(t *testing.T) {
	ctx := context.Background()
	target := &core.AdapterConfig{Type: "duckdb", Path: filepath.Join(t.TempDir(), "warehouse.duckdb")}
	cfg := config.DestinationConfig{Type: config.DestinationDatabase, Table: "clean_orders", Mode: "append", Target: target}
	tbl := testutil.NewTable(t,
		testutil.Col("order_id", "ORD-1", "ORD-2"),
		testutil.Col("price", 10.0, nil),
	)

	for i := 0; i < 2; i++ {
		res, err := Write(ctx, "wh", cfg, tbl, testutil.NewTestLogger(t))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Rows)
		assert.Equal(t, "duckdb:clean_orders", res.Location)
	}

	db := duckdb.New(nil)
	require.NoError(t, db.Connect(ctx, *target))
	defer func() { _ = db.Close() }()

	got, err := adapter.ReadTable(ctx, db, "SELECT order_id, price FROM clean_orders ORDER BY order_id")
	require.NoError(t, err)
	assert.Equal(t, 4, got.NumRows())
	assert.Equal(t, []any{"ORD-1", "ORD-1", "ORD-2", "ORD-2"}, testutil.Values(t, got, "order_id"))
	assert.Equal(t, []any{10.0, 10.0, nil, nil}, testutil.Values(t, got, "price"))

	// Replace drops the earlier rows
	cfg.Mode = ""
	_, err = Write(ctx, "wh", cfg, tbl, nil)
	require.NoError(t, err)
	meta, err := db.GetTableMetadata(ctx, "clean_orders")
	require.NoError(t, err)
	assert.EqualValues(t, 2, meta.RowCount)
}

// mockAdapter is a duckdb-flavored adapter over a sqlmock connection.
type mockAdapter struct {
	adapter.BaseSQLAdapter
}

func (m *mockAdapter) Connect(context.Context, core.AdapterConfig) error { return nil }

func (m *mockAdapter) GetTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	return m.GetTableMetadataCommon(ctx, table, duckdb.Dialect)
}

func (m *mockAdapter) Dialect() *adapter.Dialect { return duckdb.Dialect }

func TestDatabaseWriter_SQL(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	w, err := Open("wh", config.DestinationConfig{
		Type:   config.DestinationDatabase,
		Table:  "staging.orders",
		Target: &core.AdapterConfig{Type: "duckdb"},
	}, nil)
	require.NoError(t, err)
	dbw := w.(*databaseWriter)
	dbw.open = func(context.Context, core.AdapterConfig, *slog.Logger) (adapter.Adapter, error) {
		return &mockAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db}}, nil
	}

	mock.ExpectExec(`DROP TABLE IF EXISTS "staging"."orders"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "staging"."orders" ("id" DOUBLE, "name" VARCHAR, "meta" VARCHAR)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "staging"."orders" ("id", "name", "meta") VALUES (?, ?, ?), (?, ?, ?)`).
		WithArgs(1.0, "a", `{"k":1}`, 2.0, nil, "x").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectClose()

	res, err := w.Write(context.Background(), sampleTable(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseWriter_Errors(t *testing.T) {
	_, err := Open("wh", config.DestinationConfig{Type: config.DestinationDatabase, Table: "t"}, nil)
	assert.True(t, core.IsConfigurationError(err))

	w, err := Open("wh", config.DestinationConfig{
		Type:   config.DestinationDatabase,
		Table:  "t",
		Target: &core.AdapterConfig{Type: "duckdb"},
	}, nil)
	require.NoError(t, err)
	w.(*databaseWriter).open = func(context.Context, core.AdapterConfig, *slog.Logger) (adapter.Adapter, error) {
		return nil, errors.New("connection refused")
	}
	_, err = w.Write(context.Background(), sampleTable(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	w.(*databaseWriter).open = func(context.Context, core.AdapterConfig, *slog.Logger) (adapter.Adapter, error) {
		return &mockAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db}}, nil
	}
	mock.ExpectExec("DROP TABLE").WillReturnError(sql.ErrConnDone)
	_, err = w.Write(context.Background(), sampleTable(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write table t")
}

func TestS3Writer_Config(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DestinationConfig
		wantKey string
	}{
		{name: "no bucket", cfg: config.DestinationConfig{Endpoint: "localhost:9000"}, wantKey: "destinations.lake.bucket"},
		{name: "no endpoint", cfg: config.DestinationConfig{Bucket: "b"}, wantKey: "destinations.lake.endpoint"},
		{name: "bad format", cfg: config.DestinationConfig{Bucket: "b", Endpoint: "localhost:9000", Format: "parquet"}, wantKey: "destinations.lake.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Type = config.DestinationS3
			_, err := Open("lake", tt.cfg, nil)
			var ce *core.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.wantKey, ce.Key)
		})
	}
}

func TestS3Writer_ObjectKey(t *testing.T) {
	w, err := Open("lake", config.DestinationConfig{
		Type:     config.DestinationS3,
		Bucket:   "data",
		Prefix:   "processed",
		Endpoint: "https://s3.example.com",
		Format:   "json",
	}, nil)
	require.NoError(t, err)

	s3w := w.(*s3Writer)
	ts := time.Date(2024, 11, 29, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "processed/lake/year=2024/month=11/day=29/lake_20241129_080509.json", s3w.objectKey(ts))
	assert.Equal(t, "s3.example.com", s3w.client.EndpointURL().Host)
	assert.Equal(t, "https", s3w.client.EndpointURL().Scheme)
}

// fakeS3 is a minimal S3 endpoint: every bucket exists and PUT stores the body.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.objects[r.URL.Path] = string(body)
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestS3Writer_Upload(t *testing.T) {
	fake := &fakeS3{objects: make(map[string]string)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	w, err := Open("orders", config.DestinationConfig{
		Type:            config.DestinationS3,
		Bucket:          "clean",
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	s3w := w.(*s3Writer)
	s3w.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	res, err := w.Write(context.Background(), sampleTable(t))
	require.NoError(t, err)
	assert.Equal(t, "s3://clean/orders/year=2024/month=01/day=02/orders_20240102_030405.csv", res.Location)
	assert.Equal(t, 2, res.Rows)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	body, ok := fake.objects["/clean/orders/year=2024/month=01/day=02/orders_20240102_030405.csv"]
	require.True(t, ok, "object not uploaded: %v", fake.objects)
	assert.True(t, strings.Contains(body, "id,name,meta"), body)
}
