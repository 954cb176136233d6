// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/leapclean/internal/cli/output"
)

// ProjectConfig is the leapclean.yaml written by SetupTestProject.
const ProjectConfig = `pipeline:
  name: sales_etl
  environment: test
sources:
  web_orders:
    type: csv
    path: data/orders.csv
  mobile_orders:
    type: json
    path: data/orders.json
  archive:
    type: csv
    path: data/archive.csv
    enabled: false
transform:
  reporting:
    output_path: reports/quality.txt
destinations:
  clean_csv:
    type: csv
    path: output/clean.csv
  clean_json:
    type: json
    path: output/clean.json
    options:
      lines: true
state_path: .leapclean/state.db
`

const ordersCSV = `order_id,customer_name,email,price,quantity,status
1001,alice smith,ALICE@EXAMPLE.COM,$10.00,2,shippd
1001,alice smith,ALICE@EXAMPLE.COM,$10.00,2,shippd
1002,bob jones,bob@example.com,$5.50,-1,pending
1003,dana white,dana@example.com,"$1,200.00",1,deliverd
`

const ordersJSON = `[
  {"order_id": "order 2001", "customer_name": "CAROL KING", "email": "carol@example.com", "price": 20, "quantity": 1, "status": "complete"},
  {"order_id": "#2002", "customer_name": "erin brown", "email": "erin@example.com", "price": 7.25, "quantity": 3, "status": "pndng"}
]
`

// SetupTestProject creates a temporary project with a config file and two sources.
// It returns the project directory.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		t.Fatalf("failed to create data directory: %v", err)
	}

	files := map[string]string{
		"leapclean.yaml":   ProjectConfig,
		"data/orders.csv":  ordersCSV,
		"data/orders.json": ordersJSON,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return dir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
