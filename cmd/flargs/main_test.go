//nolint:testpackage // using package name 'main' to access unexported fields for testing
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dzonerzy/flargs/console"
	"github.com/dzonerzy/flargs/schemafile"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const toolSchema = `name: tool
version: 1.2.3
help: true
flags:
  - {name: verbose, type: boolean}
commands:
  - name: build
    aliases: [b]
    description: Compile the project.
    flags:
      - {name: jobs, short: j, type: number, default: 1}
      - {name: target, required: true}
    params:
      - {name: dir, default: "."}
  - name: serve
    flags:
      - {name: port, type: number, array: true}
`

type runResult struct {
	code   int
	stdout string
	stderr string
}

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.yaml")
	if err := os.WriteFile(path, []byte(toolSchema), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, argv ...string) runResult {
	t.Helper()
	var out, errOut bytes.Buffer
	term := console.New().WithOut(&out).WithErr(&errOut).NoColor()
	code := run(context.Background(), argv, term)
	return runResult{code: code, stdout: out.String(), stderr: errOut.String()}
}

func TestParse_JSON(t *testing.T) {
	schema := writeSchema(t)
	res := runCLI(t, "--schema", schema, "parse", "--", "build", "--target", "x", "-j", "3", "src", "extra")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}

	var got struct {
		Path   []string       `json:"path"`
		Flags  map[string]any `json:"flags"`
		Params map[string]any `json:"params"`
		Args   []string       `json:"args"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
	}

	if diff := cmp.Diff([]string{"tool", "build"}, got.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}
	if got.Flags["jobs"] != 3.0 || got.Flags["target"] != "x" {
		t.Errorf("unexpected flags %v", got.Flags)
	}
	if got.Params["dir"] != "src" {
		t.Errorf("unexpected params %v", got.Params)
	}
	if diff := cmp.Diff([]string{"extra"}, got.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_YAMLNested(t *testing.T) {
	schema := writeSchema(t)
	res := runCLI(t, "-s", schema, "parse", "-f", "yaml", "--nested", "--", "--verbose", "serve", "--port", "80", "--port", "443")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}

	var got map[string]any
	if err := yaml.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, res.stdout)
	}
	want := map[string]any{
		"program": map[string]any{
			"tool": map[string]any{
				"_":     map[string]any{"verbose": true},
				"serve": map[string]any{"_": map[string]any{"port": []any{80, 443}}},
			},
		},
		"_": map[string]any{"verbose": true, "port": []any{80, 443}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nested output mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	schema := writeSchema(t)

	tests := []struct {
		name     string
		argv     []string
		wantCode int
		wantErr  string
	}{
		{
			name:     "unknown flag",
			argv:     []string{"--schema", schema, "parse", "--", "build", "--jobz", "2"},
			wantCode: 2,
			wantErr:  "Did you mean '--jobs'?",
		},
		{
			name:     "strict missing",
			argv:     []string{"--schema", schema, "parse", "--strict", "--", "build"},
			wantCode: 2,
			wantErr:  "missing required flag '--target' for command 'tool.build'",
		},
		{
			name:     "bad number",
			argv:     []string{"--schema", schema, "parse", "--", "build", "-j", "many"},
			wantCode: 2,
			wantErr:  "Error:",
		},
		{
			name:     "bad output format",
			argv:     []string{"--schema", schema, "parse", "--format", "xml", "--", "build"},
			wantCode: 3,
			wantErr:  `unsupported --format "xml"`,
		},
		{
			name:     "schema file missing",
			argv:     []string{"--schema", filepath.Join(t.TempDir(), "none.yaml"), "tree"},
			wantCode: 3,
			wantErr:  "file validation failed for flag 'schema'",
		},
		{
			name:     "schema flag missing",
			argv:     []string{"tree"},
			wantCode: 2,
			wantErr:  "missing required flag '--schema'",
		},
		{
			name:     "bad log level",
			argv:     []string{"--schema", schema, "--log-level", "loud", "tree"},
			wantCode: 3,
			wantErr:  "invalid --log-level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.argv...)
			if res.code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", res.code, tt.wantCode, res.stderr)
			}
			if !strings.Contains(res.stderr, tt.wantErr) {
				t.Errorf("stderr %q does not contain %q", res.stderr, tt.wantErr)
			}
		})
	}
}

func TestCheck_Summary(t *testing.T) {
	res := runCLI(t, "--schema", writeSchema(t), "check")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "[SUCCESS] tool: 3 commands, 6 flags, 1 params") {
		t.Errorf("unexpected summary %q", res.stdout)
	}
}

func TestCheck_Normalized(t *testing.T) {
	schema := writeSchema(t)
	res := runCLI(t, "--schema", schema, "check", "--format", "toml")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}

	decoded, err := schemafile.Decode(strings.NewReader(res.stdout), schemafile.FormatTOML)
	if err != nil {
		t.Fatalf("normalized schema does not decode: %v\n%s", err, res.stdout)
	}
	original, err := schemafile.Load(schema)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(schemafile.FromCommand(original), decoded); diff != "" {
		t.Errorf("normalized schema differs (-want +got):\n%s", diff)
	}
}

func TestTree(t *testing.T) {
	res := runCLI(t, "--schema", writeSchema(t), "tree")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}

	want := `tool v1.2.3
  --version, -v boolean
  --help, -h boolean
  --verbose boolean
  build (b)  Compile the project.
    --jobs, -j number
    --target string required
    [dir] string
  serve
    --port number...
`
	if diff := cmp.Diff(want, res.stdout); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestVersionWithoutSchema(t *testing.T) {
	res := runCLI(t, "--version")
	if res.code != 0 || res.stdout != "flargs "+version+"\n" {
		t.Errorf("unexpected version output: code %d, %q", res.code, res.stdout)
	}
}

func TestLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "flargs.log")
	res := runCLI(t, "--schema", writeSchema(t), "--log-level", "debug", "--log-file", logPath, "tree")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "[DEBUG]") || !strings.Contains(string(data), "schema loaded") {
		t.Errorf("unexpected log file contents %q", data)
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		argv       []string
		own, after []string
	}{
		{[]string{"parse"}, []string{"parse"}, nil},
		{[]string{"parse", "--", "a", "--", "b"}, []string{"parse"}, []string{"a", "--", "b"}},
		{[]string{"--"}, []string{}, []string{}},
	}

	for _, tt := range tests {
		own, after := splitArgs(tt.argv)
		if diff := cmp.Diff(tt.own, own); diff != "" {
			t.Errorf("own args for %q (-want +got):\n%s", tt.argv, diff)
		}
		if diff := cmp.Diff(tt.after, after); diff != "" {
			t.Errorf("target args for %q (-want +got):\n%s", tt.argv, diff)
		}
	}
}
