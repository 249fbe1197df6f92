package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bankmerge/internal/analyze"
	"bankmerge/internal/schema"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTemplatesList(t *testing.T) {
	out, err := runCommand(t, "templates", "list")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "* "+schema.BuiltinTemplateName) {
		t.Errorf("builtin default not listed:\n%s", out)
	}
}

func TestTemplatesShow(t *testing.T) {
	out, err := runCommand(t, "templates", "show")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var tmpl schema.Template
	if err := json.Unmarshal([]byte(out), &tmpl); err != nil {
		t.Fatalf("output is not a template: %v\n%s", err, out)
	}
	if len(tmpl.Fields) != 16 {
		t.Errorf("fields = %d, want 16", len(tmpl.Fields))
	}
}

func TestTemplatesFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"templates": [{
			"name": "mini",
			"fields": [
				{"name": "when", "type": "date"},
				{"name": "id", "type": "int", "identifier": true}
			]
		}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", path, "templates", "list")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "mini") {
		t.Errorf("configured template missing:\n%s", out)
	}
}

func TestConfigErrorsAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"match": {"threshold": 5}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCommand(t, "--config", path, "templates", "list"); err == nil {
		t.Fatal("want error for invalid config")
	}
}

func TestAnalyzeCommand(t *testing.T) {
	csv := filepath.Join(t.TempDir(), "a.csv")
	if err := os.WriteFile(csv, []byte("日期,金额\n2021-06-10,100.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "analyze", csv)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var reports []*analyze.Report
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("output is not a report list: %v\n%s", err, out)
	}
	if len(reports) != 1 || reports[0].FileName != "a.csv" {
		t.Fatalf("reports = %+v", reports)
	}
	if len(reports[0].Columns) != 2 {
		t.Errorf("columns = %+v", reports[0].Columns)
	}
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"a=1", "b=x=y"}, "--set")
	if err != nil {
		t.Fatalf("parsePairs: %v", err)
	}
	if got["a"] != "1" || got["b"] != "x=y" {
		t.Errorf("pairs = %v", got)
	}
	if _, err := parsePairs([]string{"noequals"}, "--set"); err == nil {
		t.Error("want error for missing separator")
	}
	if m, err := parsePairs(nil, "--set"); err != nil || m != nil {
		t.Errorf("empty input = %v, %v", m, err)
	}
}
