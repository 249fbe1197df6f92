package reader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenCSVHeaders(t *testing.T) {
	path := writeCSV(t, "\uFEFF 日期 ,金额,摘要\n20210610,100,工资\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	hdr := r.Headers()
	want := []string{"日期", "金额", "摘要"}
	if len(hdr) != len(want) {
		t.Fatalf("headers = %v", hdr)
	}
	for i := range want {
		if hdr[i] != want[i] {
			t.Errorf("header[%d] = %q, want %q (BOM/whitespace not normalized)", i, hdr[i], want[i])
		}
	}
}

func TestCSVReadAll(t *testing.T) {
	path := writeCSV(t, "a,b\n1,2\n3,4\n5,\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rows, err := r.Read(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0]["a"].Text() != "1" || rows[1]["b"].Text() != "4" {
		t.Errorf("cell values wrong: %v", rows)
	}
	if !rows[2]["b"].IsBlank() {
		t.Error("empty cell should read as null")
	}
}

func TestCSVReadWindow(t *testing.T) {
	path := writeCSV(t, "a\n1\n2\n3\n4\n5\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	rows, err := r.Read(ctx, 2, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 2 || rows[0]["a"].Text() != "3" || rows[1]["a"].Text() != "4" {
		t.Errorf("window = %v", rows)
	}

	// Windows are independently re-readable.
	again, err := r.Read(ctx, 2, 2)
	if err != nil {
		t.Fatalf("re-Read: %v", err)
	}
	if len(again) != 2 || again[0]["a"].Text() != "3" {
		t.Errorf("re-read window = %v", again)
	}

	// Offset past the end yields nothing.
	empty, err := r.Read(ctx, 99, 10)
	if err != nil {
		t.Fatalf("Read past end: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("past-end window = %v", empty)
	}
}

func TestCSVRaggedRows(t *testing.T) {
	path := writeCSV(t, "a,b,c\n1,2,3,EXTRA\n4,5\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	rows, err := r.Read(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if _, ok := rows[0]["EXTRA"]; ok {
		t.Error("extra cell leaked past the headers")
	}
	if !rows[1]["c"].IsBlank() {
		t.Error("short row should pad with null")
	}
}

func TestOpenUnsupported(t *testing.T) {
	if _, err := Open("statement.pdf"); err == nil {
		t.Fatal("want error for unsupported extension")
	}
}

func TestCSVContextCancel(t *testing.T) {
	path := writeCSV(t, "a\n1\n2\n")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Read(ctx, 0, 0); err == nil {
		t.Fatal("want context error")
	}
}
