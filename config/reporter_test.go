package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func prepareReport(t *testing.T) *Report {
	t.Helper()
	conf := &ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("ReporterConfig.Prepare() error: %v", err)
	}
	return r
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open report archive: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open archive entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read archive entry %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_Archive(t *testing.T) {
	r := prepareReport(t)
	name := r.Name()
	if name == "" {
		t.Fatal("expected non-empty report name")
	}

	srcPath := filepath.Join(t.TempDir(), "source.gss")
	if err := os.WriteFile(srcPath, []byte(`.a { p: 1px }`), 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}

	r.Store("input/source.gss", srcPath)
	r.StoreData("output/source.expr", []byte(`(".a{p:1px}")`))

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	files := readArchive(t, name)
	if _, ok := files["MANIFEST"]; !ok {
		t.Error("archive has no MANIFEST")
	}
	if got := files["input/source.gss"]; got != `.a { p: 1px }` {
		t.Errorf("stored input = %q", got)
	}
	if got := files["output/source.expr"]; got != `(".a{p:1px}")` {
		t.Errorf("stored output = %q", got)
	}
}

func TestReport_StoreCopy(t *testing.T) {
	r := prepareReport(t)
	name := r.Name()

	srcPath := filepath.Join(t.TempDir(), "volatile.gss")
	if err := os.WriteFile(srcPath, []byte("before"), 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
	if err := r.StoreCopy("snapshot", srcPath); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}

	// change the original after the snapshot was taken
	if err := os.WriteFile(srcPath, []byte("after"), 0644); err != nil {
		t.Fatalf("failed to rewrite source file: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	files := readArchive(t, name)
	if got := files["snapshot"]; got != "before" {
		t.Errorf("snapshot = %q, want content at time of StoreCopy", got)
	}
}

func TestReport_StoreConflict(t *testing.T) {
	r := prepareReport(t)
	r.Store("final.log", "/tmp/a.log")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on conflicting Store")
		}
		r.Close()
	}()
	r.Store("final.log", "/tmp/b.log")
}

func TestReport_NilSafety(t *testing.T) {
	var r *Report

	r.Store("name", "path")
	r.StoreData("name", []byte("data"))
	if err := r.StoreCopy("name", "path"); err != nil {
		t.Errorf("StoreCopy on nil report should not error, got: %v", err)
	}
	if n := r.Name(); n != "" {
		t.Errorf("Name on nil report = %q", n)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReport_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
