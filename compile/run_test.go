package compile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"gssc/config"
	"gssc/state"
)

func testEnv() *state.LocalEnv {
	return &state.LocalEnv{
		Cfg: &config.Config{
			Version: 1,
			Compiler: config.CompilerConfig{
				ConcatLimit:     20,
				OutputExtension: ".expr",
			},
		},
		Log: zap.NewNop(),
	}
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "simple.gss", `
		@if (eval("x")) { .a { p: 1px } }
		@else { .a { p: 2px } }
		.b { w: 1px }
	`)

	env := testEnv()
	if err := compileFile(src, env, env.Log); err != nil {
		t.Fatalf("compileFile() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "simple.expr"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}

	want := `((x) ? (".a{p:1px}") : (".a{p:2px}")) + (".b{w:1px}")` + "\n"
	if string(data) != want {
		t.Errorf("compiled output = %q, want %q", string(data), want)
	}
}

func TestCompileFile_ExplicitOut(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "in.gss", `.a { p: 1px }`)

	env := testEnv()
	env.Out = filepath.Join(dir, "result.txt")
	if err := compileFile(src, env, env.Log); err != nil {
		t.Fatalf("compileFile() error = %v", err)
	}

	if _, err := os.Stat(env.Out); err != nil {
		t.Errorf("explicit output not written: %v", err)
	}
}

func TestCompileFile_OverwriteGuard(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "guarded.gss", `.a { p: 1px }`)
	writeSource(t, dir, "guarded.expr", "old content")

	env := testEnv()
	err := compileFile(src, env, env.Log)
	if err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Fatalf("expected overwrite guard error, got %v", err)
	}

	// untouched without --overwrite
	data, _ := os.ReadFile(filepath.Join(dir, "guarded.expr"))
	if string(data) != "old content" {
		t.Errorf("existing output was overwritten: %q", string(data))
	}

	env.Overwrite = true
	if err := compileFile(src, env, env.Log); err != nil {
		t.Fatalf("compileFile() with overwrite error = %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "guarded.expr"))
	if string(data) != `(".a{p:1px}")`+"\n" {
		t.Errorf("compiled output = %q", string(data))
	}
}

func TestCompileFile_ParseError(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "broken.gss", `@else { .a { p: 1px } }`)

	env := testEnv()
	err := compileFile(src, env, env.Log)
	if err == nil || !strings.Contains(err.Error(), "@else without preceding @if") {
		t.Fatalf("expected chain error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "broken.expr")); !os.IsNotExist(err) {
		t.Error("output written despite parse error")
	}
}

func TestCompileDir(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "one.gss", `.a { p: 1px }`)
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeSource(t, filepath.Join(dir, "sub"), "two.css", `.b { q: 2px }`)
	writeSource(t, dir, "ignored.txt", "not a stylesheet")

	env := testEnv()
	if err := process(context.Background(), dir, env, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	for _, out := range []string{"one.expr", filepath.Join("sub", "two.expr")} {
		if _, err := os.Stat(filepath.Join(dir, out)); err != nil {
			t.Errorf("expected output %s: %v", out, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "ignored.expr")); !os.IsNotExist(err) {
		t.Error("non-stylesheet file was compiled")
	}
}

func TestProcess_MissingSource(t *testing.T) {
	env := testEnv()
	err := process(context.Background(), filepath.Join(t.TempDir(), "absent.gss"), env, env.Log)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestProcess_OutWithDirectory(t *testing.T) {
	env := testEnv()
	env.Out = "result.expr"
	err := process(context.Background(), t.TempDir(), env, env.Log)
	if err == nil || !strings.Contains(err.Error(), "--out") {
		t.Errorf("expected --out rejection for directory source, got %v", err)
	}
}

func TestIsStylesheetFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.gss", true},
		{"a.css", true},
		{"A.GSS", true},
		{"a.txt", false},
		{"a", false},
		{"a.gss.bak", false},
	}
	for _, tt := range tests {
		if got := isStylesheetFile(tt.path); got != tt.want {
			t.Errorf("isStylesheetFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestCompileFile_DebugReport(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "reported.gss", `.a { p: 1px }`)

	env := testEnv()
	conf := &config.ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	rpt, err := conf.Prepare()
	if err != nil {
		t.Fatalf("reporter Prepare() error = %v", err)
	}
	env.Rpt = rpt

	if err := compileFile(src, env, env.Log); err != nil {
		t.Fatalf("compileFile() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("report Close() error = %v", err)
	}

	if fi, err := os.Stat(filepath.Join(dir, "report.zip")); err != nil || fi.Size() == 0 {
		t.Errorf("debug report archive missing or empty: %v", err)
	}
}
