package agent

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/cprobe/mapscan/config"
	"github.com/cprobe/mapscan/engine"
)

func setupConfigDir(t *testing.T, checks map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range checks {
		pdir := filepath.Join(dir, "p."+name)
		if err := os.MkdirAll(pdir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(pdir, name+".toml"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	old := config.Config
	t.Cleanup(func() { config.Config = old })

	c := config.Default()
	c.ConfigDir = dir
	c.TestMode = true
	config.Config = c
	return dir
}

func TestParseFilter(t *testing.T) {
	got := parseFilter(" procmap : procopen::")
	want := map[string]struct{}{"procmap": {}, "procopen": {}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(parseFilter("")) != 0 {
		t.Fatal("expected empty filter")
	}
}

func TestReadPluginDir(t *testing.T) {
	dir := setupConfigDir(t, map[string]string{"procmap": "[[instances]]\npattern = \"a\"\n"})
	_ = os.WriteFile(filepath.Join(dir, "p.procmap", "b.toml"), []byte("[[instances]]\npattern = \"b\"\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "p.procmap", "README.md"), []byte("ignored"), 0o644)

	mtime, content, err := readPluginDir("procmap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mtime <= 0 {
		t.Fatalf("expected a positive mtime, got %d", mtime)
	}
	if strings.Contains(string(content), "ignored") {
		t.Fatal("non-toml files must be skipped")
	}
	if strings.Count(string(content), "[[instances]]") != 2 {
		t.Fatalf("expected both files concatenated, got %q", content)
	}
}

func TestLoadFileConfigs(t *testing.T) {
	dir := setupConfigDir(t, map[string]string{"procmap": "[[instances]]\npattern = \"a\"\n"})
	_ = os.MkdirAll(filepath.Join(dir, "p.empty"), 0o755)
	_ = os.MkdirAll(filepath.Join(dir, "other"), 0o755)

	pcs, err := loadFileConfigs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pcs) != 1 || pcs["procmap"] == nil {
		t.Fatalf("expected only procmap, got %v", pcs)
	}
}

func TestRunOnce(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("checks are linux-only")
	}

	setupConfigDir(t, map[string]string{
		"procmap": `
[[instances]]
pattern = "libssl"
[instances.alerting]
enabled = true
`,
	})

	root := t.TempDir()
	t.Setenv("HOST_PROC", root)
	_ = os.MkdirAll(filepath.Join(root, "42"), 0o755)
	_ = os.WriteFile(filepath.Join(root, "42", "maps"), []byte("7f00-7f10 r-xp 00000000 08:01 77 /usr/lib/libssl.so.3 (deleted)\n"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "42", "cmdline"), []byte("nginx\x00"), 0o644)

	buf := &bytes.Buffer{}
	oldStdout, oldEvents := engine.Stdout, engine.Events
	engine.Stdout, engine.Events = buf, engine.NewEventCache()
	defer func() { engine.Stdout, engine.Events = oldStdout, oldEvents }()

	if err := New().RunOnce(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Warning") || !strings.Contains(out, "from_plugin=procmap") {
		t.Fatalf("expected a warning event from procmap, got %q", out)
	}
	if !strings.Contains(out, "_attr_pids=42") {
		t.Fatalf("expected pid 42 in labels, got %q", out)
	}
}

func TestRunOnceWithoutAlerting(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("checks are linux-only")
	}

	setupConfigDir(t, map[string]string{
		"procmap": `
[[instances]]
pattern = "libssl"

[[instances]]
pattern = "libfoo"
`,
	})

	root := t.TempDir()
	t.Setenv("HOST_PROC", root)
	_ = os.MkdirAll(filepath.Join(root, "42"), 0o755)
	_ = os.WriteFile(filepath.Join(root, "42", "maps"), []byte("7f00-7f10 r-xp 00000000 08:01 77 /usr/lib/libssl.so.3 (deleted)\n"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "42", "cmdline"), []byte("nginx\x00"), 0o644)

	buf := &bytes.Buffer{}
	oldStdout, oldEvents := engine.Stdout, engine.Events
	engine.Stdout, engine.Events = buf, engine.NewEventCache()
	defer func() { engine.Stdout, engine.Events = oldStdout, oldEvents }()

	if err := New().RunOnce(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var warning, ok bool
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, " Warning ") && strings.Contains(line, "target=libssl") {
			warning = true
		}
		if strings.Contains(line, " Ok ") && strings.Contains(line, "target=libfoo") {
			ok = true
		}
	}
	if !warning {
		t.Fatalf("expected a warning event for libssl, got %q", buf.String())
	}
	if !ok {
		t.Fatalf("expected an ok event for libfoo, got %q", buf.String())
	}
	if engine.Events.Len() != 0 {
		t.Fatalf("expected alert cache untouched, got %d entries", engine.Events.Len())
	}
}

func TestRunOnceUnknownPlugin(t *testing.T) {
	setupConfigDir(t, map[string]string{"nosuch": "[[instances]]\n"})
	if err := New().RunOnce(); err == nil {
		t.Fatal("expected error for unsupported plugin")
	}
}
