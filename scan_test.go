package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/cprobe/mapscan/pkg/procutil"
	"github.com/cprobe/mapscan/pkg/scanner"
)

func fakeProcess(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOST_PROC", root)

	dir := filepath.Join(root, "321")
	_ = os.MkdirAll(filepath.Join(dir, "fd"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "maps"), []byte("7f00-7f10 r-xp 00000000 08:01 77 /usr/lib/libz.so.1\n"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "cmdline"), []byte("gzip\x00-d\x00"), 0o644)
	_ = os.Symlink("/srv", filepath.Join(dir, "cwd"))
	_ = os.Symlink("/tmp/a.gz", filepath.Join(dir, "fd", "3"))
}

func TestScanMaps(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only")
	}
	fakeProcess(t)

	var buf bytes.Buffer
	n, err := scan(&buf, scanner.New(scanner.Options{}), "maps", "", scanner.Query{Pattern: "libz"})
	if err != nil || n != 1 {
		t.Fatalf("expected one process, got %d (%v)", n, err)
	}

	out := buf.String()
	for _, want := range []string{"Process 321", "cwd: /srv", "gzip -d", "\t7f00-7f10 r-xp 00000000 08:01 77 /usr/lib/libz.so.1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output %q", want, out)
		}
	}
}

func TestScanFdsSinglePid(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only")
	}
	fakeProcess(t)

	var buf bytes.Buffer
	n, err := scan(&buf, scanner.New(scanner.Options{}), "fds", "321", scanner.Query{Pattern: "/tmp/a.gz"})
	if err != nil || n != 1 {
		t.Fatalf("expected one process, got %d (%v)", n, err)
	}
	if !strings.Contains(buf.String(), "\t3 -> /tmp/a.gz") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	n, err = scan(&buf, scanner.New(scanner.Options{}), "fds", "321", scanner.Query{Pattern: "/tmp/a"})
	if err != nil || n != 0 {
		t.Fatalf("expected no match for a partial path, got %d (%v)", n, err)
	}
}

func TestScanCallerErrors(t *testing.T) {
	s := scanner.New(scanner.Options{})

	if _, err := scan(&bytes.Buffer{}, s, "maps", "init", scanner.Query{}); !errors.Is(err, procutil.ErrInvalidPID) {
		t.Fatalf("expected ErrInvalidPID, got %v", err)
	}
	if _, err := scan(&bytes.Buffer{}, s, "sockets", "", scanner.Query{}); !errors.Is(err, errUnknownKind) {
		t.Fatalf("expected errUnknownKind, got %v", err)
	}
}
