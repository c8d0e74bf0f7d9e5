package launch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLauncher_MissingExecutable(t *testing.T) {
	exe := filepath.Join(t.TempDir(), "quarzo-node")
	l := &Launcher{Executable: exe, Log: discardLogger()}

	err := l.Launch(context.Background(), &Parameters{HTTPPort: 8000})
	if !IsKind(err, KindMissingExecutable) {
		t.Fatalf("got %v, want KindMissingExecutable", err)
	}
	if !Fatal(err) {
		t.Fatal("missing executable must be fatal")
	}
	if !strings.Contains(err.Error(), exe) {
		t.Fatalf("diagnostic %q does not name the executable", err.Error())
	}
}

func TestLauncher_InvokesNodeWithArgs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell-script node fake")
	}
	dir := t.TempDir()
	out := filepath.Join(dir, "argv.txt")
	exe := filepath.Join(dir, "quarzo-node")
	script := "#!/bin/sh\necho \"$@\" > " + out + "\n"
	if err := os.WriteFile(exe, []byte(script), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := &Launcher{Executable: exe, Log: discardLogger(), Stdout: io.Discard, Stderr: io.Discard}
	p := &Parameters{HTTPPort: 8000, BootstrapPath: "b.bin", DBPath: "data/x", Offline: true}
	if err := l.Launch(context.Background(), p); err != nil {
		t.Fatalf("Launch: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "--http-port 8000 --bootstrap-path b.bin --db-path data/x --offline"
	if strings.TrimSpace(string(got)) != want {
		t.Fatalf("child argv %q, want %q", strings.TrimSpace(string(got)), want)
	}
}

func TestLauncher_PropagatesChildFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell-script node fake")
	}
	dir := t.TempDir()
	exe := filepath.Join(dir, "quarzo-node")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\nexit 3\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l := &Launcher{Executable: exe, Log: discardLogger(), Stdout: io.Discard, Stderr: io.Discard}
	if err := l.Launch(context.Background(), &Parameters{HTTPPort: 8000}); err == nil {
		t.Fatal("expected error when the node exits non-zero")
	}
}

func TestCheckTool(t *testing.T) {
	if err := CheckTool("negotiator", "/bin/sh"); err != nil {
		t.Fatalf("CheckTool(/bin/sh): %v", err)
	}
	err := CheckTool("negotiator", filepath.Join(t.TempDir(), "absent"))
	if !IsKind(err, KindMissingDependencyTool) {
		t.Fatalf("got %v, want KindMissingDependencyTool", err)
	}
	if !Fatal(err) {
		t.Fatal("missing configured tool must be fatal")
	}
}
