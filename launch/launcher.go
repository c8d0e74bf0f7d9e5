package launch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

// Launcher validates the final preconditions and runs the node executable
// exactly once, synchronously. Its responsibility ends when the child
// exits: there is no supervision, restart, or health monitoring.
type Launcher struct {
	// Executable is the node binary: a path, or a bare name resolved
	// from PATH.
	Executable string

	Log *slog.Logger

	// Stdout and Stderr default to the launcher process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// CheckTool verifies an explicitly configured external tool exists. A
// missing tool the operator asked for is fatal, unlike the best-effort
// default collaborators.
func CheckTool(name, path string) error {
	if _, err := exec.LookPath(path); err != nil {
		return wrapError(KindMissingDependencyTool,
			fmt.Sprintf("%s tool not found: %s", name, path), err)
	}
	return nil
}

// Launch checks the node executable and invokes it with the assembled
// parameters, blocking until it exits.
func (l *Launcher) Launch(ctx context.Context, p *Parameters) error {
	resolved, err := exec.LookPath(l.Executable)
	if err != nil {
		return wrapError(KindMissingExecutable,
			fmt.Sprintf("node executable not found: %s", l.Executable), err)
	}

	args := p.Args()
	l.Log.Info("launching node", "executable", resolved, "args", args)

	cmd := exec.CommandContext(ctx, resolved, args...)
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("launch: node exited: %w", err)
	}
	l.Log.Info("node exited cleanly")
	return nil
}
