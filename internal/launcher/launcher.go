// Package launcher starts run scripts as detached background processes.
package launcher

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"piquant/internal"
	"piquant/internal/errors"
)

// Nohup launches scripts under nohup in their own process group, so they
// survive the invoking process. Output goes to nohup.out in the script's
// directory. No handle is kept: completion is observed through the files
// the script produces.
type Nohup struct {
	logger *internal.Logger
	// Command is the wrapper program, "nohup" unless set
	Command string
}

func NewNohup(logger *internal.Logger) *Nohup {
	return &Nohup{logger: logger, Command: "nohup"}
}

// Launch starts dir/script with args and returns once the process is running
func (n *Nohup) Launch(ctx context.Context, dir, script string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(dir, script)
	if _, err := os.Stat(path); err != nil {
		return errors.WrapCode(err, errors.CodeStatePrecondition, "script '%s' should exist", path)
	}

	out, err := os.OpenFile(filepath.Join(dir, "nohup.out"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open nohup.out in %s", dir)
	}
	defer out.Close()

	// exec.Command rather than CommandContext: the child must outlive ctx
	cmd := exec.Command(n.Command, append([]string{"./" + script}, args...)...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return errors.ExternalServiceError(script, err)
	}
	n.logger.Info("Launched %s in %s (pid %d)", script, dir, cmd.Process.Pid)
	return cmd.Process.Release()
}
