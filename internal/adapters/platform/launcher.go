package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// PartitionEnv names the environment variable carrying the booted label.
const PartitionEnv = "FRAMECAST_PARTITION"

// stopGrace bounds how long a child may take to exit after SIGTERM.
const stopGrace = 10 * time.Second

// ExecLauncher implements ports.ImageLauncher by running the partition
// command as a child process.
type ExecLauncher struct {
	stdout io.Writer
	stderr io.Writer
	logger ports.Logger
}

// NewExecLauncher creates a launcher forwarding child output to stdout and
// stderr.
func NewExecLauncher(stdout, stderr io.Writer, logger ports.Logger) *ExecLauncher {
	return &ExecLauncher{stdout: stdout, stderr: stderr, logger: logger}
}

// Launch implements ports.ImageLauncher. A non-zero exit is reported as the
// exit code, not as an error.
func (l *ExecLauncher) Launch(ctx context.Context, p domain.Partition) (int, error) {
	if len(p.Command) == 0 {
		return -1, fmt.Errorf("partition %q has no command", p.Label)
	}

	cmd := exec.CommandContext(ctx, p.Command[0], p.Command[1:]...)
	cmd.Env = append(os.Environ(), PartitionEnv+"="+p.Label)
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = stopGrace

	start := time.Now()
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		l.logger.Debug("image exited",
			ports.String("label", p.Label),
			ports.Int("code", exitErr.ExitCode()),
			ports.Duration("ran", time.Since(start)),
		)
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
