package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/framecast/internal/adapters/log"
	"github.com/bft-labs/framecast/internal/app"
	"github.com/bft-labs/framecast/internal/cliconfig"
	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

// Exit statuses. exitRestart asks the boot supervisor to boot again.
const (
	exitOK      = 0
	exitFailure = 1
	exitRestart = app.RestartExitCode
)

const helpDescription = `
Keep a battery e-paper frame fed without keeping it awake.

Each wake the device shows the oldest stored frame, refills its on-disk queue
from the frame server when the queue runs dry, and suspends until the next
wake. A selector stage picks which application image boots next.

Commands map onto the boot chain:
  boot       host bootloader: launches whatever the boot record selects
  selector   factory image: samples the selector inputs and picks an image
  run        application image: one work cycle, then suspend
`

var exampleUsage = strings.TrimSpace(`
  framecast boot --suspend-mode simulate --suspend 30s
  framecast run --endpoint http://frames.local:8080/image?displayId=2
  framecast status
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the configuration shared by every subcommand.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	logger  ports.Logger
}

func main() {
	c := &cli{
		cfg:    cliconfig.DefaultConfig(),
		logger: logAdapter.Bootstrap(),
	}

	root := &cobra.Command{
		Use:               "framecast",
		Short:             "Durable frame queue and wake cycle for battery e-paper frames",
		Long:              strings.TrimSpace(helpDescription),
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
	}
	c.bindFlags(root.PersistentFlags())

	root.AddCommand(
		newBootCommand(c),
		newSelectorCommand(c),
		newRunCommand(c),
		newPurgeCommand(c),
		newStatusCommand(c),
		newPartitionsCommand(c),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, c.logger))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error, logger ports.Logger) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrRestart):
		logger.Debug("restart requested")
		return exitRestart
	case errors.Is(err, context.Canceled):
		logger.Info("interrupted")
		return exitOK
	default:
		logger.Error("framecast", ports.Err(err))
		return exitFailure
	}
}

func (c *cli) bindFlags(f *pflag.FlagSet) {
	cfg := &c.cfg
	f.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.framecast/config.toml)")
	f.StringVar(&cfg.Home, "home", cfg.Home, "framecast home directory")
	f.StringVar(&cfg.StoreDir, "store-dir", cfg.StoreDir, "frame queue directory (default: <home>/frames)")
	f.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "boot record and status directory (default: <home>/state)")
	f.StringVar(&cfg.PartitionsFile, "partitions", cfg.PartitionsFile, "partition manifest (default: <home>/partitions.yaml)")

	f.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "frame server URL")
	f.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout per frame")
	f.StringVar(&cfg.NetworkUp, "network-up", cfg.NetworkUp, "command that brings the network up")
	f.StringVar(&cfg.NetworkDown, "network-down", cfg.NetworkDown, "command that tears the network down")

	f.IntVar(&cfg.StoreQuota, "store-quota", cfg.StoreQuota, "maximum bytes the queue may hold (0: filesystem free space)")
	f.IntVar(&cfg.StoreHeadroom, "store-headroom", cfg.StoreHeadroom, "bytes kept free beyond one frame")

	f.DurationVar(&cfg.SuspendInterval, "suspend", cfg.SuspendInterval, "time between wakes")
	f.DurationVar(&cfg.BannerDuration, "banner", cfg.BannerDuration, "how long the cache banner stays up")
	f.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "give up bringing the network up after this long")
	f.IntVar(&cfg.FailureThreshold, "failure-threshold", cfg.FailureThreshold, "consecutive read failures that erase the queue")
	f.StringVar(&cfg.SuspendMode, "suspend-mode", cfg.SuspendMode, "suspend mode: simulate or rtc")

	f.StringVar(&cfg.Display, "display", cfg.Display, "display: snapshot or epaper")
	f.StringVar(&cfg.SnapshotDir, "snapshot-dir", cfg.SnapshotDir, "snapshot display directory (default: <home>/display)")
	f.StringVar(&cfg.SPIPort, "spi-port", cfg.SPIPort, "SPI port of the e-paper panel (default: first available)")

	f.StringVar(&cfg.ResetInput, "reset-input", cfg.ResetInput, "manual reset input: GPIO name, GPIO:high or static:<bool>")
	f.StringSliceVar(&cfg.SelectorInputs, "selector-input", cfg.SelectorInputs, "selector inputs, lowest bit first")

	f.StringVar(&cfg.VoltageSensor, "voltage-sensor", cfg.VoltageSensor, "battery sensor: adc or power_supply (empty: none)")
	f.StringVar(&cfg.VoltagePath, "voltage-path", cfg.VoltagePath, "sysfs file the battery sensor reads")
	f.Float64Var(&cfg.VoltageRef, "voltage-ref", cfg.VoltageRef, "ADC reference voltage")
	f.Float64Var(&cfg.VoltageMax, "voltage-max", cfg.VoltageMax, "ADC full-scale count")
	f.Float64Var(&cfg.VoltageDivider, "voltage-divider", cfg.VoltageDivider, "battery voltage divider ratio")
	f.Float64Var(&cfg.VoltageTrim, "voltage-trim", cfg.VoltageTrim, "ADC calibration factor")

	f.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "write cycle metrics to this Prometheus textfile")
	f.DurationVar(&cfg.RestartDelay, "restart-delay", cfg.RestartDelay, "pause between boots (boot command)")
	f.IntVar(&cfg.MaxBoots, "max-boots", cfg.MaxBoots, "stop after this many boots, 0 for no limit (boot command)")

	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")
}

// load applies the config file, then FRAMECAST_* variables, then flags, and
// replaces the bootstrap logger with the configured one.
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	logger, err := logAdapter.New("framecast-"+cmd.Name(), c.cfg.LogLevel, c.cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}
	c.logger = logger
	logger.Debug("configuration",
		ports.String("home", c.cfg.Home),
		ports.String("partition", c.cfg.Partition),
		ports.String("endpoint", c.cfg.Endpoint),
		ports.String("display", c.cfg.Display),
		ports.String("suspend_mode", c.cfg.SuspendMode),
	)
	return nil
}
