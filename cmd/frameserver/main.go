package main

import (
	"context"
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
	"github.com/bft-labs/framecast/internal/cliconfig"
	"github.com/bft-labs/framecast/internal/ports"
	"github.com/bft-labs/framecast/internal/server"
)

var exampleUsage = strings.TrimSpace(`
  frameserver --frames-dir ./frames --data-dir ./data
  FRAMESERVER_LISTEN=:9000 frameserver
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultServerConfig()
	var cfgPath string

	logger := logAdapter.Bootstrap()

	root := &cobra.Command{
		Use:   "frameserver",
		Short: "Serve 1-bit frames to framecast devices and record their battery voltage",
		Long: strings.TrimSpace(`
Serve the files under <frames-dir>/display<N>/ round-robin to the device that
asks for displayId=N. Reported battery voltages are appended to
<data-dir>/display<N>/voltages.csv. Frame directories are watched and
re-indexed when they change.`),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultServerConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadServerFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyServerFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplyServerEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			l, err := logAdapter.New("frameserver", cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err != nil {
				return err
			}
			logger = l

			s, err := server.New(server.Config{
				Listen:    cfg.Listen,
				FramesDir: cfg.FramesDir,
				DataDir:   cfg.DataDir,
				Debounce:  cfg.Debounce,
			}, logger)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			return s.Run(cmd.Context())
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.framecast/frameserver.toml)")
	root.Flags().StringVar(&cfg.Listen, "listen", cfg.Listen, "HTTP listen address")
	root.Flags().StringVar(&cfg.FramesDir, "frames-dir", cfg.FramesDir, "directory holding display<N> frame folders")
	root.Flags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for per-display voltage logs")
	root.Flags().DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "delay before re-indexing after a frame change")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	root.Flags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("frameserver", ports.Err(err))
		stop()
		os.Exit(1)
	}
}
