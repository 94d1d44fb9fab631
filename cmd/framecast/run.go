package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/framecast/internal/adapters/display"
	"github.com/bft-labs/framecast/internal/adapters/fs"
	"github.com/bft-labs/framecast/internal/adapters/gpio"
	httpAdapter "github.com/bft-labs/framecast/internal/adapters/http"
	"github.com/bft-labs/framecast/internal/adapters/platform"
	"github.com/bft-labs/framecast/internal/adapters/power"
	"github.com/bft-labs/framecast/internal/app"
	"github.com/bft-labs/framecast/internal/cliconfig"
	"github.com/bft-labs/framecast/internal/metrics"
	"github.com/bft-labs/framecast/internal/ports"
)

func newRunCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the application image: one work cycle, then suspend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := c.cfg
			logger := c.logger.With(ports.String("partition", cfg.Partition))

			table, err := loadPartitionTable(cfg)
			if err != nil {
				return err
			}
			// A failed reversion leaves the next boot on this image; the
			// cycle still runs.
			boot := platform.NewBootControl(cfg.StateDir, logger)
			if err := app.NewBootReversion(table, boot, logger).Revert(ctx); err != nil {
				logger.Error("boot reversion failed", ports.Err(err))
			}

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			sensor, err := openVoltageSensor(cfg)
			if err != nil {
				return err
			}
			network, err := httpAdapter.NewNetwork(cfg.Endpoint, strings.Fields(cfg.NetworkUp), strings.Fields(cfg.NetworkDown), logger)
			if err != nil {
				return err
			}
			sink, err := openDisplay(cfg, logger)
			if err != nil {
				return err
			}
			if closer, ok := sink.(io.Closer); ok {
				defer closer.Close()
			}
			pm, err := platform.NewPowerManager(platform.DefaultPowerConfig(cfg.StateDir, cfg.SuspendMode), logger)
			if err != nil {
				return err
			}
			reset, err := gpio.Open(cfg.ResetInput)
			if err != nil {
				return err
			}

			w := app.NewWorkCycle(cfg.CycleConfig(), app.CycleDeps{
				Store:   store,
				Source:  httpAdapter.NewFrameSource(cfg.Endpoint, &http.Client{Timeout: cfg.HTTPTimeout}, sensor, cfg.Partition, logger),
				Network: network,
				Display: sink,
				Power:   pm,
				Reset:   reset,
				Status:  fs.NewStatusFileRepository(cfg.StateDir),
				Emitter: metrics.NewCycleMetrics(cfg.MetricsTextfile, logger),
				Logger:  logger,
			})
			return w.Run(ctx)
		},
	}
}

func openStore(cfg cliconfig.Config, logger ports.Logger) (*fs.FrameStore, error) {
	vol, err := fs.NewDirVolume(cfg.StoreDir, int64(cfg.StoreQuota))
	if err != nil {
		return nil, err
	}
	return fs.NewFrameStore(vol, logger, fs.WithHeadroom(int64(cfg.StoreHeadroom))), nil
}

// openVoltageSensor returns a nil sensor when none is configured.
func openVoltageSensor(cfg cliconfig.Config) (ports.VoltageSensor, error) {
	switch cfg.VoltageSensor {
	case power.KindADC:
		return power.NewADCSensor(cfg.VoltagePath, cfg.Calibration())
	case power.KindPowerSupply:
		return power.NewSupplySensor(cfg.VoltagePath), nil
	default:
		return nil, nil
	}
}

func openDisplay(cfg cliconfig.Config, logger ports.Logger) (ports.DisplaySink, error) {
	switch cfg.Display {
	case cliconfig.DisplayEPaper:
		return display.OpenEPaper(cfg.SPIPort, logger)
	case cliconfig.DisplaySnapshot:
		return display.NewSnapshot(cfg.SnapshotDir, logger)
	default:
		return nil, fmt.Errorf("unknown display %q", cfg.Display)
	}
}
