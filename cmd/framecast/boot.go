package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bft-labs/framecast/internal/adapters/gpio"
	"github.com/bft-labs/framecast/internal/adapters/platform"
	"github.com/bft-labs/framecast/internal/app"
	"github.com/bft-labs/framecast/internal/cliconfig"
	"github.com/bft-labs/framecast/internal/ports"
)

func newBootCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Act as the bootloader: launch the selected image and relaunch on restart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadPartitionTable(c.cfg)
			if err != nil {
				return err
			}
			s := app.NewSupervisor(
				app.SupervisorConfig{RestartDelay: c.cfg.RestartDelay, MaxBoots: c.cfg.MaxBoots},
				table,
				platform.NewBootControl(c.cfg.StateDir, c.logger),
				platform.NewExecLauncher(os.Stdout, os.Stderr, c.logger),
				nil,
				c.logger,
			)
			return s.Run(cmd.Context())
		},
	}
}

func newSelectorCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "selector",
		Short: "Run the selector stage: pick the application image from the selector inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadPartitionTable(c.cfg)
			if err != nil {
				return err
			}
			inputs, err := openInputs(c.cfg.SelectorInputs)
			if err != nil {
				return err
			}
			a := app.NewBootArbiter(table, platform.NewBootControl(c.cfg.StateDir, c.logger), inputs, app.DefaultRoutes(), c.logger)
			_, err = a.Arbitrate(cmd.Context())
			return err
		},
	}
}

// loadPartitionTable reads the manifest, or builds the default three-image
// table around this executable when there is none.
func loadPartitionTable(cfg cliconfig.Config) (*platform.PartitionTable, error) {
	if cliconfig.FileExists(cfg.PartitionsFile) {
		return platform.LoadPartitionTable(cfg.PartitionsFile)
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return platform.DefaultPartitionTable(exe), nil
}

func openInputs(specs []string) ([]ports.DigitalInput, error) {
	inputs := make([]ports.DigitalInput, 0, len(specs))
	for _, spec := range specs {
		in, err := gpio.Open(spec)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}
