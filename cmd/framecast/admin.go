package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bft-labs/framecast/internal/adapters/fs"
	"github.com/bft-labs/framecast/internal/adapters/platform"
	"github.com/bft-labs/framecast/internal/domain"
	"github.com/bft-labs/framecast/internal/ports"
)

func newPurgeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Erase every queued frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(c.cfg, c.logger)
			if err != nil {
				return err
			}
			depth := store.Len()
			if err := store.PurgeAll(); err != nil {
				return err
			}
			c.logger.Info("queue purged", ports.Int("frames", depth))
			return nil
		},
	}
}

// statusReport is the JSON document printed by the status command.
type statusReport struct {
	QueueDepth    int                 `json:"queue_depth"`
	HasCapacity   bool                `json:"has_capacity"`
	NextBoot      string              `json:"next_boot"`
	BootSequence  uint64              `json:"boot_sequence"`
	BootRecordErr string              `json:"boot_record_error,omitempty"`
	LastCycle     *domain.CycleStatus `json:"last_cycle,omitempty"`
}

func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print queue depth, next boot selection and the last cycle as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(c.cfg, c.logger)
			if err != nil {
				return err
			}
			report := statusReport{
				QueueDepth:  store.Len(),
				HasCapacity: store.HasCapacityForOneMore(),
			}

			sel, err := platform.NewBootControl(c.cfg.StateDir, c.logger).Selection()
			if err != nil {
				report.BootRecordErr = err.Error()
			}
			report.NextBoot = sel.Label
			if report.NextBoot == "" {
				report.NextBoot = string(domain.RoleSelector)
			}
			report.BootSequence = sel.Sequence

			last, err := fs.NewStatusFileRepository(c.cfg.StateDir).Load(cmd.Context())
			if err != nil {
				return err
			}
			if last.CycleID != "" {
				report.LastCycle = &last
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

func newPartitionsCommand(c *cli) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "partitions",
		Short: "Print the partition manifest in effect and the next boot selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := loadPartitionTable(c.cfg)
			if err != nil {
				return err
			}
			data, err := table.Marshal()
			if err != nil {
				return err
			}
			if write {
				if _, err := os.Stat(c.cfg.PartitionsFile); err == nil {
					return fmt.Errorf("%s already exists", c.cfg.PartitionsFile)
				}
				if err := os.MkdirAll(filepath.Dir(c.cfg.PartitionsFile), 0o755); err != nil {
					return err
				}
				if err := fs.WriteFileAtomic(c.cfg.PartitionsFile, data, 0o644); err != nil {
					return err
				}
				c.logger.Info("partition manifest written", ports.String("path", c.cfg.PartitionsFile))
				return nil
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(data); err != nil {
				return err
			}
			next := string(domain.RoleSelector)
			sel, err := platform.NewBootControl(c.cfg.StateDir, c.logger).Selection()
			switch {
			case err != nil:
				c.logger.Warn("boot record unreadable", ports.Err(err))
			case sel.Label != "":
				next = sel.Label
			}
			_, err = fmt.Fprintf(out, "# next boot: %s\n", next)
			return err
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the manifest to the partitions file if it does not exist")
	return cmd
}
