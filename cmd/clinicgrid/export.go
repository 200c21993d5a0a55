package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clinicgrid/internal/config"
	"clinicgrid/internal/export"
)

func exportCmd() *cobra.Command {
	var from, to, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a date range of the schedule to XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if to == "" {
				to = from
			}
			if out == "" {
				out = fmt.Sprintf("schedule_%s_%s.xlsx", from, to)
			}

			client, rdb := newClient(cfg)
			if rdb != nil {
				defer rdb.Close()
			}
			ctx := cmd.Context()
			if err := client.HealthCheck(ctx); err != nil {
				return fmt.Errorf("schedule API unavailable: %w", err)
			}
			data, err := client.GetSchedule(ctx, from, to)
			if err != nil {
				return fmt.Errorf("fetch schedule: %w", err)
			}
			statuses, err := client.ListStatuses(ctx)
			if err != nil {
				return fmt.Errorf("fetch statuses: %w", err)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.WriteSchedule(f, data, statuses); err != nil {
				_ = f.Close()
				return fmt.Errorf("write workbook: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info().Str("file", out).Int("days", len(data)).Msg("schedule exported")
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD (defaults to --from)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
