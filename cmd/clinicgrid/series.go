package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinicgrid/internal/config"
	"clinicgrid/internal/model"
	"clinicgrid/internal/schedule"
)

func seriesCmd() *cobra.Command {
	var (
		cabinetID int64
		tmpl      model.Shift
		role      string
		rule      string
		until     string
	)
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Create a recurring shift from an RRULE",
		Example: `  clinicgrid series --cabinet 1 --staff-id 10 --staff-name "Dr. Petrov" \
    --start 09:00 --end 15:00 --rule "FREQ=WEEKLY;BYDAY=MO,WE" --from 2026-03-02 --until 2026-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger()
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			client, rdb := newClient(cfg)
			if rdb != nil {
				defer rdb.Close()
			}
			if err := client.HealthCheck(cmd.Context()); err != nil {
				return fmt.Errorf("schedule API unavailable: %w", err)
			}
			store := schedule.NewStore(client, 0, schedule.WithLogger(&logger))
			defer store.Close()

			tmpl.Role = model.StaffRole(role)
			created, err := store.CreateShiftSeries(cmd.Context(), cabinetID, tmpl, rule, until)
			if err != nil {
				return err
			}
			for _, sh := range created {
				fmt.Printf("%s  %s-%s  %s\n", sh.Date, sh.StartTime, sh.EndTime, sh.ID)
			}
			logger.Info().Int("shifts", len(created)).Int64("cabinet", cabinetID).Msg("shift series created")
			return nil
		},
	}
	cmd.Flags().Int64Var(&cabinetID, "cabinet", 0, "cabinet id")
	cmd.Flags().Int64Var(&tmpl.StaffID, "staff-id", 0, "doctor id")
	cmd.Flags().StringVar(&tmpl.StaffName, "staff-name", "", "name shown on the shift")
	cmd.Flags().StringVar(&role, "role", string(model.RoleDoctor), "doctor, assistant or administrator")
	cmd.Flags().StringVar(&tmpl.StartTime, "start", "", "shift start, HH:mm")
	cmd.Flags().StringVar(&tmpl.EndTime, "end", "", "shift end, HH:mm")
	cmd.Flags().StringVar(&rule, "rule", "", "RRULE, e.g. FREQ=WEEKLY;BYDAY=MO")
	cmd.Flags().StringVar(&tmpl.Date, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&until, "until", "", "last date, YYYY-MM-DD")
	for _, name := range []string{"cabinet", "staff-name", "start", "end", "rule", "from", "until"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
