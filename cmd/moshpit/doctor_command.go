package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"moshpit/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that required external tools are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				if status.Available {
					detail = status.Command
				}
				rows = append(rows, []string{
					status.Name,
					yesNo(status.Available),
					detail,
					status.Description,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tool", "Found", "Detail", "Used for"}, rows))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tools are missing", len(missing))
			}
			return nil
		},
	}
}
