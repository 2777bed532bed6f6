package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"reviewflow/internal/app"
	"reviewflow/internal/reconcile"
)

var countersCmd = &cobra.Command{
	Use:   "recompute-counters",
	Short: "Recompute denormalized counters and report drift",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		txManager, closeFn, err := app.OpenStorage(cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := reconcile.New(txManager).RunOnce(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "checked %d counters\n", report.Checked)
		for counter, n := range report.Corrected {
			fmt.Fprintf(out, "  %s: %d corrected\n", counter, n)
		}
		return nil
	},
}
