package cli

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dompet/internal/ledger"
)

// ErrDrift is returned by reconcile when balances disagree with history and
// --repair was not given, so scripts can detect it from the exit status.
var ErrDrift = errors.New("ledger has drifted balances")

func newReconcileCmd(appFn func() *app) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Verify every balance against its transaction history",
		Long: `Recompute each account's balance from its opening amount and
transaction history and compare it with the stored balance.
With --repair, drifted balances are overwritten with the recomputed value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFn()

			var (
				report *ledger.Report
				err    error
			)
			if repair {
				report, err = a.reconcile.Repair(cmd.Context())
			} else {
				report, err = a.reconcile.Check(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("failed to reconcile: %w", err)
			}

			drifted := report.Drifted()
			if len(drifted) == 0 {
				pterm.Success.Printf("All %d accounts are consistent\n", len(report.Balances))
				return nil
			}

			pterm.DefaultSection.Println("Drifted accounts")
			tableData := pterm.TableData{{"ID", "Name", "Recorded", "Expected", "Drift"}}
			for _, b := range drifted {
				tableData = append(tableData, []string{
					b.AccountID,
					b.Name,
					formatAmount(b.Recorded),
					formatAmount(b.Expected),
					formatAmount(b.Drift()),
				})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
				return err
			}

			if repair {
				pterm.Success.Printf("Repaired %d accounts\n", len(drifted))
				return nil
			}
			pterm.Warning.Println("Run again with --repair to correct the stored balances")
			return ErrDrift
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "overwrite drifted balances with the recomputed value")
	return cmd
}
