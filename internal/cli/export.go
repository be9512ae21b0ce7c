package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dompet/internal/export"
	"dompet/internal/services"
)

type exportFlags struct {
	Month string
	Out   string
}

func newExportCmd(appFn func() *app) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write transactions to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter services.TransactionFilter
			if flags.Month != "" {
				month, err := time.Parse("2006-01", flags.Month)
				if err != nil {
					return fmt.Errorf("invalid --month %q, use YYYY-MM", flags.Month)
				}
				from, to := services.MonthRange(month.Year(), month.Month(), time.UTC)
				filter.From, filter.To = &from, &to
			}

			out := flags.Out
			if out == "" {
				out = fmt.Sprintf("transactions_%s.xlsx", time.Now().UTC().Format("20060102"))
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			n, err := export.WriteTransactions(f, appFn().queries.StreamTransactions(cmd.Context(), filter))
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(out)
				return fmt.Errorf("failed to export transactions: %w", err)
			}

			pterm.Success.Printf("Exported %d transactions to %s\n", n, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.Month, "month", "m", "", "only export this month (YYYY-MM)")
	cmd.Flags().StringVarP(&flags.Out, "out", "o", "", "output file (default transactions_YYYYMMDD.xlsx)")
	return cmd
}
