package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dompet/internal/models"
	"dompet/internal/pagination"
)

func newAccountsCmd(appFn func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List all accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := allAccounts(cmd, appFn())
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				pterm.Info.Println("No accounts yet")
				return nil
			}

			tableData := pterm.TableData{{"ID", "Name", "Type", "Initial", "Current"}}
			for _, acc := range accounts {
				tableData = append(tableData, []string{
					acc.ID,
					acc.Name,
					string(acc.Type),
					formatAmount(acc.InitialAmount),
					formatAmount(acc.CurrentAmount),
				})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(tableData).Render(); err != nil {
				return err
			}
			pterm.Info.Printf("Total: %d accounts\n", len(accounts))
			return nil
		},
	}
}

func allAccounts(cmd *cobra.Command, a *app) ([]models.Account, error) {
	var accounts []models.Account
	for page := 1; ; page++ {
		resp, err := a.accounts.ListAccounts(cmd.Context(), pagination.PageRequest{Page: page, PageSize: pagination.MaxPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}
		accounts = append(accounts, resp.Data...)
		if !resp.HasNext() {
			return accounts, nil
		}
	}
}

func newBalanceCmd(appFn func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the total balance across all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := appFn().queries.TotalBalance(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to compute total balance: %w", err)
			}
			pterm.Success.Printf("Total balance: %s\n", formatAmount(total))
			return nil
		},
	}
}
