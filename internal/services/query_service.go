package services

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/pagination"
	"dompet/internal/store"
)

// transactionOrder lists newest first. Identifiers are time-ordered, so the
// id tie-break keeps insertion order among equal timestamps.
const transactionOrder = "transaction_at DESC, id ASC"

var hundred = decimal.NewFromInt(100)

// queryService answers read-only questions about the ledger.
type queryService struct {
	store *store.Store
}

// NewQueryService creates a new QueryServicer.
func NewQueryService(st *store.Store) QueryServicer {
	return &queryService{store: st}
}

// MonthRange returns the half-open interval [start, end) covering one
// calendar month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// ListTransactions retrieves a paginated, filtered list of transactions.
func (s *queryService) ListTransactions(ctx context.Context, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()
	scopes := filterScopes(filter)

	totalItems, err := s.store.Transactions().Count(ctx, scopes...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	transactions, err := s.store.Transactions().List(ctx,
		append(scopes, store.OrderBy(transactionOrder), pagination.Paginate(page))...,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// StreamTransactions yields every matching transaction lazily, in list order.
func (s *queryService) StreamTransactions(ctx context.Context, filter TransactionFilter) iter.Seq2[models.Transaction, error] {
	rows := s.store.Transactions().Stream(ctx, append(filterScopes(filter), store.OrderBy(transactionOrder))...)
	return func(yield func(models.Transaction, error) bool) {
		for trx, err := range rows {
			if err != nil {
				yield(models.Transaction{}, apperrors.Wrap(apperrors.ErrInternalServer, err))
				return
			}
			if !yield(trx, nil) {
				return
			}
		}
	}
}

// TotalBalance sums the maintained current balance of every account.
func (s *queryService) TotalBalance(ctx context.Context) (int64, error) {
	var total int64
	if err := s.store.Accounts().Scan(ctx, &total, store.Select("COALESCE(SUM(current_amount), 0)")); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

type typeTotal struct {
	Type  models.TransactionType
	Total int64
	Count int64
}

// MonthlySummary totals income and expense for one UTC calendar month.
func (s *queryService) MonthlySummary(ctx context.Context, year int, month time.Month) (*MonthlySummary, error) {
	if month < time.January || month > time.December {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	from, to := MonthRange(year, month, time.UTC)

	var rows []typeTotal
	err := s.store.Transactions().Scan(ctx, &rows,
		store.Select("type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count"),
		store.Where("transaction_at >= ? AND transaction_at < ?", from, to),
		store.GroupBy("type"),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &MonthlySummary{Month: fmt.Sprintf("%04d-%02d", year, int(month))}
	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			summary.Income = r.Total
		case models.TransactionTypeExpense:
			summary.Expense = r.Total
		}
		summary.TransactionCount += r.Count
	}
	summary.Net = summary.Income - summary.Expense
	return summary, nil
}

type categoryRow struct {
	CategoryID *string
	Total      int64
	Count      int64
}

// SpendingByCategory groups matching transactions by category, largest
// total first. Without a type filter it reports expenses.
func (s *queryService) SpendingByCategory(ctx context.Context, filter TransactionFilter) ([]CategoryTotal, error) {
	if filter.Type == nil {
		expense := models.TransactionTypeExpense
		filter.Type = &expense
	}

	var rows []categoryRow
	err := s.store.Transactions().Scan(ctx, &rows,
		append(filterScopes(filter),
			store.Select("category_id, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count"),
			store.GroupBy("category_id"),
			store.OrderBy("total DESC"),
		)...,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	names, err := s.categoryNames(ctx, rows)
	if err != nil {
		return nil, err
	}

	var grand int64
	for _, r := range rows {
		grand += r.Total
	}

	out := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		name := "Uncategorized"
		if r.CategoryID != nil {
			name = names[*r.CategoryID]
		}
		pct := decimal.Zero
		if grand > 0 {
			pct = decimal.NewFromInt(r.Total).Mul(hundred).Div(decimal.NewFromInt(grand)).Round(2)
		}
		out = append(out, CategoryTotal{
			CategoryID:       r.CategoryID,
			Name:             name,
			Total:            r.Total,
			TransactionCount: r.Count,
			Percentage:       pct,
		})
	}
	return out, nil
}

func (s *queryService) categoryNames(ctx context.Context, rows []categoryRow) (map[string]string, error) {
	var ids []string
	for _, r := range rows {
		if r.CategoryID != nil {
			ids = append(ids, *r.CategoryID)
		}
	}
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	categories, err := s.store.Categories().List(ctx, store.Where("id IN ?", ids))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names, nil
}

// filterScopes translates a filter into query conditions.
func filterScopes(f TransactionFilter) []store.Scope {
	var scopes []store.Scope
	if f.From != nil {
		scopes = append(scopes, store.Where("transaction_at >= ?", f.From.UTC()))
	}
	if f.To != nil {
		scopes = append(scopes, store.Where("transaction_at < ?", f.To.UTC()))
	}
	if f.Type != nil {
		scopes = append(scopes, store.Where("type = ?", *f.Type))
	}
	if f.CategoryID != nil {
		scopes = append(scopes, store.Where("category_id = ?", *f.CategoryID))
	}
	if f.AccountID != nil {
		scopes = append(scopes, store.Where("(source_account_id = ? OR target_account_id = ?)", *f.AccountID, *f.AccountID))
	}
	if f.MinAmount != nil {
		scopes = append(scopes, store.Where("amount >= ?", *f.MinAmount))
	}
	if f.MaxAmount != nil {
		scopes = append(scopes, store.Where("amount <= ?", *f.MaxAmount))
	}
	return scopes
}
