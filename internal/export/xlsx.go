// Package export renders transaction listings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/xuri/excelize/v2"

	"dompet/internal/models"
)

// SheetName is the worksheet that holds exported transactions.
const SheetName = "Transactions"

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{"ID", "Date", "Type", "Description", "Amount", "Source Account", "Target Account", "Category", "Note"}

// WriteTransactions consumes rows and writes them to w as a single-sheet
// workbook. Nothing is written to w if rows yields an error.
func WriteTransactions(w io.Writer, rows iter.Seq2[models.Transaction, error]) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return 0, err
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return 0, err
	}
	if err := sw.SetColWidth(2, 2, 20); err != nil {
		return 0, err
	}
	if err := sw.SetColWidth(4, 4, 30); err != nil {
		return 0, err
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, err
	}

	n := 0
	for trx, err := range rows {
		if err != nil {
			return n, err
		}
		n++
		cell, err := excelize.CoordinatesToCellName(1, n+1)
		if err != nil {
			return n, err
		}
		if err := sw.SetRow(cell, row(trx)); err != nil {
			return n, fmt.Errorf("write row %d: %w", n, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return n, err
	}
	return n, f.Write(w)
}

func row(trx models.Transaction) []any {
	return []any{
		trx.ID,
		trx.TransactionAt.UTC().Format(time.RFC3339),
		string(trx.Type),
		trx.Description,
		trx.Amount,
		trx.SourceAccountID,
		deref(trx.TargetAccountID),
		deref(trx.CategoryID),
		deref(trx.Note),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
