package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Rmontilla83/saldobirras-pro/internal/domain/ledger"
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	dateLayout     = "2006-01-02"
	sheetMovements = "Movements"
	sheetSummary   = "Summary"
)

var movementHeaders = []string{
	"Date", "Customer", "Type", "Amount", "Balance After", "Payment Method", "Reference", "Note",
}

// ExportRequest selects the ledger entries to export. From and To are
// inclusive calendar dates (YYYY-MM-DD, UTC).
type ExportRequest struct {
	From string
	To   string
	Type string
}

// ExportFile is a generated spreadsheet
type ExportFile struct {
	Filename string
	Content  []byte
	Rows     int
}

func (r ExportRequest) parse() (from, to time.Time, entryType *ledger.EntryType, err error) {
	if r.From == "" || r.To == "" {
		return from, to, nil, shared.NewDomainError(shared.CodeInvalidInput, "Both 'from' and 'to' dates are required")
	}
	if from, err = time.Parse(dateLayout, r.From); err != nil {
		return from, to, nil, shared.NewDomainError(shared.CodeInvalidInput, "'from' must be a YYYY-MM-DD date")
	}
	if to, err = time.Parse(dateLayout, r.To); err != nil {
		return from, to, nil, shared.NewDomainError(shared.CodeInvalidInput, "'to' must be a YYYY-MM-DD date")
	}
	if to.Before(from) {
		return from, to, nil, shared.NewDomainError(shared.CodeInvalidInput, "'to' cannot be before 'from'")
	}
	if r.Type != "" {
		t := ledger.EntryType(r.Type)
		if !t.IsValid() {
			return from, to, nil, shared.NewDomainError(shared.CodeInvalidInput, "Type must be 'recharge' or 'consume'")
		}
		entryType = &t
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), entryType, nil
}

// ExportTransactions writes the ledger entries in the range to an XLSX
// workbook with a Movements sheet and a Summary sheet.
func (s *Service) ExportTransactions(ctx context.Context, tenantID uuid.UUID, req ExportRequest) (*ExportFile, error) {
	from, to, entryType, err := req.parse()
	if err != nil {
		return nil, err
	}

	txs, err := s.transactions.ListForExport(ctx, tenantID, ledger.TransactionFilter{
		Type:     entryType,
		DateFrom: &from,
		DateTo:   &to,
	}, s.cfg.ExportMaxRows)
	if err != nil {
		return nil, shared.WrapStoreError("report.export", err)
	}
	customers, err := s.customers.ListAll(ctx, tenantID)
	if err != nil {
		return nil, shared.WrapStoreError("report.export", err)
	}
	names := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	content, err := buildWorkbook(txs, names, req.From, req.To)
	if err != nil {
		return nil, shared.WrapStoreError("report.export", err)
	}
	if len(txs) == s.cfg.ExportMaxRows {
		s.logger.Warn("Export truncated at row cap",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("rows", len(txs)),
		)
	}
	return &ExportFile{
		Filename: fmt.Sprintf("movements_%s_%s.xlsx", req.From, req.To),
		Content:  content,
		Rows:     len(txs),
	}, nil
}

func buildWorkbook(txs []*ledger.Transaction, names map[uuid.UUID]string, from, to string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetMovements); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F5A623"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(sheetMovements, "A1", &movementHeaders); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	if err := f.SetCellStyle(sheetMovements, "A1", "H1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style headers: %w", err)
	}

	recharged, consumed := decimal.Zero, decimal.Zero
	var nRecharge, nConsume int
	for i, tx := range txs {
		method, reference := "", ""
		if tx.Payment != nil {
			method, reference = string(tx.Payment.Method), tx.Payment.Reference
		}
		row := []any{
			tx.CreatedAt.UTC().Format("2006-01-02 15:04"),
			names[tx.CustomerID],
			string(tx.Type),
			tx.Amount.InexactFloat64(),
			tx.BalanceAfter.InexactFloat64(),
			method,
			reference,
			tx.Note,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetMovements, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
		if tx.Type == ledger.EntryTypeRecharge {
			recharged = recharged.Add(tx.Amount)
			nRecharge++
		} else {
			consumed = consumed.Add(tx.Amount)
			nConsume++
		}
	}
	if err := f.SetColWidth(sheetMovements, "A", "H", 18); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	summary := [][]any{
		{"Period", from + " - " + to},
		{"Recharges", nRecharge},
		{"Total recharged", recharged.InexactFloat64()},
		{"Consumes", nConsume},
		{"Total consumed", consumed.InexactFloat64()},
		{"Net", recharged.Sub(consumed).InexactFloat64()},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "A6", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style summary: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
