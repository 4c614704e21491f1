package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/obralink/portal-pagos/internal/application/port"
	"github.com/obralink/portal-pagos/internal/domain/statement"
)

// ExportService renders a statement with its approval ledger as an Excel
// workbook for download from the portal
type ExportService interface {
	ExportStatement(ctx context.Context, statementID string) ([]byte, error)
}

type exportServiceImpl struct {
	statements port.StatementRepository
	ledger     port.LedgerRepository
	logger     Logger
}

// NewExportService creates a new ExportService
func NewExportService(statements port.StatementRepository, ledger port.LedgerRepository, logger Logger) ExportService {
	return &exportServiceImpl{
		statements: statements,
		ledger:     ledger,
		logger:     logger,
	}
}

const exportSheet = "Estado de Pago"

func (s *exportServiceImpl) ExportStatement(ctx context.Context, statementID string) ([]byte, error) {
	st, err := s.statements.GetByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("%w: statement %s", statement.ErrNotFound, statementID)
	}

	entries, err := s.ledger.GetByStatement(ctx, statementID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	setCell := func(cell string, value interface{}) {
		if err := f.SetCellValue(exportSheet, cell, value); err != nil {
			s.logger.Error("Failed to set cell", "error", err, "cell", cell)
		}
	}

	setCell("A1", "Estado de Pago")
	setCell("A2", "Proyecto")
	setCell("B2", st.ProjectID)
	setCell("A3", "Periodo")
	setCell("B3", st.Period.String())
	setCell("A4", "Monto total")
	setCell("B4", st.Total.StringFixed(2))
	setCell("A5", "Avance (%)")
	setCell("B5", st.ProgressPercent)
	setCell("A6", "Vencimiento")
	setCell("B6", st.ExpiryDate.Format("2006-01-02"))
	setCell("A7", "Estado")
	setCell("B7", st.Status.String())

	setCell("A9", "Aprobador")
	setCell("B9", "Correo")
	setCell("C9", "Decision")
	setCell("D9", "Fecha")
	setCell("E9", "Motivo")

	row := 10
	for _, e := range entries {
		setCell(fmt.Sprintf("A%d", row), e.ApproverName)
		setCell(fmt.Sprintf("B%d", row), e.ApproverEmail)
		setCell(fmt.Sprintf("C%d", row), e.Status.String())
		if e.DecidedAt != nil {
			setCell(fmt.Sprintf("D%d", row), e.DecidedAt.Format("2006-01-02 15:04"))
		}
		if e.Reason != nil {
			setCell(fmt.Sprintf("E%d", row), *e.Reason)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Statement exported", "statement_id", statementID, "entries", len(entries))
	return buf.Bytes(), nil
}
