// Package export renders invoice tables into downloadable spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	domainreport "github.com/janytree/orderdesk/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	// InvoiceSheet holds one row per invoice
	InvoiceSheet = "invoices"
	// SummarySheet holds the totals of the exported lines
	SummarySheet = "summary"

	// XLSXContentType is the MIME type of the workbook
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// InvoiceColumns are the header cells of the invoices sheet, in column order.
var InvoiceColumns = []string{
	"Order ID",
	"Status",
	"Recipient",
	"Address",
	"Phone",
	"Postal Code",
	"Delivery Note",
	"Items",
	"Units",
	"Amount",
	"Order Date",
}

// InvoiceWorkbook renders invoices and the summary of their lines into an xlsx file.
func InvoiceWorkbook(invoices []order.InvoiceRecord, summary domainreport.SalesSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InvoiceSheet); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("export: create summary sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("export: header style: %w", err)
	}

	if err := writeInvoices(f, invoices, header); err != nil {
		return nil, err
	}
	if err := writeSummary(f, summary, len(invoices), header); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeInvoices(f *excelize.File, invoices []order.InvoiceRecord, header int) error {
	if err := setRow(f, InvoiceSheet, 1, toRow(InvoiceColumns)); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(InvoiceColumns), 1)
	if err := f.SetCellStyle(InvoiceSheet, "A1", last, header); err != nil {
		return fmt.Errorf("export: style header: %w", err)
	}

	for i, inv := range invoices {
		row := []any{
			inv.OrderID,
			string(inv.Status),
			inv.RecipientName,
			inv.StreetAddress,
			inv.RecipientPhone,
			inv.PostalCode,
			inv.DeliveryNote,
			inv.Description,
			inv.TotalUnits,
			inv.TotalAmount.InexactFloat64(),
			inv.OrderDate,
		}
		if err := setRow(f, InvoiceSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(InvoiceSheet, "D", "D", 40); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	if err := f.SetColWidth(InvoiceSheet, "H", "H", 60); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}
	return f.SetPanes(InvoiceSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, s domainreport.SalesSummary, invoices int, header int) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Invoices", invoices},
		{"Orders", s.DistinctOrders},
		{"Lines", s.LineCount},
		{"Units", s.TotalQuantity},
		{"Total Amount", s.TotalAmount.InexactFloat64()},
		{"Average Order Value", s.AvgOrderValue.InexactFloat64()},
		{"Orders Without Items", s.ItemlessOrders},
	}
	for i, r := range rows {
		if err := setRow(f, SummarySheet, i+1, r); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", header); err != nil {
		return fmt.Errorf("export: style header: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "A", 24)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("export: write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// XLSXExporter renders invoices as an xlsx workbook.
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSXExporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

func (*XLSXExporter) Render(invoices []order.InvoiceRecord, summary domainreport.SalesSummary) ([]byte, error) {
	return InvoiceWorkbook(invoices, summary)
}

func (*XLSXExporter) ContentType() string { return XLSXContentType }

func (*XLSXExporter) Extension() string { return "xlsx" }

var _ report.InvoiceExporter = (*XLSXExporter)(nil)
