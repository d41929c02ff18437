// Package invoice renders order invoices as PDF files.
package invoice

import (
	"fmt"
	"os"
	"path/filepath"

	"bevera/internal/service"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

// PDFGenerator writes invoice PDFs into a directory on local disk
type PDFGenerator struct {
	dir string
}

// NewPDFGenerator creates a generator that stores files under dir,
// creating the directory if needed.
func NewPDFGenerator(dir string) (*PDFGenerator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create invoice directory: %w", err)
	}
	return &PDFGenerator{dir: dir}, nil
}

// Generate renders the order into a PDF and returns the stored file name.
// Stored names are random UUIDs so clients cannot guess other invoices.
func (g *PDFGenerator) Generate(detail *service.OrderDetail) (string, error) {
	order := detail.Order

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Invoice %s", order.ID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Bevera")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice for order %s", order.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", order.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, "Bill to")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, order.FullName)
	pdf.Ln(6)
	pdf.Cell(0, 6, order.Email)
	pdf.Ln(6)
	if order.Phone != "" {
		pdf.Cell(0, 6, order.Phone)
		pdf.Ln(6)
	}
	if order.Address != "" {
		pdf.MultiCell(0, 6, order.Address, "", "L", false)
	}
	pdf.Ln(6)

	// Line items table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 8, "Product", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Total", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range detail.Items {
		pdf.CellFormat(90, 8, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, item.LineTotal.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 10, "Grand total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 10, order.Total.StringFixed(2), "1", 1, "R", false, 0, "")

	storedFileName := uuid.New().String() + ".pdf"
	path := filepath.Join(g.dir, storedFileName)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write invoice pdf: %w", err)
	}

	return storedFileName, nil
}
