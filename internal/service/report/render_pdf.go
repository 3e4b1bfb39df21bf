package report

import (
	"bytes"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/report"
	"github.com/go-pdf/fpdf"
)

// PDFRenderer lays a payslip out on one A4 page. The file opens with the
// employee's national id; the owner password guards editing.
type PDFRenderer struct {
	ownerPassword string
}

func NewPDFRenderer(ownerPassword string) *PDFRenderer {
	return &PDFRenderer{ownerPassword: ownerPassword}
}

func (r *PDFRenderer) Render(doc PayslipDocument) ([]byte, error) {
	if doc.NationalID == "" {
		return nil, fmt.Errorf("%w: missing national id", report.ErrRenderFailure)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetProtection(fpdf.CnProtectPrint, doc.NationalID, r.ownerPassword)
	pdf.SetCreationDate(doc.ComputedAt)
	pdf.SetTitle("Payslip "+doc.Period, true)
	pdf.SetAuthor("Payroll", true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Payslip "+doc.Period, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Computed "+doc.ComputedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	writeTable(pdf, doc.Lines())
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Attendance", "", 1, "L", false, 0, "")
	writeTable(pdf, doc.AttendanceLines())

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrRenderFailure, err)
	}
	return buf.Bytes(), nil
}

func writeTable(pdf *fpdf.Fpdf, lines []Line) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, line := range lines {
		bold := ""
		if line.Label == "Net pay" {
			bold = "B"
		}
		pdf.SetFont("Helvetica", bold, 10)
		pdf.CellFormat(80, 7, tr(line.Label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr(line.Value), "B", 1, "R", false, 0, "")
	}
}
