package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"filelens/internal/report"
)

const (
	pdfMargin     = 18.0
	pdfLineHeight = 5.0
)

func writePDF(w io.Writer, rep *report.Report) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(true, pdfMargin)
	doc.SetTitle("Metadata report", true)
	doc.SetCreator("filelens", true)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	pageWidth, _ := doc.GetPageSize()
	textWidth := pageWidth - 2*pdfMargin

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(textWidth, 10, tr("Metadata report"), "", 1, "L", false, 0, "")
	doc.Ln(2)

	for _, b := range blocks(rep) {
		doc.SetFont("Helvetica", "B", 13)
		doc.SetTextColor(31, 78, 120)
		doc.CellFormat(textWidth, 8, tr(b.title), "", 1, "L", false, 0, "")
		doc.SetTextColor(0, 0, 0)

		doc.SetFont("Helvetica", "", 10)
		if len(b.entries) == 0 {
			doc.MultiCell(textWidth, pdfLineHeight, tr(noData), "", "L", false)
		}
		for _, entry := range b.entries {
			if entry.Level == report.LevelWarning || entry.Level == report.LevelError {
				doc.SetTextColor(170, 60, 0)
			}
			doc.MultiCell(textWidth, pdfLineHeight, tr(fmt.Sprintf("%s: %s (%s)", entry.Label, entry.Value, entry.Level)), "", "L", false)
			doc.SetTextColor(0, 0, 0)
		}
		if b.notice != "" {
			doc.SetFont("Helvetica", "I", 10)
			doc.MultiCell(textWidth, pdfLineHeight, tr("Note: "+b.notice), "", "L", false)
		}
		doc.Ln(3)
	}

	if err := doc.Error(); err != nil {
		return err
	}
	return doc.Output(w)
}
