package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"filelens/internal/report"
)

const sheetName = "Metadata"

var (
	xlsxHeader  = []any{"Section", "Label", "Value", "Level"}
	xlsxWidths  = []float64{24, 32, 70, 14}
	thinBorders = []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
)

func writeXLSX(w io.Writer, rep *report.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	for i, width := range xlsxWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders,
	})
	if err != nil {
		return err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
		Border:    thinBorders,
	})
	if err != nil {
		return err
	}
	levelStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
		Border:    thinBorders,
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheetName, "A1", &xlsxHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "D1", headerStyle); err != nil {
		return err
	}

	all := rows(rep)
	for i, r := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &[]any{r.section, r.label, r.value, r.level}); err != nil {
			return err
		}
	}
	if len(all) > 0 {
		last := len(all) + 1
		from, _ := excelize.CoordinatesToCellName(1, 2)
		to, _ := excelize.CoordinatesToCellName(3, last)
		if err := f.SetCellStyle(sheetName, from, to, cellStyle); err != nil {
			return err
		}
		from, _ = excelize.CoordinatesToCellName(4, 2)
		to, _ = excelize.CoordinatesToCellName(4, last)
		if err := f.SetCellStyle(sheetName, from, to, levelStyle); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
