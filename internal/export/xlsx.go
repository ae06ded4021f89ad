// Package export writes the resolved dataset as a spreadsheet report.
package export

import (
	"fmt"
	"io"

	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding one row per district.
const SheetName = "Districts"

var headers = []string{
	"Province", "District", "Key", "Status",
	"Annual trees", "Annual source", "Total trees", "Total source", "Years",
	"Tree cover %", "Potential tree cover %", "Gap %",
}

// WriteXLSX writes every indexed district of idx, in province then district
// order, with its resolved values. Missing numbers are left blank.
func WriteXLSX(w io.Writer, idx *domain.Index) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "B", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "C", "L", 16); err != nil {
		return err
	}

	row := 2
	var writeErr error
	idx.Each(func(p domain.ProvinceEntry, d domain.DistrictEntry, rec domain.RawRecord) {
		if writeErr != nil {
			return
		}
		res := domain.Resolve(&rec)
		values := []any{
			p.Label, d.Label, domain.JoinKey(p.Key, d.Key), string(res.Status),
			cellNumber(res.Annual), res.AnnualSource, cellNumber(res.Total), res.TotalSource, res.Years,
			cellNumber(res.TreecoverPct), cellNumber(res.PotentialTreecoverPct), cellNumber(res.GapPct),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			writeErr = err
			return
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			writeErr = fmt.Errorf("write row %d: %w", row, err)
			return
		}
		row++
	})
	if writeErr != nil {
		return writeErr
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellNumber leaves the cell empty for a missing value.
func cellNumber(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
