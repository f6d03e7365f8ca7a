package slips

import (
	"bytes"
	"context"
	"fmt"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/pkg/errors"

	"github.com/retailworks/opsledger/internal/domain"
)

// ExportDispatchSlips renders the selected dispatch slips to a spreadsheet.
// Report-only: no inventory or order side effects. Empty id list is a
// validation error.
func (s *DispatchService) ExportDispatchSlips(ctx context.Context, ids []int64, includeItems bool) ([]byte, error) {
	if len(ids) == 0 {
		return nil, domain.ErrValidation("no slip ids supplied for export")
	}

	var rows []domain.DispatchSlip
	query := s.db.WithContext(ctx).Where("id IN (?)", ids).Order("created_at ASC")
	if includeItems {
		query = query.Preload("Items")
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query dispatch slips for export")
	}

	xlsx := excelize.NewFile()
	sheet := "Sheet1"

	headers := []string{"Ref No", "Kind", "Status", "Dispatch Date", "Confirmed At", "Order ID", "Note"}
	for i, h := range headers {
		xlsx.SetCellValue(sheet, fmt.Sprintf("%c1", 'A'+i), h)
	}

	rowIdx := 2
	for _, slip := range rows {
		confirmedAt := ""
		if slip.ConfirmedAt != nil {
			confirmedAt = slip.ConfirmedAt.Format("2006-01-02 15:04:05")
		}
		orderID := ""
		if slip.OrderID != 0 {
			orderID = fmt.Sprintf("%d", slip.OrderID)
		}
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", rowIdx), slip.RefNo)
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", rowIdx), slip.Kind)
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", rowIdx), slip.Status)
		xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", rowIdx), slip.DispatchDate.Format("2006-01-02"))
		xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", rowIdx), confirmedAt)
		xlsx.SetCellValue(sheet, fmt.Sprintf("F%d", rowIdx), orderID)
		xlsx.SetCellValue(sheet, fmt.Sprintf("G%d", rowIdx), slip.Note)
		rowIdx++

		if !includeItems || len(slip.Items) == 0 {
			continue
		}
		itemHeaders := []string{"Product", "Unit", "Qty", "Unit Price", "Line Total"}
		for i, h := range itemHeaders {
			xlsx.SetCellValue(sheet, fmt.Sprintf("%c%d", 'B'+i, rowIdx), h)
		}
		rowIdx++
		for _, item := range slip.Items {
			xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", rowIdx), fmt.Sprintf("product %d", item.ProductID))
			xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", rowIdx), item.Unit)
			xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", rowIdx), item.Quantity)
			xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", rowIdx), item.UnitPrice.String())
			xlsx.SetCellValue(sheet, fmt.Sprintf("F%d", rowIdx), item.LineTotal.String())
			rowIdx++
		}
	}

	var buf bytes.Buffer
	if err := xlsx.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "render slip export")
	}
	return buf.Bytes(), nil
}
