package lineitems

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/facturaflow/validator/internal/core/domain"
)

// extractXLSX reads the first sheet of a workbook with the same header
// handling as the CSV path.
func extractXLSX(r io.Reader) ([]domain.RawLineItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	var (
		items []domain.RawLineItem
		roles []columnRole
	)
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if roles == nil {
			if mapped, ok := mapHeader(row); ok {
				roles = mapped
				continue
			}
			roles = positionalRoles(len(row))
		}
		if item, ok := rowToItem(roles, row); ok {
			items = append(items, item)
		}
	}
	return items, nil
}
