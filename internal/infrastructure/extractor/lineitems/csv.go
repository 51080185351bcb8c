package lineitems

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/facturaflow/validator/internal/core/domain"
)

// extractCSV reads delimiter-separated line items. The first row is
// treated as a header when any column name is recognized; otherwise the
// positional layout applies from row one.
func extractCSV(r io.Reader) ([]domain.RawLineItem, error) {
	buffered, delimiter, err := sniffDelimiter(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(buffered)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		items []domain.RawLineItem
		roles []columnRole
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
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

// sniffDelimiter peeks at the first line to choose between comma and
// semicolon, the two separators seen in supplier exports.
func sniffDelimiter(r io.Reader) (io.Reader, rune, error) {
	head := make([]byte, 4096)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, 0, fmt.Errorf("read csv head: %w", err)
	}
	head = head[:n]

	firstLine := string(head)
	if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
		firstLine = firstLine[:idx]
	}

	delimiter := ','
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		delimiter = ';'
	}
	return io.MultiReader(strings.NewReader(string(head)), r), delimiter, nil
}
