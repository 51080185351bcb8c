package lineitems

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/facturaflow/validator/internal/core/domain"
)

// extractPDF pulls line items out of a tabular PDF. Text is grouped by
// visual row; each row ending in numeric columns is treated as a line
// item, everything else (headers, addresses, totals blocks) is skipped.
func extractPDF(r io.Reader) ([]domain.RawLineItem, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var items []domain.RawLineItem
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", pageNum, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				if s := strings.TrimSpace(text.S); s != "" {
					words = append(words, s)
				}
			}
			if item, ok := parseTextLine(strings.Join(words, " ")); ok {
				items = append(items, item)
			}
		}
	}
	return items, nil
}

// parseTextLine interprets one text row as "[code] description numbers".
// Up to three trailing numeric tokens map to quantity, unit price and
// total, in that order. Rows without a trailing number are not items.
func parseTextLine(line string) (domain.RawLineItem, bool) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return domain.RawLineItem{}, false
	}

	var trailing []string
	for len(tokens) > 0 && len(trailing) < 3 && isNumericToken(tokens[len(tokens)-1]) {
		trailing = append([]string{tokens[len(tokens)-1]}, trailing...)
		tokens = tokens[:len(tokens)-1]
	}
	if len(trailing) == 0 || len(tokens) == 0 {
		return domain.RawLineItem{}, false
	}

	var item domain.RawLineItem
	switch len(trailing) {
	case 1:
		item.Quantity = domain.RawNumber(trailing[0])
	case 2:
		item.Quantity = domain.RawNumber(trailing[0])
		item.UnitPrice = domain.RawNumber(trailing[1])
	case 3:
		item.Quantity = domain.RawNumber(trailing[0])
		item.UnitPrice = domain.RawNumber(trailing[1])
		item.Total = domain.RawNumber(trailing[2])
	}

	if looksLikeCode(tokens[0]) && len(tokens) > 1 {
		item.Code = tokens[0]
		tokens = tokens[1:]
	}
	item.Description = strings.Join(tokens, " ")
	return item, true
}

func isNumericToken(token string) bool {
	hasDigit := false
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == ',':
		default:
			return false
		}
	}
	return hasDigit
}

// looksLikeCode accepts short tokens mixing letters and digits, the
// usual shape of supplier article codes (A-1, REF-2041, 7750X).
func looksLikeCode(token string) bool {
	if len(token) > 16 {
		return false
	}
	hasDigit := false
	for _, r := range token {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z':
		case r == '-' || r == '_' || r == '/':
		default:
			return false
		}
	}
	return hasDigit
}
