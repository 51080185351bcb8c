package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/facturaflow/validator/internal/core/domain"
)

// Normalize converts raw per-document items into canonical LineItems,
// aborting on the first malformed line. Callers that prefer the
// skip-and-record policy use NormalizeLenient.
func Normalize(documentID string, raw []domain.RawLineItem) ([]domain.LineItem, error) {
	out := make([]domain.LineItem, 0, len(raw))
	for i, r := range raw {
		item, err := normalizeOne(documentID, i, r)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// NormalizeLenient converts what it can and reports malformed lines as
// errors alongside the canonical items. One bad line does not block
// reviewing the rest.
func NormalizeLenient(documentID string, raw []domain.RawLineItem) ([]domain.LineItem, []error) {
	out := make([]domain.LineItem, 0, len(raw))
	var skipped []error
	for i, r := range raw {
		item, err := normalizeOne(documentID, i, r)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		out = append(out, item)
	}
	return out, skipped
}

func normalizeOne(documentID string, position int, raw domain.RawLineItem) (domain.LineItem, error) {
	lineIndex := position
	if raw.LineIndex != nil {
		if *raw.LineIndex < 0 {
			return domain.LineItem{}, invalidLine(position, errors.New("negative line index"))
		}
		lineIndex = *raw.LineIndex
	}

	quantity, ok, err := parseAmount(raw.Quantity)
	if err != nil {
		return domain.LineItem{}, invalidLine(lineIndex, fmt.Errorf("quantity: %w", err))
	}
	if !ok {
		return domain.LineItem{}, invalidLine(lineIndex, errors.New("quantity is required"))
	}

	unitPrice, err := parseOptionalAmount(raw.UnitPrice)
	if err != nil {
		return domain.LineItem{}, invalidLine(lineIndex, fmt.Errorf("unit price: %w", err))
	}
	total, err := parseOptionalAmount(raw.Total)
	if err != nil {
		return domain.LineItem{}, invalidLine(lineIndex, fmt.Errorf("total: %w", err))
	}
	if !total.Valid && unitPrice.Valid {
		total = decimal.NewNullDecimal(quantity.Mul(unitPrice.Decimal))
	}

	description := strings.Join(strings.Fields(raw.Description), " ")

	return domain.LineItem{
		SourceDocumentID:  documentID,
		LineIndex:         lineIndex,
		Code:              strings.ToUpper(strings.TrimSpace(raw.Code)),
		Description:       description,
		DescriptionFolded: domain.FoldDescription(description),
		Quantity:          quantity,
		UnitPrice:         unitPrice,
		Total:             total,
	}, nil
}

func invalidLine(lineIndex int, err error) error {
	return domain.WrapError(domain.ErrInvalidLineItem, fmt.Sprintf("normalize line %d", lineIndex), err)
}

// parseAmount parses a decimal from extraction output. Latin-style
// separators ("1.234,56") are accepted alongside plain decimals.
func parseAmount(raw domain.RawValue) (decimal.Decimal, bool, error) {
	if !raw.Set {
		return decimal.Decimal{}, false, nil
	}
	text := strings.TrimSpace(raw.Text)
	if text == "" {
		return decimal.Decimal{}, false, nil
	}

	if strings.Contains(text, ",") {
		if strings.Contains(text, ".") {
			// "1.234,56": dots are thousands separators.
			text = strings.ReplaceAll(text, ".", "")
		}
		text = strings.ReplaceAll(text, ",", ".")
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("parse %q: %w", raw.Text, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, false, fmt.Errorf("negative value %q", raw.Text)
	}
	return d, true, nil
}

func parseOptionalAmount(raw domain.RawValue) (decimal.NullDecimal, error) {
	d, ok, err := parseAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NewNullDecimal(d), nil
}
