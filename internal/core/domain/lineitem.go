package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RawValue carries a numeric field the way the extraction layer produced
// it: as a JSON number, a quoted string ("1.234,56" included), or absent.
// Parsing into a decimal happens in the normalizer.
type RawValue struct {
	Text string
	Set  bool
}

func RawNumber(text string) RawValue {
	return RawValue{Text: text, Set: true}
}

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*v = RawValue{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal raw value: %w", err)
		}
		*v = RawValue{Text: s, Set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshal raw value: %w", err)
	}
	*v = RawValue{Text: n.String(), Set: true}
	return nil
}

func (v RawValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}

// RawLineItem is one line as supplied by the extraction assistant or a
// structured file reader. Field names and numeric formats are not
// guaranteed consistent across document types.
type RawLineItem struct {
	Code        string   `json:"code,omitempty"`
	Description string   `json:"description"`
	Quantity    RawValue `json:"quantity"`
	UnitPrice   RawValue `json:"unit_price,omitempty"`
	Total       RawValue `json:"total,omitempty"`
	LineIndex   *int     `json:"line_index,omitempty"`
}

// LineItem is the canonical, comparable form of a line.
// Description keeps the original casing for display; DescriptionFolded is
// the trimmed, whitespace-collapsed, case-folded comparison form.
type LineItem struct {
	SourceDocumentID  string              `json:"source_document_id"`
	LineIndex         int                 `json:"line_index"`
	Code              string              `json:"code,omitempty"`
	Description       string              `json:"description"`
	DescriptionFolded string              `json:"-"`
	Quantity          decimal.Decimal     `json:"quantity"`
	UnitPrice         decimal.NullDecimal `json:"unit_price"`
	Total             decimal.NullDecimal `json:"total"`
}

// Label returns the human-readable identity used in findings: the code
// when present, otherwise the display description.
func (li LineItem) Label() string {
	if li.Code != "" {
		return li.Code
	}
	if li.Description != "" {
		return li.Description
	}
	return fmt.Sprintf("line %d", li.LineIndex)
}

// FoldDescription produces the comparison form of a description.
func FoldDescription(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
