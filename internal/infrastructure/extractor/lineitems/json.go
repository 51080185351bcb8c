package lineitems

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/facturaflow/validator/internal/core/domain"
)

// extractJSON accepts either a bare item array or an {"items": [...]}
// envelope, the two shapes produced by upstream extraction services.
func extractJSON(r io.Reader) ([]domain.RawLineItem, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	var items []domain.RawLineItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var envelope struct {
		Items []domain.RawLineItem `json:"items"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("parse json items: %w", err)
	}
	return envelope.Items, nil
}
