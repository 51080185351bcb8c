package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/facturaflow/validator/internal/core/domain"
)

type LineItemRepository struct {
	db *sql.DB
}

func NewLineItemRepository(db *sql.DB) *LineItemRepository {
	return &LineItemRepository{db: db}
}

func (r *LineItemRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026030102)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS line_items (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	line_index INTEGER NOT NULL,
	code TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	description_folded TEXT NOT NULL DEFAULT '',
	quantity NUMERIC NOT NULL,
	unit_price NUMERIC,
	total NUMERIC,
	PRIMARY KEY (document_id, line_index)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// ReplaceForDocument swaps the stored items atomically; a re-parse never
// leaves a mix of old and new lines behind.
func (r *LineItemRepository) ReplaceForDocument(ctx context.Context, documentID string, items []domain.LineItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin items tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_items WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete stale items: %w", err)
	}

	const insert = `
INSERT INTO line_items (document_id, line_index, code, description, description_folded, quantity, unit_price, total)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	for _, item := range items {
		if _, err := tx.ExecContext(ctx, insert,
			documentID, item.LineIndex, item.Code, item.Description, item.DescriptionFolded,
			item.Quantity.String(), nullDecimalArg(item.UnitPrice), nullDecimalArg(item.Total),
		); err != nil {
			return fmt.Errorf("insert line item %d: %w", item.LineIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit items tx: %w", err)
	}
	return nil
}

func (r *LineItemRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT line_index, code, description, description_folded, quantity, unit_price, total
FROM line_items
WHERE document_id = $1
ORDER BY line_index ASC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		var quantityRaw string
		var unitPriceRaw, totalRaw sql.NullString
		if err := rows.Scan(
			&item.LineIndex, &item.Code, &item.Description, &item.DescriptionFolded,
			&quantityRaw, &unitPriceRaw, &totalRaw,
		); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}

		item.SourceDocumentID = documentID
		if item.Quantity, err = decimal.NewFromString(quantityRaw); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		if item.UnitPrice, err = scanNullDecimal(unitPriceRaw); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		if item.Total, err = scanNullDecimal(totalRaw); err != nil {
			return nil, fmt.Errorf("parse total: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line items: %w", err)
	}
	return items, nil
}

func nullDecimalArg(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func scanNullDecimal(raw sql.NullString) (decimal.NullDecimal, error) {
	if !raw.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
