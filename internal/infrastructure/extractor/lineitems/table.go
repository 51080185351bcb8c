package lineitems

import (
	"strings"

	"github.com/facturaflow/validator/internal/core/domain"
)

// columnRole identifies what a table column carries. Header names vary
// per supplier, so both English and Spanish spellings are recognized.
type columnRole int

const (
	colIgnore columnRole = iota
	colCode
	colDescription
	colQuantity
	colUnitPrice
	colTotal
)

var headerAliases = map[string]columnRole{
	"code":         colCode,
	"codigo":       colCode,
	"sku":          colCode,
	"ref":          colCode,
	"description":  colDescription,
	"descripcion":  colDescription,
	"detalle":      colDescription,
	"concepto":     colDescription,
	"quantity":     colQuantity,
	"qty":          colQuantity,
	"cantidad":     colQuantity,
	"unit_price":   colUnitPrice,
	"unit price":   colUnitPrice,
	"precio":       colUnitPrice,
	"precio_unit":  colUnitPrice,
	"total":        colTotal,
	"importe":      colTotal,
	"line_total":   colTotal,
	"subtotal":     colTotal,
}

func classifyHeader(cell string) columnRole {
	key := strings.ToLower(strings.TrimSpace(cell))
	key = strings.Trim(key, ".:")
	if role, ok := headerAliases[key]; ok {
		return role
	}
	return colIgnore
}

// mapHeader classifies every column of a header row. It reports false
// when the row does not look like a header (no recognizable column),
// in which case callers fall back to positional layout.
func mapHeader(row []string) ([]columnRole, bool) {
	roles := make([]columnRole, len(row))
	recognized := false
	for i, cell := range row {
		roles[i] = classifyHeader(cell)
		if roles[i] != colIgnore {
			recognized = true
		}
	}
	return roles, recognized
}

// positionalRoles is the fallback layout for headerless tables:
// code, description, quantity, unit price, total.
func positionalRoles(width int) []columnRole {
	layout := []columnRole{colCode, colDescription, colQuantity, colUnitPrice, colTotal}
	if width < len(layout) {
		layout = layout[:width]
	}
	return layout
}

// rowToItem maps one data row through the column roles. Empty rows
// yield ok=false and are skipped by the callers.
func rowToItem(roles []columnRole, row []string) (domain.RawLineItem, bool) {
	var item domain.RawLineItem
	empty := true
	for i, cell := range row {
		if i >= len(roles) {
			break
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		empty = false
		switch roles[i] {
		case colCode:
			item.Code = cell
		case colDescription:
			item.Description = cell
		case colQuantity:
			item.Quantity = domain.RawNumber(cell)
		case colUnitPrice:
			item.UnitPrice = domain.RawNumber(cell)
		case colTotal:
			item.Total = domain.RawNumber(cell)
		}
	}
	return item, !empty
}
