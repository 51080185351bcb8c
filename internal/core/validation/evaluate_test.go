package validation

import (
	"testing"

	"github.com/facturaflow/validator/internal/core/domain"
)

func evaluateDocs(t *testing.T, primary, related []domain.RawLineItem) domain.ValidationResult {
	t.Helper()
	p := mustNormalize(t, "inv-1", primary)
	r := mustNormalize(t, "rem-1", related)
	return Evaluate(Match(p, r, DefaultPolicy()), DefaultPolicy())
}

func TestEvaluateExactMatchIsClean(t *testing.T) {
	result := evaluateDocs(t,
		[]domain.RawLineItem{rawItemPriced("A-1", "Tornillos", "500", "25.00")},
		[]domain.RawLineItem{rawItemPriced("A-1", "Tornillos", "500", "25.00")},
	)

	if result.Status != domain.ValidationSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}
	if result.Score != 100 {
		t.Fatalf("expected score 100, got %d", result.Score)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("expected one info finding, got %d", len(result.Findings))
	}
	f := result.Findings[0]
	if f.Kind != domain.FindingInfo || f.Category != domain.CategoryQuantity {
		t.Fatalf("expected info/quantity confirmation, got %s/%s", f.Kind, f.Category)
	}
	if result.ConsistentItems != 1 || result.TotalItems != 1 {
		t.Fatalf("expected 1/1 consistent items, got %d/%d", result.ConsistentItems, result.TotalItems)
	}
	if result.Summary.QuantityMatches != 1 || result.Summary.PriceMatches != 1 || result.Summary.TotalMatches != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
}

func TestEvaluateQuantityMismatchOnExactCode(t *testing.T) {
	result := evaluateDocs(t,
		[]domain.RawLineItem{rawItem("X", "caja", "10")},
		[]domain.RawLineItem{rawItem("X", "caja", "8")},
	)

	if result.Status != domain.ValidationError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("expected one finding, got %d", len(result.Findings))
	}
	f := result.Findings[0]
	if f.Category != domain.CategoryQuantity || f.Kind != domain.FindingError {
		t.Fatalf("expected quantity error, got %s/%s", f.Category, f.Kind)
	}
	// 2/10 is a 20% relative difference, above the 10% escalation bar.
	if f.Severity != domain.SeverityHigh {
		t.Fatalf("expected high severity, got %s", f.Severity)
	}
	if result.ErrorItems != 1 {
		t.Fatalf("expected 1 error item, got %d", result.ErrorItems)
	}
}

func TestEvaluateQuantityMismatchOnFuzzyMatchIsWarning(t *testing.T) {
	result := evaluateDocs(t,
		[]domain.RawLineItem{rawItem("", "Resma papel A4 75g", "10")},
		[]domain.RawLineItem{rawItem("", "Resma papel A4 75g", "9")},
	)

	var quantityFinding *domain.Finding
	for i := range result.Findings {
		if result.Findings[i].Category == domain.CategoryQuantity {
			quantityFinding = &result.Findings[i]
		}
	}
	if quantityFinding == nil {
		t.Fatalf("expected quantity finding, got %+v", result.Findings)
	}
	if quantityFinding.Kind != domain.FindingWarning {
		t.Fatalf("expected warning on fuzzy-matched pair, got %s", quantityFinding.Kind)
	}
	if quantityFinding.Severity != domain.SeverityMedium {
		t.Fatalf("expected medium severity for 10%% diff, got %s", quantityFinding.Severity)
	}
}

func TestEvaluateMissingPrimaryItem(t *testing.T) {
	result := evaluateDocs(t,
		[]domain.RawLineItem{rawItem("Y", "producto sin remito", "3")},
		nil,
	)

	if result.Status != domain.ValidationError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	f := result.Findings[0]
	if f.Category != domain.CategoryMissing || f.Kind != domain.FindingError || f.Severity != domain.SeverityHigh {
		t.Fatalf("expected high missing error, got %+v", f)
	}
	if f.ItemLabel != "Y" {
		t.Fatalf("expected item label Y, got %q", f.ItemLabel)
	}
	if result.Score != 0 {
		t.Fatalf("expected score 0, got %d", result.Score)
	}
}

func TestEvaluateMissingRelatedItemIsWarning(t *testing.T) {
	result := evaluateDocs(t,
		nil,
		[]domain.RawLineItem{rawItem("Z", "extra en remito", "1")},
	)

	f := result.Findings[0]
	if f.Category != domain.CategoryMissing || f.Kind != domain.FindingWarning || f.Severity != domain.SeverityMedium {
		t.Fatalf("expected medium missing warning, got %+v", f)
	}
	if result.Status != domain.ValidationWarning {
		t.Fatalf("expected warning status, got %s", result.Status)
	}
}

func TestEvaluatePriceBeyondTolerance(t *testing.T) {
	result := evaluateDocs(t,
		[]domain.RawLineItem{rawItemPriced("A", "caja", "10", "100.00")},
		[]domain.RawLineItem{rawItemPriced("A", "caja", "10", "103.00")},
	)

	var priceFinding, totalFinding bool
	for _, f := range result.Findings {
		switch f.Category {
		case domain.CategoryPrice:
			priceFinding = true
			if f.Kind != domain.FindingWarning || f.Severity != domain.SeverityMedium {
				t.Fatalf("expected medium price warning, got %+v", f)
			}
		case domain.CategoryTotal:
			totalFinding = true
			if f.Kind != domain.FindingError {
				t.Fatalf("expected total error, got %+v", f)
			}
		}
	}
	if !priceFinding {
		t.Fatalf("expected price finding, got %+v", result.Findings)
	}
	// Derived totals (1000 vs 1030) drift with the price.
	if !totalFinding {
		t.Fatalf("expected total finding, got %+v", result.Findings)
	}
	if result.Status != domain.ValidationError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
}

func TestEvaluatePriceWithinTolerance(t *testing.T) {
	result := evaluateDocs(t,
		[]domain.RawLineItem{rawItemPriced("A", "caja", "10", "100.00")},
		[]domain.RawLineItem{rawItemPriced("A", "caja", "10", "100.50")},
	)

	for _, f := range result.Findings {
		if f.Category == domain.CategoryPrice {
			t.Fatalf("expected no price finding for 0.5%% diff, got %+v", f)
		}
	}
	if result.Summary.PriceMatches != 1 {
		t.Fatalf("expected price match in summary, got %+v", result.Summary)
	}
}

func TestEvaluateOrdersFindingsBySeverityThenIndex(t *testing.T) {
	primary := []domain.RawLineItem{
		rawItem("A", "alfa", "1"),  // clean -> info (low)
		rawItem("B", "beta", "10"), // quantity error (high)
		rawItem("C", "gama", "3"),  // missing from related -> error (high)
	}
	related := []domain.RawLineItem{
		rawItem("A", "alfa", "1"),
		rawItem("B", "beta", "5"),
		rawItem("D", "delta", "4"), // missing from primary -> warning (medium)
	}
	result := evaluateDocs(t, primary, related)

	if len(result.Findings) != 4 {
		t.Fatalf("expected 4 findings, got %d", len(result.Findings))
	}
	// High findings first, primary lineIndex ascending within the tier,
	// then the medium unmatched-related, then the info confirmation.
	if result.Findings[0].ItemLabel != "B" || result.Findings[1].ItemLabel != "C" {
		t.Fatalf("expected high findings B then C first, got %q then %q",
			result.Findings[0].ItemLabel, result.Findings[1].ItemLabel)
	}
	if result.Findings[2].ItemLabel != "D" {
		t.Fatalf("expected unmatched-related D third, got %q", result.Findings[2].ItemLabel)
	}
	if result.Findings[3].Kind != domain.FindingInfo {
		t.Fatalf("expected info confirmation last, got %+v", result.Findings[3])
	}

	seen := map[string]bool{}
	for _, f := range result.Findings {
		if f.ID == "" || seen[f.ID] {
			t.Fatalf("expected unique non-empty finding ids, got %+v", result.Findings)
		}
		seen[f.ID] = true
	}
}

func TestEvaluateScoreBounds(t *testing.T) {
	// Every pair errors: raw score would be -100, clamped to 0.
	result := evaluateDocs(t,
		[]domain.RawLineItem{rawItem("A", "uno", "1"), rawItem("B", "dos", "2")},
		nil,
	)
	if result.Score != 0 {
		t.Fatalf("expected clamped score 0, got %d", result.Score)
	}

	// No pairs at all.
	empty := Evaluate(nil, DefaultPolicy())
	if empty.Score != 100 || empty.Status != domain.ValidationSuccess {
		t.Fatalf("expected clean empty result, got score=%d status=%s", empty.Score, empty.Status)
	}
}
