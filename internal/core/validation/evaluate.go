package validation

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/facturaflow/validator/internal/core/domain"
)

// Evaluate walks the match pairs of a single primary/related comparison
// and produces the aggregate ValidationResult.
func Evaluate(pairs []domain.MatchPair, policy Policy) domain.ValidationResult {
	policy = policy.normalize()
	scored, t, s := evaluatePairs(pairs, policy)
	return finalize(scored, t, s)
}

// scoredFinding carries the ordering keys that are dropped once the
// final finding sequence is fixed.
type scoredFinding struct {
	finding      domain.Finding
	severityRank int
	sortLast     bool // unmatched-related findings sort last
	lineIndex    int
}

type tally struct {
	pairs      int
	consistent int
	warning    int
	errored    int
}

func (t *tally) add(other tally) {
	t.pairs += other.pairs
	t.consistent += other.consistent
	t.warning += other.warning
	t.errored += other.errored
}

func addSummary(dst *domain.Summary, src domain.Summary) {
	dst.QuantityMatches += src.QuantityMatches
	dst.PriceMatches += src.PriceMatches
	dst.DescriptionMatches += src.DescriptionMatches
	dst.TotalMatches += src.TotalMatches
}

func evaluatePairs(pairs []domain.MatchPair, policy Policy) ([]scoredFinding, tally, domain.Summary) {
	var (
		scored  []scoredFinding
		t       tally
		summary domain.Summary
	)
	t.pairs = len(pairs)

	for _, p := range pairs {
		switch p.Kind {
		case domain.MatchUnmatchedPrimary:
			t.errored++
			scored = append(scored, scoredFinding{
				finding: domain.Finding{
					Category:     domain.CategoryMissing,
					Severity:     domain.SeverityHigh,
					Kind:         domain.FindingError,
					ItemLabel:    p.Primary.Label(),
					PrimaryValue: p.Primary.Quantity,
					Suggestion:   "item present in primary document absent from related documents",
				},
				severityRank: severityRank(domain.SeverityHigh),
				lineIndex:    p.Primary.LineIndex,
			})
		case domain.MatchUnmatchedRelated:
			t.warning++
			scored = append(scored, scoredFinding{
				finding: domain.Finding{
					Category:     domain.CategoryMissing,
					Severity:     domain.SeverityMedium,
					Kind:         domain.FindingWarning,
					ItemLabel:    p.Related.Label(),
					RelatedValue: p.Related.Quantity,
					Suggestion:   "item present in related document not found in primary",
				},
				severityRank: severityRank(domain.SeverityMedium),
				sortLast:     true,
				lineIndex:    p.Related.LineIndex,
			})
		default:
			pairScored, class, pairSummary := evaluateMatchedPair(p, policy)
			scored = append(scored, pairScored...)
			addSummary(&summary, pairSummary)
			switch class {
			case domain.FindingError:
				t.errored++
			case domain.FindingWarning:
				t.warning++
			default:
				t.consistent++
			}
		}
	}
	return scored, t, summary
}

func evaluateMatchedPair(p domain.MatchPair, policy Policy) ([]scoredFinding, domain.FindingKind, domain.Summary) {
	var (
		scored  []scoredFinding
		summary domain.Summary
	)
	class := domain.FindingInfo
	primary, related := p.Primary, p.Related
	label := primary.Label()

	emit := func(f domain.Finding) {
		scored = append(scored, scoredFinding{
			finding:      f,
			severityRank: severityRank(f.Severity),
			lineIndex:    primary.LineIndex,
		})
		if worseKind(f.Kind, class) {
			class = f.Kind
		}
	}

	// Quantity.
	if primary.Quantity.Cmp(related.Quantity) != 0 {
		kind := domain.FindingError
		if p.Kind == domain.MatchFuzzyDescription {
			// Lower confidence in the pairing itself.
			kind = domain.FindingWarning
		}
		severity := domain.SeverityMedium
		if relativeDiff(primary.Quantity, related.Quantity) > policy.QuantityHighRelDiff {
			severity = domain.SeverityHigh
		}
		emit(domain.Finding{
			Category:     domain.CategoryQuantity,
			Severity:     severity,
			Kind:         kind,
			ItemLabel:    label,
			PrimaryValue: primary.Quantity,
			RelatedValue: related.Quantity,
		})
	} else {
		summary.QuantityMatches++
	}

	// Unit price, compared only when both sides carry one.
	if primary.UnitPrice.Valid && related.UnitPrice.Valid {
		if relativeDiff(primary.UnitPrice.Decimal, related.UnitPrice.Decimal) > policy.PriceTolerance {
			emit(domain.Finding{
				Category:     domain.CategoryPrice,
				Severity:     domain.SeverityMedium,
				Kind:         domain.FindingWarning,
				ItemLabel:    label,
				PrimaryValue: primary.UnitPrice.Decimal,
				RelatedValue: related.UnitPrice.Decimal,
			})
		} else {
			summary.PriceMatches++
		}
	}

	// Description: matched anyway, but the normalized strings differ.
	if primary.DescriptionFolded != related.DescriptionFolded {
		emit(domain.Finding{
			Category:     domain.CategoryDescription,
			Severity:     domain.SeverityLow,
			Kind:         domain.FindingWarning,
			ItemLabel:    label,
			PrimaryValue: primary.Description,
			RelatedValue: related.Description,
			Suggestion:   "verify same underlying product",
		})
	} else {
		summary.DescriptionMatches++
	}

	// Line total, direct or derived.
	if primary.Total.Valid && related.Total.Valid {
		if exceedsTotalEpsilon(primary.Total.Decimal, related.Total.Decimal, policy) {
			emit(domain.Finding{
				Category:     domain.CategoryTotal,
				Severity:     domain.SeverityMedium,
				Kind:         domain.FindingError,
				ItemLabel:    label,
				PrimaryValue: primary.Total.Decimal,
				RelatedValue: related.Total.Decimal,
			})
		} else {
			summary.TotalMatches++
		}
	}

	if len(scored) == 0 {
		// Clean pair: one info confirmation.
		scored = append(scored, scoredFinding{
			finding: domain.Finding{
				Category:     domain.CategoryQuantity,
				Severity:     domain.SeverityLow,
				Kind:         domain.FindingInfo,
				ItemLabel:    label,
				PrimaryValue: primary.Quantity,
				RelatedValue: related.Quantity,
			},
			severityRank: severityRank(domain.SeverityLow),
			lineIndex:    primary.LineIndex,
		})
	}
	return scored, class, summary
}

func finalize(scored []scoredFinding, t tally, summary domain.Summary) domain.ValidationResult {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].severityRank != scored[j].severityRank {
			return scored[i].severityRank < scored[j].severityRank
		}
		if scored[i].sortLast != scored[j].sortLast {
			return !scored[i].sortLast
		}
		return scored[i].lineIndex < scored[j].lineIndex
	})

	findings := make([]domain.Finding, len(scored))
	status := domain.ValidationSuccess
	for i, sf := range scored {
		f := sf.finding
		f.ID = fmt.Sprintf("finding-%04d", i+1)
		findings[i] = f

		switch f.Kind {
		case domain.FindingError:
			status = domain.ValidationError
		case domain.FindingWarning:
			if status != domain.ValidationError {
				status = domain.ValidationWarning
			}
		}
	}

	score := 100
	if t.pairs > 0 {
		raw := 100 * (float64(t.consistent) - 0.5*float64(t.warning) - float64(t.errored)) / float64(t.pairs)
		score = int(math.Round(raw))
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
	}

	return domain.ValidationResult{
		Status:          status,
		Score:           score,
		TotalItems:      t.pairs,
		ConsistentItems: t.consistent,
		WarningItems:    t.warning,
		ErrorItems:      t.errored,
		Findings:        findings,
		Summary:         summary,
	}
}

func severityRank(s domain.Severity) int {
	switch s {
	case domain.SeverityHigh:
		return 0
	case domain.SeverityMedium:
		return 1
	default:
		return 2
	}
}

func worseKind(a, b domain.FindingKind) bool {
	rank := func(k domain.FindingKind) int {
		switch k {
		case domain.FindingError:
			return 2
		case domain.FindingWarning:
			return 1
		default:
			return 0
		}
	}
	return rank(a) > rank(b)
}

// relativeDiff is |a-b| / max(|a|, |b|); zero when both are zero.
func relativeDiff(a, b decimal.Decimal) float64 {
	diff := a.Sub(b).Abs()
	denom := a.Abs()
	if b.Abs().Cmp(denom) > 0 {
		denom = b.Abs()
	}
	if denom.IsZero() {
		return 0
	}
	rel, _ := diff.Div(denom).Float64()
	return rel
}

func exceedsTotalEpsilon(a, b decimal.Decimal, policy Policy) bool {
	diff := a.Sub(b).Abs()
	magnitude := a.Abs()
	if b.Abs().Cmp(magnitude) > 0 {
		magnitude = b.Abs()
	}
	eps := decimal.NewFromFloat(policy.TotalAbsEpsilon)
	rel := magnitude.Mul(decimal.NewFromFloat(policy.TotalRelEpsilon))
	if rel.Cmp(eps) > 0 {
		eps = rel
	}
	return diff.Cmp(eps) > 0
}
