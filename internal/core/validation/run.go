package validation

import (
	"github.com/facturaflow/validator/internal/core/domain"
)

// RelatedSet is one related document's raw line items.
type RelatedSet struct {
	DocumentID string
	Items      []domain.RawLineItem
}

// RunInput is the full input of one validation run: the primary
// document's raw items plus one or more related sets.
type RunInput struct {
	PrimaryDocumentID string
	PrimaryItems      []domain.RawLineItem
	RelatedSets       []RelatedSet
}

// Run normalizes all documents, matches the primary items against each
// related set, and merges the per-set evaluations into one aggregate
// result: findings re-sorted across sets, score/status/summary
// re-derived over the merged pair count.
//
// Malformed lines are skipped and reported as warning findings rather
// than aborting the run. A primary document whose lines are all
// malformed yields a single error-status result.
func Run(input RunInput, policy Policy) domain.ValidationResult {
	policy = policy.normalize()

	primary, skippedPrimary := NormalizeLenient(input.PrimaryDocumentID, input.PrimaryItems)
	if len(input.PrimaryItems) > 0 && len(primary) == 0 {
		return allInvalidResult()
	}

	var (
		scored  []scoredFinding
		total   tally
		summary domain.Summary
	)
	scored = append(scored, skippedFindings(skippedPrimary)...)

	for _, set := range input.RelatedSets {
		related, skipped := NormalizeLenient(set.DocumentID, set.Items)
		scored = append(scored, skippedFindings(skipped)...)

		pairs := Match(primary, related, policy)
		setScored, t, s := evaluatePairs(pairs, policy)
		scored = append(scored, setScored...)
		total.add(t)
		addSummary(&summary, s)
	}

	return finalize(scored, total, summary)
}

// ItemSet is one related document's canonical line items.
type ItemSet struct {
	DocumentID string
	Items      []domain.LineItem
}

// RunItems is the canonical-input form of Run for callers whose items
// were already normalized at parse time.
func RunItems(primary []domain.LineItem, relatedSets []ItemSet, policy Policy) domain.ValidationResult {
	policy = policy.normalize()

	var (
		scored  []scoredFinding
		total   tally
		summary domain.Summary
	)
	for _, set := range relatedSets {
		pairs := Match(primary, set.Items, policy)
		setScored, t, s := evaluatePairs(pairs, policy)
		scored = append(scored, setScored...)
		total.add(t)
		addSummary(&summary, s)
	}
	return finalize(scored, total, summary)
}

// ValidateSingle is the two-document form: one related set, no merge.
func ValidateSingle(primaryDocID string, primaryItems []domain.RawLineItem, relatedDocID string, relatedItems []domain.RawLineItem, policy Policy) domain.ValidationResult {
	return Run(RunInput{
		PrimaryDocumentID: primaryDocID,
		PrimaryItems:      primaryItems,
		RelatedSets:       []RelatedSet{{DocumentID: relatedDocID, Items: relatedItems}},
	}, policy)
}

// skippedFindings converts lenient-normalization errors into warning
// findings so a malformed line is visible without blocking the run.
// Skipped lines never formed a pair, so they influence the overall
// status but stay out of the per-pair counts and the score.
func skippedFindings(errs []error) []scoredFinding {
	out := make([]scoredFinding, 0, len(errs))
	for _, err := range errs {
		out = append(out, scoredFinding{
			finding: domain.Finding{
				Category:   domain.CategoryMissing,
				Severity:   domain.SeverityMedium,
				Kind:       domain.FindingWarning,
				ItemLabel:  "malformed line",
				Suggestion: err.Error(),
			},
			severityRank: severityRank(domain.SeverityMedium),
		})
	}
	return out
}

func allInvalidResult() domain.ValidationResult {
	return domain.ValidationResult{
		Status: domain.ValidationError,
		Score:  0,
		Findings: []domain.Finding{{
			ID:         "finding-0001",
			Category:   domain.CategoryMissing,
			Severity:   domain.SeverityHigh,
			Kind:       domain.FindingError,
			ItemLabel:  "primary document",
			Suggestion: "no line item of the primary document could be normalized",
		}},
	}
}
