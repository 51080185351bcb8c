package domain

import "time"

type MatchKind string

const (
	MatchExactCode        MatchKind = "exact-code"
	MatchFuzzyDescription MatchKind = "fuzzy-description"
	MatchUnmatchedPrimary MatchKind = "unmatched-primary"
	MatchUnmatchedRelated MatchKind = "unmatched-related"
)

// MatchPair is the correspondence (or lack of one) between a primary and
// a related line item. Exactly one of Primary/Related is nil for the
// unmatched kinds.
type MatchPair struct {
	Primary    *LineItem `json:"primary_item,omitempty"`
	Related    *LineItem `json:"related_item,omitempty"`
	Kind       MatchKind `json:"match_kind"`
	Confidence float64   `json:"confidence"`
}

type FindingCategory string

const (
	CategoryQuantity    FindingCategory = "quantity"
	CategoryPrice       FindingCategory = "price"
	CategoryDescription FindingCategory = "description"
	CategoryTotal       FindingCategory = "total"
	CategoryMissing     FindingCategory = "missing"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

type FindingKind string

const (
	FindingError   FindingKind = "error"
	FindingWarning FindingKind = "warning"
	FindingInfo    FindingKind = "info"
)

// Finding is one reportable comparison outcome: a discrepancy, a missing
// item, or an info confirmation for a clean pair.
type Finding struct {
	ID           string          `json:"id"`
	Category     FindingCategory `json:"category"`
	Severity     Severity        `json:"severity"`
	Kind         FindingKind     `json:"kind"`
	ItemLabel    string          `json:"item_label"`
	PrimaryValue any             `json:"primary_value,omitempty"`
	RelatedValue any             `json:"related_value,omitempty"`
	Suggestion   string          `json:"suggestion,omitempty"`
}

type ValidationStatus string

const (
	ValidationSuccess ValidationStatus = "success"
	ValidationWarning ValidationStatus = "warning"
	ValidationError   ValidationStatus = "error"
)

// Summary counts per-category field agreement across all compared pairs.
type Summary struct {
	QuantityMatches    int `json:"quantity_matches"`
	PriceMatches       int `json:"price_matches"`
	DescriptionMatches int `json:"description_matches"`
	TotalMatches       int `json:"total_matches"`
}

// ValidationResult is the aggregate output of one validation run.
type ValidationResult struct {
	Status          ValidationStatus `json:"status"`
	Score           int              `json:"score"`
	TotalItems      int              `json:"total_items"`
	ConsistentItems int              `json:"consistent_items"`
	WarningItems    int              `json:"warning_items"`
	ErrorItems      int              `json:"error_items"`
	Findings        []Finding        `json:"findings"`
	Summary         Summary          `json:"summary"`
}

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ValidationRun is the persisted record of one validation of a group.
type ValidationRun struct {
	ID        string            `json:"id"`
	GroupID   string            `json:"group_id"`
	Status    RunStatus         `json:"status"`
	Result    *ValidationResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	PushedAt  *time.Time        `json:"pushed_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
