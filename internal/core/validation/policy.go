package validation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the behaviorally load-bearing thresholds of a validation
// run. Zero values fall back to the defaults below.
type Policy struct {
	// FuzzyThreshold is the minimum description similarity for the
	// fuzzy matching pass.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
	// PriceTolerance is the relative unit-price difference tolerated
	// before a price finding is emitted.
	PriceTolerance float64 `yaml:"price_tolerance"`
	// QuantityHighRelDiff is the relative quantity difference above
	// which a quantity finding escalates to high severity.
	QuantityHighRelDiff float64 `yaml:"quantity_high_rel_diff"`
	// TotalAbsEpsilon and TotalRelEpsilon define the line-total
	// comparison epsilon: max(abs, rel*magnitude).
	TotalAbsEpsilon float64 `yaml:"total_abs_epsilon"`
	TotalRelEpsilon float64 `yaml:"total_rel_epsilon"`
}

func DefaultPolicy() Policy {
	return Policy{
		FuzzyThreshold:      0.6,
		PriceTolerance:      0.01,
		QuantityHighRelDiff: 0.10,
		TotalAbsEpsilon:     0.01,
		TotalRelEpsilon:     0.001,
	}
}

func (p Policy) normalize() Policy {
	out := p
	def := DefaultPolicy()

	if out.FuzzyThreshold <= 0 || out.FuzzyThreshold > 1 {
		out.FuzzyThreshold = def.FuzzyThreshold
	}
	if out.PriceTolerance <= 0 {
		out.PriceTolerance = def.PriceTolerance
	}
	if out.QuantityHighRelDiff <= 0 {
		out.QuantityHighRelDiff = def.QuantityHighRelDiff
	}
	if out.TotalAbsEpsilon <= 0 {
		out.TotalAbsEpsilon = def.TotalAbsEpsilon
	}
	if out.TotalRelEpsilon <= 0 {
		out.TotalRelEpsilon = def.TotalRelEpsilon
	}
	return out
}

// LoadPolicyFile reads threshold overrides from a YAML file. An empty
// path returns the defaults.
func LoadPolicyFile(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}
	return p.normalize(), nil
}
