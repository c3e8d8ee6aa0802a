package patterns

import (
	"errors"
	"fmt"
)

// Configuration-integrity errors. These indicate a broken pattern
// definition, not bad input data: the affected pattern is unusable and
// an operator should be alerted.
var (
	ErrInvalidDefinition = errors.New("invalid pattern definition")
	ErrBucketUndefined   = errors.New("mapping references undefined bucket")
)

var validOps = map[string]bool{
	">": true, ">=": true, "<": true, "<=": true, "==": true, "!=": true,
}

// Validate checks the structural integrity of a pattern definition.
// Every error wraps ErrInvalidDefinition or ErrBucketUndefined so
// callers can distinguish configuration errors from data errors.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDefinition)
	}
	if d.Stage != StagePreIntent && d.Stage != StagePostIntent {
		return fmt.Errorf("%w: pattern %s: stage must be %q or %q, got %q",
			ErrInvalidDefinition, d.ID, StagePreIntent, StagePostIntent, d.Stage)
	}
	if len(d.Rules) == 0 {
		return fmt.Errorf("%w: pattern %s: no rules", ErrInvalidDefinition, d.ID)
	}
	if !(d.Tiers.Low <= d.Tiers.Medium && d.Tiers.Medium <= d.Tiers.High) {
		return fmt.Errorf("%w: pattern %s: tiers must satisfy low <= medium <= high",
			ErrInvalidDefinition, d.ID)
	}

	ruleIDs := map[string]bool{}
	for i, r := range d.Rules {
		if r.ID == "" {
			return fmt.Errorf("%w: pattern %s: rule %d missing id", ErrInvalidDefinition, d.ID, i)
		}
		if ruleIDs[r.ID] {
			return fmt.Errorf("%w: pattern %s: duplicate rule id %s", ErrInvalidDefinition, d.ID, r.ID)
		}
		ruleIDs[r.ID] = true
		if r.Weight < 0 {
			return fmt.Errorf("%w: pattern %s: rule %s has negative weight", ErrInvalidDefinition, d.ID, r.ID)
		}
		if err := validateConditions(d.ID, r.Conditions); err != nil {
			return err
		}
	}
	for _, b := range d.Bonuses {
		if !validOps[b.Op] {
			return fmt.Errorf("%w: pattern %s: bonus condition has invalid operator %q",
				ErrInvalidDefinition, d.ID, b.Op)
		}
	}

	driverIDs := map[string]bool{}
	for _, dr := range d.Drivers {
		if dr.ID == "" {
			return fmt.Errorf("%w: pattern %s: driver missing id", ErrInvalidDefinition, d.ID)
		}
		if driverIDs[dr.ID] {
			return fmt.Errorf("%w: pattern %s: duplicate driver id %s", ErrInvalidDefinition, d.ID, dr.ID)
		}
		driverIDs[dr.ID] = true
		if err := validateConditions(d.ID, dr.Conditions); err != nil {
			return err
		}
	}

	bucketIDs := map[string]bool{}
	for _, b := range d.Buckets {
		if b.ID == "" {
			return fmt.Errorf("%w: pattern %s: bucket missing id", ErrInvalidDefinition, d.ID)
		}
		bucketIDs[b.ID] = true
	}

	for i, mr := range d.Mapping.Rules {
		for _, ref := range []string{mr.Primary, mr.Secondary} {
			if !bucketIDs[ref] {
				return fmt.Errorf("%w: pattern %s: mapping rule %d references %q",
					ErrBucketUndefined, d.ID, i, ref)
			}
		}
	}
	if !bucketIDs[d.Mapping.DefaultPrimary] {
		return fmt.Errorf("%w: pattern %s: default primary %q",
			ErrBucketUndefined, d.ID, d.Mapping.DefaultPrimary)
	}
	if !bucketIDs[d.Mapping.DefaultSecondary] {
		return fmt.Errorf("%w: pattern %s: default secondary %q",
			ErrBucketUndefined, d.ID, d.Mapping.DefaultSecondary)
	}

	return nil
}

func validateConditions(patternID string, conds []Condition) error {
	for _, c := range conds {
		if c.Metric == "" {
			return fmt.Errorf("%w: pattern %s: condition missing metric", ErrInvalidDefinition, patternID)
		}
		if !validOps[c.Op] {
			return fmt.Errorf("%w: pattern %s: condition on %s has invalid operator %q",
				ErrInvalidDefinition, patternID, c.Metric, c.Op)
		}
	}
	return nil
}
