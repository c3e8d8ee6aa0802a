package engine

import (
	"fmt"

	"github.com/ecomlens/ecomlens/internal/patterns"
)

// Recommendation is the selected intervention pair plus every bucket
// that is plausibly relevant to the active driver set.
type Recommendation struct {
	Primary         patterns.Bucket `json:"primary"`
	Secondary       patterns.Bucket `json:"secondary"`
	RelevantBuckets []string        `json:"relevant_buckets"`
}

// SelectInterventions maps an active-driver set to a primary/secondary
// bucket pair using strict ordered first-match over the pattern's
// mapping rules, falling back to the declared defaults when nothing
// matches (including the empty driver set).
//
// A resolved bucket id with no bucket definition is a configuration-
// integrity failure and returns an error wrapping
// patterns.ErrBucketUndefined; it is never a recoverable per-session
// condition.
func SelectInterventions(activeDrivers []string, def patterns.Definition) (Recommendation, error) {
	active := make(map[string]bool, len(activeDrivers))
	for _, id := range activeDrivers {
		active[id] = true
	}

	primaryID := def.Mapping.DefaultPrimary
	secondaryID := def.Mapping.DefaultSecondary
	matched := false

	relevant := []string{}
	seen := map[string]bool{}
	addRelevant := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			relevant = append(relevant, id)
		}
	}

	for _, rule := range def.Mapping.Rules {
		if !mappingRuleSatisfied(rule, active) {
			continue
		}
		if !matched {
			matched = true
			primaryID = rule.Primary
			secondaryID = rule.Secondary
		}
		// Later satisfied rules still mark their buckets relevant even
		// though first-match decides the recommendation.
		addRelevant(rule.Primary)
		addRelevant(rule.Secondary)
	}
	addRelevant(def.Mapping.DefaultPrimary)
	addRelevant(def.Mapping.DefaultSecondary)

	primary, ok := def.BucketByID(primaryID)
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: pattern %s: primary %q",
			patterns.ErrBucketUndefined, def.ID, primaryID)
	}
	secondary, ok := def.BucketByID(secondaryID)
	if !ok {
		return Recommendation{}, fmt.Errorf("%w: pattern %s: secondary %q",
			patterns.ErrBucketUndefined, def.ID, secondaryID)
	}

	return Recommendation{
		Primary:         primary,
		Secondary:       secondary,
		RelevantBuckets: relevant,
	}, nil
}

func mappingRuleSatisfied(rule patterns.MappingRule, active map[string]bool) bool {
	for _, id := range rule.IncludeAll {
		if !active[id] {
			return false
		}
	}
	if len(rule.IncludeAny) > 0 {
		anyHit := false
		for _, id := range rule.IncludeAny {
			if active[id] {
				anyHit = true
				break
			}
		}
		if !anyHit {
			return false
		}
	}
	return true
}
