package patterns

// Stage tags whether a pattern is hypothesized to occur before or after
// purchase intent forms. It selects the eligible-session population and
// conversion-rate assumption for revenue estimates.
type Stage string

const (
	StagePreIntent  Stage = "pre_intent"
	StagePostIntent Stage = "post_intent"
)

// DefaultBonusCap limits the total bonus points a pattern may add on
// top of its rule score when the definition does not set its own cap.
const DefaultBonusCap = 10.0

// Condition compares one feature metric against a threshold. Operators
// are the literal comparison symbols: > >= < <= == !=.
type Condition struct {
	Metric string  `yaml:"metric" json:"metric"`
	Op     string  `yaml:"op" json:"op"`
	Value  float64 `yaml:"value" json:"value"`
}

// Rule is a weighted conjunction of conditions. The rule fires only if
// every condition holds, contributing its full weight to the score.
type Rule struct {
	ID         string      `yaml:"id" json:"id"`
	Weight     float64     `yaml:"weight" json:"weight"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// BonusCondition adds points on top of the rule score when it holds.
type BonusCondition struct {
	Condition `yaml:",inline"`
	Points    float64 `yaml:"points" json:"points"`
}

// Tiers holds the cumulative-score cutoffs for each confidence tier.
// The cutoffs are inclusive and must satisfy low <= medium <= high.
type Tiers struct {
	Low    float64 `yaml:"low" json:"low"`
	Medium float64 `yaml:"medium" json:"medium"`
	High   float64 `yaml:"high" json:"high"`
}

// Driver is a qualitative, binary explanatory factor. It is active for
// a session iff every condition holds.
type Driver struct {
	ID         string      `yaml:"id" json:"id"`
	Label      string      `yaml:"label" json:"label"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
}

// Bucket is a named category of recommended remediation.
type Bucket struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description" json:"description"`
	WhyItWorks     string   `yaml:"why_it_works" json:"why_it_works"`
	ExampleActions []string `yaml:"example_actions" json:"example_actions"`
}

// MappingRule matches an active-driver set to an intervention pair.
// The rule is satisfied when every id in IncludeAll is active and, if
// IncludeAny is non-empty, at least one of its ids is active.
type MappingRule struct {
	IncludeAll []string `yaml:"drivers_include_all" json:"drivers_include_all"`
	IncludeAny []string `yaml:"drivers_include" json:"drivers_include"`
	Primary    string   `yaml:"primary" json:"primary"`
	Secondary  string   `yaml:"secondary" json:"secondary"`
}

// Mapping is an ordered list of mapping rules plus unconditional
// defaults. Selection is strict first-match: the first satisfied rule
// wins, regardless of how specific later rules are. Overlapping rules
// should therefore be ordered most-specific-first by the pattern
// author; whether overlap ought instead to be ranked by specificity is
// an open product question.
type Mapping struct {
	Rules            []MappingRule `yaml:"rules" json:"rules"`
	DefaultPrimary   string        `yaml:"default_primary" json:"default_primary"`
	DefaultSecondary string        `yaml:"default_secondary" json:"default_secondary"`
}

// Definition is one behavioral friction pattern, fully declarative.
// Definitions are plain values: the engine never mutates them and the
// same definition can be evaluated against any number of sessions.
type Definition struct {
	ID       string `yaml:"id" json:"id"`
	Label    string `yaml:"label" json:"label"`
	Category string `yaml:"category" json:"category"`
	Stage    Stage  `yaml:"stage" json:"stage"`

	Rules    []Rule           `yaml:"rules" json:"rules"`
	Tiers    Tiers            `yaml:"tiers" json:"tiers"`
	Bonuses  []BonusCondition `yaml:"bonuses" json:"bonuses"`
	BonusCap float64          `yaml:"bonus_cap" json:"bonus_cap"`

	Drivers []Driver `yaml:"drivers" json:"drivers"`
	Buckets []Bucket `yaml:"buckets" json:"buckets"`
	Mapping Mapping  `yaml:"mapping" json:"mapping"`

	// ConversionOverride replaces the store-wide conversion rate in
	// revenue estimates when non-zero. Post-intent patterns typically
	// declare one, since sessions already showing intent convert far
	// above the store baseline.
	ConversionOverride float64 `yaml:"conversion_override" json:"conversion_override"`
}

// EffectiveBonusCap returns the pattern's bonus cap, falling back to
// the default when the definition leaves it unset.
func (d Definition) EffectiveBonusCap() float64 {
	if d.BonusCap > 0 {
		return d.BonusCap
	}
	return DefaultBonusCap
}

// BucketByID returns the bucket definition for an id.
func (d Definition) BucketByID(id string) (Bucket, bool) {
	for _, b := range d.Buckets {
		if b.ID == id {
			return b, true
		}
	}
	return Bucket{}, false
}
