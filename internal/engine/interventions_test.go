package engine

import (
	"errors"
	"testing"

	"github.com/ecomlens/ecomlens/internal/patterns"
)

func mappingDef() patterns.Definition {
	return patterns.Definition{
		ID:    "mapped",
		Stage: patterns.StagePreIntent,
		Tiers: patterns.Tiers{Low: 40, Medium: 60, High: 80},
		Rules: []patterns.Rule{{ID: "r1", Weight: 50, Conditions: []patterns.Condition{
			{Metric: "m1", Op: ">", Value: 0},
		}}},
		Drivers: []patterns.Driver{
			{ID: "d1", Label: "Driver one", Conditions: []patterns.Condition{{Metric: "m1", Op: ">", Value: 0}}},
			{ID: "d2", Label: "Driver two", Conditions: []patterns.Condition{{Metric: "m2", Op: ">", Value: 0}}},
			{ID: "d3", Label: "Driver three", Conditions: []patterns.Condition{{Metric: "m3", Op: ">", Value: 0}}},
		},
		Buckets: []patterns.Bucket{
			{ID: "b1", Name: "Bucket one"},
			{ID: "b2", Name: "Bucket two"},
			{ID: "b3", Name: "Bucket three"},
		},
		Mapping: patterns.Mapping{
			Rules: []patterns.MappingRule{
				{IncludeAll: []string{"d1", "d2"}, Primary: "b1", Secondary: "b2"},
				{IncludeAll: []string{"d1"}, Primary: "b2", Secondary: "b3"},
			},
			DefaultPrimary:   "b3",
			DefaultSecondary: "b1",
		},
	}
}

func TestSelectInterventionsFirstMatch(t *testing.T) {
	rec, err := SelectInterventions([]string{"d1", "d2"}, mappingDef())
	if err != nil {
		t.Fatalf("SelectInterventions: %v", err)
	}
	if rec.Primary.ID != "b1" || rec.Secondary.ID != "b2" {
		t.Errorf("got %s/%s, want b1/b2 (first satisfied rule wins)", rec.Primary.ID, rec.Secondary.ID)
	}
}

func TestSelectInterventionsSecondRule(t *testing.T) {
	rec, err := SelectInterventions([]string{"d1"}, mappingDef())
	if err != nil {
		t.Fatalf("SelectInterventions: %v", err)
	}
	if rec.Primary.ID != "b2" || rec.Secondary.ID != "b3" {
		t.Errorf("got %s/%s, want b2/b3", rec.Primary.ID, rec.Secondary.ID)
	}
}

// The empty driver set is not an error: the defaults apply.
func TestSelectInterventionsDefaults(t *testing.T) {
	rec, err := SelectInterventions(nil, mappingDef())
	if err != nil {
		t.Fatalf("SelectInterventions: %v", err)
	}
	if rec.Primary.ID != "b3" || rec.Secondary.ID != "b1" {
		t.Errorf("got %s/%s, want defaults b3/b1", rec.Primary.ID, rec.Secondary.ID)
	}
}

func TestSelectInterventionsRelevantBuckets(t *testing.T) {
	// Both rules are satisfied; the first decides the pair, but every
	// satisfied rule's buckets plus the defaults are relevant.
	rec, err := SelectInterventions([]string{"d1", "d2"}, mappingDef())
	if err != nil {
		t.Fatalf("SelectInterventions: %v", err)
	}
	want := []string{"b1", "b2", "b3"}
	if len(rec.RelevantBuckets) != len(want) {
		t.Fatalf("RelevantBuckets = %v, want %v", rec.RelevantBuckets, want)
	}
	for i, id := range want {
		if rec.RelevantBuckets[i] != id {
			t.Errorf("RelevantBuckets[%d] = %s, want %s", i, rec.RelevantBuckets[i], id)
		}
	}
}

func TestSelectInterventionsUndefinedBucket(t *testing.T) {
	def := mappingDef()
	def.Mapping.Rules[0].Primary = "missing"

	_, err := SelectInterventions([]string{"d1", "d2"}, def)
	if err == nil {
		t.Fatal("expected error for undefined bucket")
	}
	if !errors.Is(err, patterns.ErrBucketUndefined) {
		t.Errorf("error = %v, want ErrBucketUndefined", err)
	}
}

func TestMappingRuleIncludeAny(t *testing.T) {
	rule := patterns.MappingRule{IncludeAll: []string{"d1"}, IncludeAny: []string{"d2", "d3"}}

	if !mappingRuleSatisfied(rule, map[string]bool{"d1": true, "d3": true}) {
		t.Error("expected satisfied: all of IncludeAll plus one of IncludeAny")
	}
	if mappingRuleSatisfied(rule, map[string]bool{"d1": true}) {
		t.Error("expected not satisfied: IncludeAny has no active member")
	}
}

func TestActiveDriversOrderAndBinary(t *testing.T) {
	def := mappingDef()
	v := vec(map[string]float64{"m1": 1, "m3": 1})

	active := ActiveDrivers(v, def)
	if len(active) != 2 || active[0] != "d1" || active[1] != "d3" {
		t.Errorf("ActiveDrivers = %v, want [d1 d3] in definition order", active)
	}
}

// Drivers with no conditions never activate.
func TestActiveDriversSkipsEmpty(t *testing.T) {
	def := mappingDef()
	def.Drivers = append(def.Drivers, patterns.Driver{ID: "d4", Label: "No conditions"})

	active := ActiveDrivers(vec(map[string]float64{"m1": 1}), def)
	for _, id := range active {
		if id == "d4" {
			t.Error("driver without conditions should not be active")
		}
	}
}

func TestDriverLabel(t *testing.T) {
	def := mappingDef()
	if got := DriverLabel(def, "d2"); got != "Driver two" {
		t.Errorf("DriverLabel(d2) = %q", got)
	}
	if got := DriverLabel(def, "unknown"); got != "unknown" {
		t.Errorf("DriverLabel(unknown) = %q, want the id itself", got)
	}
}
