package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validDef() Definition {
	return Definition{
		ID:    "cart_hesitation",
		Label: "Cart hesitation",
		Stage: StagePostIntent,
		Tiers: Tiers{Low: 40, Medium: 60, High: 80},
		Rules: []Rule{
			{ID: "r1", Weight: 50, Conditions: []Condition{
				{Metric: "cart_adds", Op: ">", Value: 0},
			}},
		},
		Drivers: []Driver{
			{ID: "d1", Label: "Price check loop", Conditions: []Condition{
				{Metric: "return_views", Op: ">=", Value: 2},
			}},
		},
		Buckets: []Bucket{
			{ID: "b1", Name: "Reassurance"},
			{ID: "b2", Name: "Urgency"},
		},
		Mapping: Mapping{
			Rules: []MappingRule{
				{IncludeAll: []string{"d1"}, Primary: "b1", Secondary: "b2"},
			},
			DefaultPrimary:   "b2",
			DefaultSecondary: "b1",
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validDef().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr error
	}{
		{"missing id", func(d *Definition) { d.ID = "" }, ErrInvalidDefinition},
		{"bad stage", func(d *Definition) { d.Stage = "mid_intent" }, ErrInvalidDefinition},
		{"no rules", func(d *Definition) { d.Rules = nil }, ErrInvalidDefinition},
		{"tier order", func(d *Definition) { d.Tiers = Tiers{Low: 80, Medium: 60, High: 40} }, ErrInvalidDefinition},
		{"duplicate rule id", func(d *Definition) { d.Rules = append(d.Rules, d.Rules[0]) }, ErrInvalidDefinition},
		{"negative weight", func(d *Definition) { d.Rules[0].Weight = -5 }, ErrInvalidDefinition},
		{"bad operator", func(d *Definition) { d.Rules[0].Conditions[0].Op = "=>" }, ErrInvalidDefinition},
		{"mapping bucket", func(d *Definition) { d.Mapping.Rules[0].Primary = "nope" }, ErrBucketUndefined},
		{"default bucket", func(d *Definition) { d.Mapping.DefaultPrimary = "nope" }, ErrBucketUndefined},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDef()
			tc.mutate(&d)
			err := d.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestEffectiveBonusCap(t *testing.T) {
	d := validDef()
	if got := d.EffectiveBonusCap(); got != DefaultBonusCap {
		t.Errorf("EffectiveBonusCap = %v, want default %v", got, DefaultBonusCap)
	}
	d.BonusCap = 25
	if got := d.EffectiveBonusCap(); got != 25 {
		t.Errorf("EffectiveBonusCap = %v, want 25", got)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	d := validDef()
	if _, err := NewRegistry(d, d); err == nil {
		t.Fatal("expected error for duplicate pattern id")
	}
}

func TestRegistryOrderAndGet(t *testing.T) {
	a := validDef()
	b := validDef()
	b.ID = "second"

	r, err := NewRegistry(a, b)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
	if all := r.All(); all[0].ID != a.ID || all[1].ID != "second" {
		t.Error("registration order not preserved")
	}
	if _, ok := r.Get("second"); !ok {
		t.Error("Get(second) not found")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) unexpectedly found")
	}
}

const singlePatternYAML = `
id: search_frustration
label: Search frustration
stage: pre_intent
tiers:
  low: 30
  medium: 50
  high: 70
rules:
  - id: many_searches
    weight: 60
    conditions:
      - metric: searches
        op: ">="
        value: 3
buckets:
  - id: better_search
    name: Better search
mapping:
  default_primary: better_search
  default_secondary: better_search
`

const patternListYAML = `
patterns:
  - id: first
    label: First
    stage: pre_intent
    tiers: {low: 30, medium: 50, high: 70}
    rules:
      - id: r1
        weight: 40
        conditions:
          - {metric: searches, op: ">", value: 1}
    buckets:
      - {id: b1, name: One}
    mapping:
      default_primary: b1
      default_secondary: b1
  - id: second
    label: Second
    stage: post_intent
    tiers: {low: 30, medium: 50, high: 70}
    rules:
      - id: r1
        weight: 40
        conditions:
          - {metric: cart_adds, op: ">", value: 0}
    buckets:
      - {id: b1, name: One}
    mapping:
      default_primary: b1
      default_secondary: b1
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoadFileSingle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "single.yml", singlePatternYAML)

	defs, err := LoadFile(filepath.Join(dir, "single.yml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "search_frustration" {
		t.Fatalf("defs = %+v", defs)
	}
	if defs[0].Rules[0].Conditions[0].Op != ">=" {
		t.Errorf("condition op = %q", defs[0].Rules[0].Conditions[0].Op)
	}
}

func TestLoadFileList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "list.yml", patternListYAML)

	defs, err := LoadFile(filepath.Join(dir, "list.yml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
}

func TestLoadDirSortedAndValidated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yml", singlePatternYAML)
	writeFile(t, dir, "a.yml", patternListYAML)
	writeFile(t, dir, "ignored.txt", "not yaml")

	defs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	// a.yml loads before b.yml.
	if defs[0].ID != "first" || defs[2].ID != "search_frustration" {
		t.Errorf("load order = %s, %s, %s", defs[0].ID, defs[1].ID, defs[2].ID)
	}
}

func TestLoadDirBrokenFileFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.yml", singlePatternYAML)
	writeFile(t, dir, "broken.yml", "id: broken\nstage: pre_intent\n")

	if _, err := LoadDir(dir); err == nil {
		t.Fatal("expected error for invalid definition")
	}
}

func TestBuiltinDefinitionsValid(t *testing.T) {
	defs := Builtin()
	if len(defs) == 0 {
		t.Fatal("no builtin patterns")
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			t.Errorf("builtin %s: %v", d.ID, err)
		}
	}

	if _, err := BuiltinRegistry(); err != nil {
		t.Fatalf("BuiltinRegistry: %v", err)
	}
}
