package rule

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Mode selects which engine pass a rule participates in.
type Mode string

const (
	ModeSearch  Mode = "search"
	ModeTaint   Mode = "taint"
	ModeSteps   Mode = "steps"
	ModeExtract Mode = "extract"
	ModeSecrets Mode = "secrets"
)

// Rule is a compiled pattern/taint/extract specification. Rules are produced
// by the rule compiler and are never mutated by the execution core; they are
// shared read-only across all workers.
type Rule struct {
	ID       string `yaml:"id"`
	Language string `yaml:"language"`
	Mode     Mode   `yaml:"mode"`
	Severity string `yaml:"severity"`

	// Include and Exclude are path globs with ** semantics. An empty Include
	// list admits every path.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`

	// Pattern is the opaque payload handed to the matching engine.
	Pattern string `yaml:"pattern"`

	// NestedLanguage is the language of content located by an extract rule.
	NestedLanguage string `yaml:"nested_language"`
}

// AppliesTo reports whether the rule's path constraints admit the target path.
func (r *Rule) AppliesTo(path string) bool {
	for _, g := range r.Exclude {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return false
		}
	}
	if len(r.Include) == 0 {
		return true
	}
	for _, g := range r.Include {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Invalid describes a rule the compiler rejected. The core only reports it;
// the broken source never reaches the engine.
type Invalid struct {
	ID     string
	Reason string
}

// CompiledRules is the rule compiler's output: the usable rules plus the
// rejects, reported separately.
type CompiledRules struct {
	Valid   []Rule
	Invalid []Invalid
}

// Validate enforces the configuration-level contract: a run with no usable
// rule must fail before any scheduling happens.
func (cr *CompiledRules) Validate() error {
	if len(cr.Valid) == 0 {
		if len(cr.Invalid) > 0 {
			return fmt.Errorf("no valid rules: all %d supplied rules were rejected by the rule compiler", len(cr.Invalid))
		}
		return fmt.Errorf("no rules supplied")
	}
	return nil
}

// ByMode returns the subset of rules carrying any of the given modes,
// preserving the compiler's ordering.
func (cr *CompiledRules) ByMode(modes ...Mode) []Rule {
	want := make(map[Mode]bool, len(modes))
	for _, m := range modes {
		want[m] = true
	}
	var out []Rule
	for _, r := range cr.Valid {
		if want[r.Mode] {
			out = append(out, r)
		}
	}
	return out
}
