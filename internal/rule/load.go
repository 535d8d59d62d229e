package rule

import (
	"fmt"

	"github.com/sastkit/sastkit/pkg/shared/config"
)

// ruleFile mirrors the on-disk YAML rule file consumed by the CLI.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a YAML rule file and splits its entries into valid and
// invalid rules. Structural problems (missing id, unknown mode, extract rule
// without a nested language) make a rule invalid; pattern payloads are NOT
// compiled here, they stay opaque until the engine first uses them.
func LoadFile(path string) (*CompiledRules, error) {
	var rf ruleFile
	if err := config.LoadYAML(path, &rf); err != nil {
		return nil, fmt.Errorf("failed to load rule file %q: %w", path, err)
	}

	compiled := &CompiledRules{}
	for i, r := range rf.Rules {
		if reason := checkRule(&r); reason != "" {
			id := r.ID
			if id == "" {
				id = fmt.Sprintf("rule[%d]", i)
			}
			compiled.Invalid = append(compiled.Invalid, Invalid{ID: id, Reason: reason})
			continue
		}
		compiled.Valid = append(compiled.Valid, r)
	}
	return compiled, nil
}

func checkRule(r *Rule) string {
	if r.ID == "" {
		return "missing id"
	}
	if r.Language == "" {
		return "missing language"
	}
	if r.Pattern == "" {
		return "missing pattern"
	}
	switch r.Mode {
	case ModeSearch, ModeTaint, ModeSteps, ModeSecrets:
		return ""
	case ModeExtract:
		if r.NestedLanguage == "" {
			return "extract rule without nested_language"
		}
		return ""
	case "":
		return "missing mode"
	default:
		return fmt.Sprintf("unknown mode %q", r.Mode)
	}
}
