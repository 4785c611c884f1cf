package extractor

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Field names a target of the label rules.
type Field string

const (
	FieldModel        Field = "model"
	FieldSerial       Field = "serial"
	FieldPartNumber   Field = "part_number"
	FieldManufacturer Field = "manufacturer"
)

// RuleSet is the YAML rule table.
type RuleSet struct {
	Version  int         `yaml:"version"`
	Rules    []Rule      `yaml:"rules"`
	Classes  []Class     `yaml:"classes"`
	Fallback ClassConfig `yaml:"fallback"`
}

// Rule maps label synonyms to one field.
type Rule struct {
	Field  Field    `yaml:"field"`
	Labels []string `yaml:"labels"`
}

// Class assigns an item type and category when any keyword appears.
type Class struct {
	ItemType string   `yaml:"item_type"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// ClassConfig is the classification used when no class matches.
type ClassConfig struct {
	ItemType string `yaml:"item_type"`
	Category string `yaml:"category"`
}

// LoadRuleSet reads a rule table from path. An empty path returns the
// embedded default table.
func LoadRuleSet(path string) (*RuleSet, error) {
	data := defaultRules
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rule table: %w", err)
		}
		data = raw
	}
	return ParseRuleSet(data)
}

// ParseRuleSet decodes and validates a YAML rule table.
func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate checks that every rule names a known field and has labels.
func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("rule table has no rules")
	}
	for i, r := range rs.Rules {
		switch r.Field {
		case FieldModel, FieldSerial, FieldPartNumber, FieldManufacturer:
		default:
			return fmt.Errorf("rule %d: unknown field %q", i, r.Field)
		}
		if len(r.Labels) == 0 {
			return fmt.Errorf("rule %d (%s): no labels", i, r.Field)
		}
		for _, l := range r.Labels {
			if strings.TrimSpace(l) == "" {
				return fmt.Errorf("rule %d (%s): blank label", i, r.Field)
			}
		}
	}
	for i, c := range rs.Classes {
		if strings.TrimSpace(c.ItemType) == "" {
			return fmt.Errorf("class %d: item_type required", i)
		}
	}
	return nil
}
