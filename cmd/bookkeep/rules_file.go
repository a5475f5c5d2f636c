package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/RACCHUS/BookkeepingApp-sub012/internal/model"
	"github.com/RACCHUS/BookkeepingApp-sub012/internal/pattern"
	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML document read by "rules import" and written by
// "rules export".
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

// ruleEntry decodes a rule with is_active defaulting to true.
type ruleEntry struct {
	model.ClassificationRule `yaml:",inline"`
}

func (e *ruleEntry) UnmarshalYAML(node *yaml.Node) error {
	type plain model.ClassificationRule
	rule := plain{IsActive: true}
	if err := node.Decode(&rule); err != nil {
		return err
	}
	e.ClassificationRule = model.ClassificationRule(rule)
	return nil
}

// decodeRules reads a rule file and validates every rule. Nothing is returned
// unless all rules are valid.
func decodeRules(r io.Reader) ([]model.ClassificationRule, error) {
	var file ruleFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("rule file is empty")
		}
		return nil, fmt.Errorf("failed to decode rule file: %w", err)
	}

	rules := make([]model.ClassificationRule, 0, len(file.Rules))
	var errs []error
	for i, entry := range file.Rules {
		rule := entry.ClassificationRule
		rule.ApplyDefaults()
		if err := pattern.ValidateRule(rule); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%s): %w", i+1, rule.Pattern, err))
			continue
		}
		rules = append(rules, rule)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rules, nil
}

func encodeRules(w io.Writer, rules []model.ClassificationRule) error {
	file := ruleFile{Rules: make([]ruleEntry, 0, len(rules))}
	for _, rule := range rules {
		file.Rules = append(file.Rules, ruleEntry{ClassificationRule: rule})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return enc.Close()
}
