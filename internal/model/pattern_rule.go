// Package model defines the core data structures shared by the parsers and the rule engine.
package model

import (
	"fmt"
	"time"
)

// PatternType controls how a rule pattern is compared to a description.
type PatternType string

// Pattern type constants.
const (
	PatternContains   PatternType = "contains"
	PatternExact      PatternType = "exact"
	PatternStartsWith PatternType = "starts_with"
	PatternEndsWith   PatternType = "ends_with"
	PatternRegex      PatternType = "regex"
)

// Valid reports whether p is a known pattern type.
func (p PatternType) Valid() bool {
	switch p {
	case PatternContains, PatternExact, PatternStartsWith, PatternEndsWith, PatternRegex:
		return true
	}
	return false
}

// AmountDirection restricts a rule to income, expenses, or either.
type AmountDirection string

// Amount direction constants.
const (
	DirectionPositive AmountDirection = "positive"
	DirectionNegative AmountDirection = "negative"
	DirectionAny      AmountDirection = "any"
)

// Valid reports whether d is a known direction.
func (d AmountDirection) Valid() bool {
	switch d {
	case DirectionPositive, DirectionNegative, DirectionAny:
		return true
	}
	return false
}

// Allows reports whether a transaction of the given kind satisfies the direction.
// Transfers only satisfy DirectionAny.
func (d AmountDirection) Allows(kind TransactionKind) bool {
	switch d {
	case DirectionPositive:
		return kind == KindIncome
	case DirectionNegative:
		return kind == KindExpense
	case DirectionAny:
		return true
	}
	return false
}

// RuleScope separates shared rules from rules owned by a single user.
type RuleScope string

// Rule scope constants.
const (
	ScopeGlobal RuleScope = "global"
	ScopeUser   RuleScope = "user"
)

// Valid reports whether s is a known scope.
func (s RuleScope) Valid() bool {
	return s == ScopeGlobal || s == ScopeUser
}

// ClassificationRule maps a description pattern to a category.
type ClassificationRule struct {
	CreatedAt   time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time       `json:"updated_at" yaml:"-"`
	Name        string          `json:"name" yaml:"name"`
	Pattern     string          `json:"pattern" yaml:"pattern"`
	PatternType PatternType     `json:"pattern_type" yaml:"pattern_type"`
	Category    string          `json:"category" yaml:"category"`
	Subcategory string          `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Direction   AmountDirection `json:"direction" yaml:"direction"`
	Scope       RuleScope       `json:"scope" yaml:"scope"`
	OwnerID     string          `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	ID          int             `json:"id" yaml:"-"`
	Priority    int             `json:"priority" yaml:"priority"`
	MatchCount  int             `json:"match_count" yaml:"-"`
	IsActive    bool            `json:"is_active" yaml:"is_active"`
	HighTrust   bool            `json:"high_trust" yaml:"high_trust"`
}

// ApplyDefaults fills zero-valued enum fields with their defaults.
func (r *ClassificationRule) ApplyDefaults() {
	if r.PatternType == "" {
		r.PatternType = PatternContains
	}
	if r.Direction == "" {
		r.Direction = DirectionAny
	}
	if r.Scope == "" {
		r.Scope = ScopeGlobal
	}
}

// Validate checks the structural fields of a rule. Regex compilation is checked by the
// pattern package.
func (r *ClassificationRule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("pattern is required")
	}
	if r.Category == "" {
		return fmt.Errorf("category is required")
	}
	if !r.PatternType.Valid() {
		return fmt.Errorf("invalid pattern type %q", r.PatternType)
	}
	if !r.Direction.Valid() {
		return fmt.Errorf("invalid direction %q", r.Direction)
	}
	if !r.Scope.Valid() {
		return fmt.Errorf("invalid scope %q", r.Scope)
	}
	if r.Scope == ScopeUser && r.OwnerID == "" {
		return fmt.Errorf("user-scoped rules require an owner")
	}
	if r.Scope == ScopeGlobal && r.OwnerID != "" {
		return fmt.Errorf("global rules cannot have an owner")
	}
	return nil
}
