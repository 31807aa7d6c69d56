// Package filter describes structured listing filters applied before text matching.
package filter

import "fmt"

// MaxConditions is the maximum number of conditions per expression.
const MaxConditions = 16

// Expression is a conjunction of filter conditions. All conditions must hold.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(conditions ...Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conditions}, nil
}

// Conditions returns the filter conditions.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Condition is a single filter clause: either a tag match or a numeric range.
type Condition struct {
	key       string
	match     string
	rangeExpr *Range
}

// NewMatch creates an exact tag match condition.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }

// Range returns the numeric range expression.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsMatch reports whether this is a match condition.
func (c Condition) IsMatch() bool { return c.match != "" }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

// Range is a numeric range with inclusive min/max boundaries.
type Range struct {
	min *float64
	max *float64
}

// NewRangeBounds validates and creates a Range. At least one boundary is required.
func NewRangeBounds(minVal, maxVal *float64) (Range, error) {
	if minVal == nil && maxVal == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if minVal != nil && maxVal != nil && *minVal > *maxVal {
		return Range{}, fmt.Errorf("range min %v exceeds max %v", *minVal, *maxVal)
	}
	return Range{min: minVal, max: maxVal}, nil
}

// Min returns the inclusive lower bound.
func (r Range) Min() *float64 { return r.min }

// Max returns the inclusive upper bound.
func (r Range) Max() *float64 { return r.max }
