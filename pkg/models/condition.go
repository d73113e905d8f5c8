// Package models defines the core domain models for declarative workflow execution.
package models

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Operator is a comparison operator usable in step conditions.
type Operator string

const (
	OperatorEq       Operator = "eq"
	OperatorNeq      Operator = "neq"
	OperatorGt       Operator = "gt"
	OperatorLt       Operator = "lt"
	OperatorGte      Operator = "gte"
	OperatorLte      Operator = "lte"
	OperatorContains Operator = "contains"
	OperatorRegex    Operator = "regex"
	OperatorIn       Operator = "in"
)

// Condition compares a context field against a literal value.
type Condition struct {
	Field    string   `json:"field"    validate:"required"`
	Operator Operator `json:"operator" validate:"required"`
	Value    any      `json:"value"`
}

// Evaluate resolves the condition's field from the context and applies the
// operator. A missing field resolves to nil, an unknown operator evaluates
// to false. Evaluation never mutates the context.
func (c *Condition) Evaluate(ctx Context) bool {
	fieldValue, _ := ctx.Get(c.Field)

	switch c.Operator {
	case OperatorEq:
		return looseEqual(fieldValue, c.Value)
	case OperatorNeq:
		return !looseEqual(fieldValue, c.Value)
	case OperatorGt:
		cmp, ok := compare(fieldValue, c.Value)

		return ok && cmp > 0
	case OperatorLt:
		cmp, ok := compare(fieldValue, c.Value)

		return ok && cmp < 0
	case OperatorGte:
		cmp, ok := compare(fieldValue, c.Value)

		return ok && cmp >= 0
	case OperatorLte:
		cmp, ok := compare(fieldValue, c.Value)

		return ok && cmp <= 0
	case OperatorContains:
		return strings.Contains(stringify(fieldValue), stringify(c.Value))
	case OperatorRegex:
		pattern, err := regexp.Compile(stringify(c.Value))
		if err != nil {
			return false
		}

		return pattern.MatchString(stringify(fieldValue))
	case OperatorIn:
		return membership(fieldValue, c.Value)
	default:
		return false
	}
}

// looseEqual compares two values with numeric normalization, so that an
// int written by Go code equals the float64 a JSON template carries.
func looseEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	if aok && bok {
		return af == bf
	}

	return reflect.DeepEqual(a, b)
}

// compare orders two values numerically when both convert to a number,
// lexicographically otherwise. ok is false when either side is nil.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)

	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	return strings.Compare(stringify(a), stringify(b)), true
}

func membership(fieldValue, compareValue any) bool {
	rv := reflect.ValueOf(compareValue)
	if compareValue == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}

	for i := range rv.Len() {
		if looseEqual(fieldValue, rv.Index(i).Interface()) {
			return true
		}
	}

	return false
}

func toFloat(v any) (float64, bool) {
	switch typed := v.(type) {
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}
