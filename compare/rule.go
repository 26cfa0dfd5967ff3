package compare

import (
	"fmt"
	"regexp"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/shopspring/decimal"

	"github.com/shibukawa/snapcheck/definition"
)

// valueRule decides whether one non-NULL value is valid.
type valueRule interface {
	// predicate returns a SQL condition selecting invalid rows, or "" when the rule is evaluated client side.
	predicate(column string) string
	valid(v any) bool
	describe() string
}

// rangeRule checks min_value <= value <= max_value in SQL.
type rangeRule struct {
	min, max *decimal.Decimal
}

func (r rangeRule) predicate(column string) string {
	switch {
	case r.min != nil && r.max != nil:
		return fmt.Sprintf("(%s < %s OR %s > %s)", column, r.min.String(), column, r.max.String())
	case r.min != nil:
		return fmt.Sprintf("%s < %s", column, r.min.String())
	default:
		return fmt.Sprintf("%s > %s", column, r.max.String())
	}
}

func (r rangeRule) valid(any) bool { return true }

func (r rangeRule) describe() string {
	switch {
	case r.min != nil && r.max != nil:
		return fmt.Sprintf("outside range [%s, %s]", r.min, r.max)
	case r.min != nil:
		return fmt.Sprintf("below minimum %s", r.min)
	default:
		return fmt.Sprintf("above maximum %s", r.max)
	}
}

// patternRule matches the textual form of each value against a regular expression.
type patternRule struct {
	re *regexp.Regexp
}

func (r patternRule) predicate(string) string { return "" }

func (r patternRule) valid(v any) bool {
	return r.re.MatchString(definition.CellString(v))
}

func (r patternRule) describe() string {
	return fmt.Sprintf("not matching pattern %s", r.re)
}

// exprRule evaluates a CEL boolean expression with the column value bound to "value".
type exprRule struct {
	source  string
	program cel.Program
}

func (r exprRule) predicate(string) string { return "" }

// valid treats evaluation errors and non-boolean results as violations.
func (r exprRule) valid(v any) bool {
	result, _, err := r.program.Eval(map[string]any{"value": v})
	if err != nil {
		return false
	}

	b, ok := result.(types.Bool)

	return ok && bool(b)
}

func (r exprRule) describe() string {
	return fmt.Sprintf("failing rule %s", r.source)
}

func newExprRule(expression string) (exprRule, error) {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return exprRule{}, err
	}

	ast, issues := env.Compile(expression)
	if issues.Err() != nil {
		return exprRule{}, fmt.Errorf("%w: failed to compile expression '%s': %w", ErrInvalidRule, expression, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return exprRule{}, fmt.Errorf("%w: failed to create program for expression '%s': %w", ErrInvalidRule, expression, err)
	}

	return exprRule{source: expression, program: program}, nil
}

// parseRule builds the invalid-value rule from min_value/max_value, pattern or rule_expr.
// It returns nil when none is declared.
func parseRule(params definition.Params) (valueRule, error) {
	if expr := params.Value("rule_expr", ""); expr != "" {
		return newExprRule(expr)
	}

	if pattern := params.Value("pattern", ""); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern '%s': %w", ErrInvalidRule, pattern, err)
		}

		return patternRule{re: re}, nil
	}

	var r rangeRule

	for key, dst := range map[string]**decimal.Decimal{"min_value": &r.min, "max_value": &r.max} {
		raw := params.Value(key, "")
		if raw == "" {
			continue
		}

		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s '%s'", ErrInvalidParameter, key, raw)
		}

		*dst = &d
	}

	if r.min == nil && r.max == nil {
		return nil, nil
	}

	return r, nil
}
