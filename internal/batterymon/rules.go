package batterymon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knetic/govaluate"
)

// Rule raises an alert when its expression holds. Expressions see two
// parameters, level (0..100) and charging (bool), plus the function
// between(x, lo, hi). "{level}" in Title or Message is replaced with
// the battery level.
type Rule struct {
	Name    string `mapstructure:"name" yaml:"name"`
	When    string `mapstructure:"when" yaml:"when"`
	Title   string `mapstructure:"title" yaml:"title"`
	Message string `mapstructure:"message" yaml:"message"`
}

// DefaultRules are evaluated in order; the first match wins.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "low",
			When:    "level <= 15 && !charging",
			Title:   "Low Battery Warning",
			Message: "Battery level is {level}%. Please charge your device.",
		},
		{
			Name:    "almost_full",
			When:    "level >= 90 && charging",
			Title:   "Battery Almost Full",
			Message: "Battery level is {level}%. Consider unplugging to preserve battery health.",
		},
		{
			Name:    "full",
			When:    "level == 100",
			Title:   "Battery Full",
			Message: "Battery is fully charged. Unplug to preserve battery health.",
		},
	}
}

// Render returns the title and message with {level} substituted.
func (r Rule) Render(level int) (title, message string) {
	lv := strconv.Itoa(level)
	return strings.ReplaceAll(r.Title, "{level}", lv), strings.ReplaceAll(r.Message, "{level}", lv)
}

var ruleFunctions = map[string]govaluate.ExpressionFunction{
	"between": func(args ...interface{}) (interface{}, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("between expects 3 arguments, got %d", len(args))
		}
		x, ok1 := args[0].(float64)
		lo, ok2 := args[1].(float64)
		hi, ok3 := args[2].(float64)
		if !ok1 || !ok2 || !ok3 {
			return nil, fmt.Errorf("between expects numbers")
		}
		return x >= lo && x <= hi, nil
	},
}

// RuleSet is a compiled, ordered list of rules.
type RuleSet struct {
	rules []Rule
	exprs []*govaluate.EvaluableExpression
}

// CompileRules parses every rule expression. Rule names must be unique
// and non-empty.
func CompileRules(rules []Rule) (*RuleSet, error) {
	rs := &RuleSet{}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: missing name", i)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %q: duplicate name", r.Name)
		}
		seen[r.Name] = true

		expr, err := govaluate.NewEvaluableExpressionWithFunctions(r.When, ruleFunctions)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		rs.rules = append(rs.rules, r)
		rs.exprs = append(rs.exprs, expr)
	}
	return rs, nil
}

// Match returns the first rule that holds, or nil when none does.
func (rs *RuleSet) Match(level int, charging bool) (*Rule, error) {
	params := map[string]interface{}{
		"level":    float64(level),
		"charging": charging,
	}
	for i, expr := range rs.exprs {
		result, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rs.rules[i].Name, err)
		}
		matched, ok := result.(bool)
		if !ok {
			return nil, fmt.Errorf("rule %q: result %v is not a boolean", rs.rules[i].Name, result)
		}
		if matched {
			r := rs.rules[i]
			return &r, nil
		}
	}
	return nil, nil
}
