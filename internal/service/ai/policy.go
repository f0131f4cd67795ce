package ai

import "strings"

// Shape names the sampling parameter layout a model accepts.
type Shape string

const (
	// ShapeStandard sends max_tokens and temperature.
	ShapeStandard Shape = "standard"
	// ShapeReasoning sends max_completion_tokens and no temperature.
	ShapeReasoning Shape = "reasoning"
)

const (
	defaultTokenCap    = 1000
	defaultTemperature = 0.7
)

// Sampling is the parameter set attached to a request.
type Sampling struct {
	Shape       Shape    `json:"shape"`
	TokenCap    int      `json:"tokenCap"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// PolicyRule maps a model-name prefix to a sampling parameter set.
type PolicyRule struct {
	Prefix   string
	Sampling Sampling
}

// PolicyTable selects sampling parameters by model name. Rules are checked
// in order and the first matching prefix wins.
type PolicyTable struct {
	Rules    []PolicyRule
	Fallback Sampling
}

// DefaultPolicies returns the built-in table: o1/o3 models get a completion
// token cap and no temperature, everything else a token cap and 0.7.
func DefaultPolicies() PolicyTable {
	reasoning := Sampling{Shape: ShapeReasoning, TokenCap: defaultTokenCap}
	temperature := defaultTemperature
	return PolicyTable{
		Rules: []PolicyRule{
			{Prefix: "o1", Sampling: reasoning},
			{Prefix: "o3", Sampling: reasoning},
		},
		Fallback: Sampling{Shape: ShapeStandard, TokenCap: defaultTokenCap, Temperature: &temperature},
	}
}

// Lookup returns the sampling parameters for model.
func (t PolicyTable) Lookup(model string) Sampling {
	for _, rule := range t.Rules {
		if strings.HasPrefix(model, rule.Prefix) {
			return rule.Sampling
		}
	}
	return t.Fallback
}

// With returns a copy of the table with rule checked before the existing ones.
func (t PolicyTable) With(rule PolicyRule) PolicyTable {
	rules := make([]PolicyRule, 0, len(t.Rules)+1)
	rules = append(rules, rule)
	rules = append(rules, t.Rules...)
	return PolicyTable{Rules: rules, Fallback: t.Fallback}
}

func (s Sampling) apply(req *Request) {
	tokenCap := s.TokenCap
	switch s.Shape {
	case ShapeReasoning:
		req.MaxCompletionTokens = &tokenCap
	default:
		req.MaxTokens = &tokenCap
	}
	if s.Temperature != nil && s.Shape != ShapeReasoning {
		temperature := *s.Temperature
		req.Temperature = &temperature
	}
}
