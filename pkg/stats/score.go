package stats

import "math"

// Rule maps values up to Threshold to Score.
type Rule struct {
	Threshold float64 `yaml:"threshold"`
	Score     int     `yaml:"score"`
}

// Score classifies value against rules, which must be in ascending threshold order.
// Zero and NaN score 0. The first rule with Threshold >= value wins; a value above
// every threshold gets the last rule's score.
func Score(value float64, rules []Rule) int {
	if value == 0 || math.IsNaN(value) || len(rules) == 0 {
		return 0
	}
	for _, r := range rules {
		if value <= r.Threshold {
			return r.Score
		}
	}
	return rules[len(rules)-1].Score
}
