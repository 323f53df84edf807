// Package rules loads the scoring thresholds applied to computed report metrics.
package rules

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/shunichi-ikebuchi/statgen/pkg/stats"
)

// ErrInvalidRules is returned when a rules file is structurally wrong.
var ErrInvalidRules = errors.New("invalid scoring rules")

// File is the YAML layout of a rules file:
//
//	metrics:
//	  "Sales trend":
//	    - {threshold: 0.8, score: 1}
//	    - {threshold: 1.2, score: 3}
//	    - {threshold: 999, score: 5}
type File struct {
	Metrics map[string][]stats.Rule `yaml:"metrics"`
}

// Set maps scoring metric names to their ascending rule lists.
type Set struct {
	byMetric map[string][]stats.Rule
}

// Load reads and validates a rules file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates rules from YAML.
func Parse(data []byte) (*Set, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	set := &Set{byMetric: make(map[string][]stats.Rule, len(file.Metrics))}
	for metric, list := range file.Metrics {
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: metric %q has no rules", ErrInvalidRules, metric)
		}
		for i := 1; i < len(list); i++ {
			if list[i].Threshold <= list[i-1].Threshold {
				return nil, fmt.Errorf("%w: metric %q thresholds must be strictly ascending", ErrInvalidRules, metric)
			}
		}
		set.byMetric[metric] = append([]stats.Rule(nil), list...)
	}
	return set, nil
}

// Lookup returns the rules configured for metric.
// A nil Set has no rules.
func (s *Set) Lookup(metric string) ([]stats.Rule, bool) {
	if s == nil {
		return nil, false
	}
	list, ok := s.byMetric[metric]
	return list, ok
}

// Metrics returns the configured metric names, sorted.
func (s *Set) Metrics() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.byMetric))
	for name := range s.byMetric {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
