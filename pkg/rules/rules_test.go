package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/statgen/pkg/stats"
)

const sample = `
metrics:
  "Sales trend":
    - {threshold: 0.8, score: 1}
    - {threshold: 1.2, score: 3}
    - {threshold: 999, score: 5}
  "Credit (BT) Volatality":
    - threshold: 0.25
      score: 5
    - threshold: 0.5
      score: 3
`

func TestParse(t *testing.T) {
	set, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"Credit (BT) Volatality", "Sales trend"}, set.Metrics())

	list, ok := set.Lookup("Sales trend")
	require.True(t, ok)
	assert.Equal(t, []stats.Rule{{Threshold: 0.8, Score: 1}, {Threshold: 1.2, Score: 3}, {Threshold: 999, Score: 5}}, list)
	assert.Equal(t, 3, stats.Score(1.1, list))

	_, ok = set.Lookup("Purchase trend")
	assert.False(t, ok)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"descending", "metrics:\n  x:\n    - {threshold: 2, score: 1}\n    - {threshold: 1, score: 2}\n"},
		{"duplicate threshold", "metrics:\n  x:\n    - {threshold: 1, score: 1}\n    - {threshold: 1, score: 2}\n"},
		{"empty list", "metrics:\n  x: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidRules)
		})
	}

	_, err := Parse([]byte("metrics: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	set, err := Load(path)
	require.NoError(t, err)
	_, ok := set.Lookup("Credit (BT) Volatality")
	assert.True(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNilSet(t *testing.T) {
	var set *Set
	_, ok := set.Lookup("anything")
	assert.False(t, ok)
	assert.Empty(t, set.Metrics())
}
