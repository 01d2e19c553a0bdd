package skills

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed category_weights.yaml
var defaultWeightsYAML string

const neutralWeight = 1.0

// Weights maps a skill category to its weight.
type Weights map[string]float64

// WeightTable holds per-role category weights plus the table used for roles
// that have none. Keys are matched case-insensitively.
type WeightTable struct {
	Default Weights            `yaml:"default"`
	Roles   map[string]Weights `yaml:"roles"`
}

// DefaultWeights returns the built-in weight table.
func DefaultWeights() *WeightTable {
	table, err := LoadWeights(strings.NewReader(defaultWeightsYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded category weights are invalid: %v", err))
	}
	return table
}

// LoadWeights decodes a YAML weight table. Negative weights are rejected.
func LoadWeights(r io.Reader) (*WeightTable, error) {
	var raw WeightTable
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode category weights: %w", err)
	}

	table := &WeightTable{
		Default: make(Weights, len(raw.Default)),
		Roles:   make(map[string]Weights, len(raw.Roles)),
	}

	if err := copyWeights(table.Default, raw.Default, "default"); err != nil {
		return nil, err
	}
	for role, weights := range raw.Roles {
		normalized := make(Weights, len(weights))
		if err := copyWeights(normalized, weights, role); err != nil {
			return nil, err
		}
		table.Roles[normalize(role)] = normalized
	}

	return table, nil
}

func copyWeights(dst, src Weights, table string) error {
	for category, w := range src {
		if w < 0 {
			return fmt.Errorf("category %q in %q table has negative weight %v", category, table, w)
		}
		dst[normalize(category)] = w
	}
	return nil
}

// Weight returns the weight of category for role. A role with its own table
// never consults the default one; unlisted categories weigh 1.0.
func (t *WeightTable) Weight(role, category string) float64 {
	if t == nil {
		return neutralWeight
	}

	weights, ok := t.Roles[normalize(role)]
	if !ok {
		weights = t.Default
	}
	if w, ok := weights[normalize(category)]; ok {
		return w
	}
	return neutralWeight
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
