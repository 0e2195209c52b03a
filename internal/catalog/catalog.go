// Package catalog resolves lookup operations against a static data set. It is
// the server-side half of the cascade: given an operation and its filter
// tuple it returns the unique, naturally ordered choices that match.
package catalog

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/onceinteractive/cascade/pkg/types"
)

// Row is one catalog entry: a choice plus the filter values under which it is
// offered. Text defaults to Value when omitted.
type Row struct {
	Filters map[string]string `yaml:"filters"`
	Value   string            `yaml:"value"`
	Text    string            `yaml:"text"`
}

// Catalog maps operations to their rows.
type Catalog struct {
	operations map[string][]Row
}

// fileConfig is the YAML shape of a catalog file.
type fileConfig struct {
	Operations map[string][]Row `yaml:"operations"`
}

// New creates a catalog from in-memory operation tables.
func New(operations map[string][]Row) *Catalog {
	if operations == nil {
		operations = make(map[string][]Row)
	}
	return &Catalog{operations: operations}
}

// Load reads a catalog from YAML.
func Load(r io.Reader) (*Catalog, error) {
	var cfg fileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return New(cfg.Operations), nil
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open catalog %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Has reports whether the operation exists.
func (c *Catalog) Has(operation string) bool {
	_, ok := c.operations[operation]
	return ok
}

// Resolve returns the choices of an operation matching every given filter,
// deduplicated by value and naturally ordered by text. An unknown operation
// resolves to nil.
func (c *Catalog) Resolve(operation string, filters map[string]string) []types.Choice {
	rows, ok := c.operations[operation]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var out []types.Choice
	for _, row := range rows {
		if !matches(row, filters) {
			continue
		}
		value := strings.TrimSpace(row.Value)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		text := strings.TrimSpace(row.Text)
		if text == "" {
			text = value
		}
		out = append(out, types.Choice{Value: value, Text: text})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return naturalLess(out[i].Text, out[j].Text)
	})
	return out
}

// States enumerates the root-field values.
func (c *Catalog) States() []types.Choice {
	return c.Resolve("get_states", nil)
}

func matches(row Row, filters map[string]string) bool {
	for k, v := range filters {
		if row.Filters[k] != v {
			return false
		}
	}
	return true
}
