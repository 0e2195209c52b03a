package fieldgraph

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/onceinteractive/cascade/pkg/types"
)

// fileConfig is the YAML shape of a graph declaration. Fields must be listed
// top-down: parents and filter sources before the fields that use them.
type fileConfig struct {
	Root   types.FieldID `yaml:"root"`
	Fields []Spec        `yaml:"fields"`
}

// Load reads a graph declaration from YAML.
func Load(r io.Reader) (*Graph, error) {
	var cfg fileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode graph config")
	}
	if cfg.Root == "" {
		return nil, errors.New("graph config: root field is required")
	}

	g := New(cfg.Root)
	for _, spec := range cfg.Fields {
		if err := g.AddField(spec); err != nil {
			return nil, errors.Wrapf(err, "graph config: field %s", spec.ID)
		}
	}
	return g, nil
}

// LoadFile reads a graph declaration from a YAML file.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open graph config %s", path)
	}
	defer f.Close()
	return Load(f)
}
