package filter

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SidecarSuffix is appended to the output path of a filtered graph.
const SidecarSuffix = ".filter.yaml"

func SidecarPath(output string) string { return output + SidecarSuffix }

// Sidecar documents a filtered link output.
type Sidecar struct {
	Graph      string   `yaml:"graph"`
	Include    []string `yaml:"include,omitempty"`
	Exclude    []string `yaml:"exclude,omitempty"`
	Reflective bool     `yaml:"reflective,omitempty"`
	Nodes      int      `yaml:"nodes"`
	Filtered   []Entry  `yaml:"filtered"`
}

func NewSidecar(graph string, c Config, res Result) Sidecar {
	filtered := res.Entries
	if filtered == nil {
		filtered = []Entry{}
	}
	return Sidecar{
		Graph:      graph,
		Include:    c.Include,
		Exclude:    c.Exclude,
		Reflective: c.Reflective,
		Nodes:      res.Nodes,
		Filtered:   filtered,
	}
}

// WriteSidecar writes s next to its graph.
func WriteSidecar(s Sidecar) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode filter sidecar: %w", err)
	}
	return os.WriteFile(SidecarPath(s.Graph), data, 0o644)
}

func ReadSidecar(path string) (Sidecar, error) {
	var s Sidecar
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// RemoveSidecar deletes the sidecar of output; a missing file is not an error.
func RemoveSidecar(output string) error {
	err := os.Remove(SidecarPath(output))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
