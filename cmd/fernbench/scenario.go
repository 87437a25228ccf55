package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one benchmark: a tree shape and the operation driven
// against it.
type Scenario struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"` // mount, rebuild, reorder, inherited
	Width      int    `yaml:"width"`
	Depth      int    `yaml:"depth"`
	Iterations int    `yaml:"iterations"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

var validKinds = map[string]bool{
	"mount":     true,
	"rebuild":   true,
	"reorder":   true,
	"inherited": true,
}

func (s Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario without a name")
	}
	if !validKinds[s.Kind] {
		return fmt.Errorf("scenario %q: unknown kind %q", s.Name, s.Kind)
	}
	if s.Width <= 0 || s.Depth <= 0 {
		return fmt.Errorf("scenario %q: width and depth must be positive", s.Name)
	}
	return nil
}

// loadScenarios reads a YAML scenario file.
func loadScenarios(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var file scenarioFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("%s: no scenarios defined", path)
	}
	for _, s := range file.Scenarios {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	return file.Scenarios, nil
}

func defaultScenarios() []Scenario {
	var scenarios []Scenario
	for _, width := range []int{1, 10, 100} {
		for _, depth := range []int{1, 10, 100} {
			shape := fmt.Sprintf("%dx%d", width, depth)
			scenarios = append(scenarios,
				Scenario{Name: "mount " + shape, Kind: "mount", Width: width, Depth: depth},
				Scenario{Name: "rebuild " + shape, Kind: "rebuild", Width: width, Depth: depth},
			)
		}
	}
	scenarios = append(scenarios,
		Scenario{Name: "reorder 100", Kind: "reorder", Width: 100, Depth: 1},
		Scenario{Name: "reorder 1000", Kind: "reorder", Width: 1000, Depth: 1},
		Scenario{Name: "inherited fan-out 100", Kind: "inherited", Width: 100, Depth: 1},
		Scenario{Name: "inherited fan-out 1000", Kind: "inherited", Width: 1000, Depth: 1},
	)
	return scenarios
}
