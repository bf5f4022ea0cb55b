package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes a timed sequence of synthetic interrupts and demo
// stimuli to fire against the demo module table, loaded from a YAML
// file. This is harness configuration only — it never crosses into
// pkg/module's compile-time table (spec.md §3 stays untouched).
type Scenario struct {
	Name  string       `yaml:"name"`
	Steps []ScenarioStep `yaml:"steps"`
}

// ScenarioStep fires one action after a delay measured from the
// previous step, not from scenario start — easier to author by hand.
type ScenarioStep struct {
	After  time.Duration `yaml:"after"`
	Action string        `yaml:"action"` // "echo", "echo-delayed", "notify", "irq"
	IRQ    int           `yaml:"irq"`
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &s, nil
}

// defaultScenario exercises all of S1/S2/S4 with no file on disk, for
// `fwsim boot` run with no --scenario flag.
func defaultScenario() *Scenario {
	return &Scenario{
		Name: "default",
		Steps: []ScenarioStep{
			{After: 0, Action: "echo"},
			{After: 10 * time.Millisecond, Action: "echo-delayed"},
			{After: 10 * time.Millisecond, Action: "irq", IRQ: 0},
			{After: 10 * time.Millisecond, Action: "notify"},
		},
	}
}
