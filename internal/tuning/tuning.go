// Package tuning holds the numeric knobs that shape progression pace
// without being part of the catalog: operators adjust them per
// deployment through a YAML file.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the set of deployment-level knobs
type Tuning struct {
	// BuildSpeedConstant divides the raw build-time product into
	// seconds. Larger is faster.
	BuildSpeedConstant float64 `yaml:"build_speed_constant"`
	// MaxAccrualHours caps how much offline production a planet can
	// bank before the surplus is forfeited.
	MaxAccrualHours int `yaml:"max_accrual_hours"`
	// StarterDarkMatter seeds newly registered empires.
	StarterDarkMatter int64 `yaml:"starter_dark_matter"`
	// StarterFields is the field capacity of a starter planet.
	StarterFields int `yaml:"starter_fields"`
}

// Default returns the tuning used when no file is supplied
func Default() Tuning {
	return Tuning{
		BuildSpeedConstant: 2500,
		MaxAccrualHours:    72,
		StarterDarkMatter:  8000,
		StarterFields:      163,
	}
}

// Load reads a tuning file, filling unset knobs from the defaults
func Load(path string) (Tuning, error) {
	t := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects knob values the engine cannot run with
func (t Tuning) Validate() error {
	if t.BuildSpeedConstant <= 0 {
		return fmt.Errorf("build_speed_constant must be positive, got %v", t.BuildSpeedConstant)
	}
	if t.MaxAccrualHours < 0 {
		return fmt.Errorf("max_accrual_hours must not be negative, got %d", t.MaxAccrualHours)
	}
	if t.StarterDarkMatter < 0 {
		return fmt.Errorf("starter_dark_matter must not be negative, got %d", t.StarterDarkMatter)
	}
	if t.StarterFields <= 0 {
		return fmt.Errorf("starter_fields must be positive, got %d", t.StarterFields)
	}
	return nil
}
