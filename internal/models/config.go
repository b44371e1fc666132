package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadEmpire reads an empire snapshot from a JSON file and validates it
func LoadEmpire(path string) (*Empire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read empire snapshot: %w", err)
	}
	var e Empire
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse empire snapshot %s: %w", path, err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid empire snapshot %s: %w", path, err)
	}
	return &e, nil
}

// SaveEmpire writes an empire snapshot to a JSON file
func SaveEmpire(path string, e *Empire) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encode empire snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write empire snapshot: %w", err)
	}
	return nil
}

// Validate checks structural consistency of a persisted empire.
// Catalog-level checks (unknown structure keys) belong to the engine,
// which owns the catalog; this guards the shape of the state itself.
func (e *Empire) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("empire has no id")
	}
	if e.DarkMatter < 0 {
		return fmt.Errorf("empire %s: negative dark matter", e.ID)
	}
	for key, lvl := range e.Research {
		if lvl < 0 {
			return fmt.Errorf("empire %s: research %q below zero", e.ID, key)
		}
	}
	if len(e.ResearchQueue) > 1 {
		return fmt.Errorf("empire %s: more than one research in flight", e.ID)
	}
	for id, p := range e.Planets {
		if p == nil {
			return fmt.Errorf("empire %s: planet %s is nil", e.ID, id)
		}
		if p.ID != id {
			return fmt.Errorf("empire %s: planet key %s holds planet %s", e.ID, id, p.ID)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("empire %s: %w", e.ID, err)
		}
	}
	seen := make(map[string]bool, len(e.Officers))
	for _, o := range e.Officers {
		if o == nil {
			return fmt.Errorf("empire %s: nil officer", e.ID)
		}
		if o.ID == "" {
			return fmt.Errorf("empire %s: officer with no id", e.ID)
		}
		if seen[o.ID] {
			return fmt.Errorf("empire %s: duplicate officer %s", e.ID, o.ID)
		}
		seen[o.ID] = true
		if o.Rank < 1 || o.Rank > MaxRank {
			return fmt.Errorf("empire %s: officer %s has rank %d", e.ID, o.ID, o.Rank)
		}
		if o.Experience < 0 {
			return fmt.Errorf("empire %s: officer %s has negative experience", e.ID, o.ID)
		}
		for k := range o.BaseBonuses {
			if !k.Valid() {
				return fmt.Errorf("empire %s: officer %s carries unknown bonus %q", e.ID, o.ID, k)
			}
		}
	}
	return nil
}

// Validate checks structural consistency of a planet
func (p *Planet) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("planet has no id")
	}
	if !p.Resources.NonNegative() {
		return fmt.Errorf("planet %s: negative resources", p.ID)
	}
	if p.Fields.Total <= 0 {
		return fmt.Errorf("planet %s: non-positive field total", p.ID)
	}
	if p.Fields.Used < 0 || p.Fields.Used > p.Fields.Total {
		return fmt.Errorf("planet %s: field usage %d/%d out of range", p.ID, p.Fields.Used, p.Fields.Total)
	}
	for key, lvl := range p.Buildings {
		if lvl < 0 {
			return fmt.Errorf("planet %s: building %q below zero", p.ID, key)
		}
	}
	if len(p.Queue) > 1 {
		return fmt.Errorf("planet %s: more than one construction in flight", p.ID)
	}
	for _, c := range p.Queue {
		if c.TargetLevel <= 0 {
			return fmt.Errorf("planet %s: construction %s targets level %d", p.ID, c.ID, c.TargetLevel)
		}
		if c.CompletesAt.Before(c.StartedAt) {
			return fmt.Errorf("planet %s: construction %s completes before it starts", p.ID, c.ID)
		}
	}
	return nil
}
