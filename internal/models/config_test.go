package models

import (
	"path/filepath"
	"testing"
)

func snapshotEmpire() *Empire {
	return &Empire{
		ID:         "e1",
		DarkMatter: 8000,
		Research:   map[StructureKey]int{EnergyTech: 3},
		Planets: map[string]*Planet{
			"p1": {
				ID:        "p1",
				Name:      "Homeworld",
				Buildings: map[StructureKey]int{MetalMine: 5},
				Resources: Resources{Metal: 500, Crystal: 500},
				Fields:    Fields{Used: 5, Total: 163},
			},
		},
		Version: 3,
	}
}

// TestSnapshotRoundTrip verifies save/load keeps the empire intact
func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empire.json")
	e := snapshotEmpire()
	if err := SaveEmpire(path, e); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	loaded, err := LoadEmpire(path)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if loaded.ID != e.ID || loaded.DarkMatter != e.DarkMatter || loaded.Version != e.Version {
		t.Errorf("Round trip changed empire: %+v", loaded)
	}
	p := loaded.Planet("p1")
	if p == nil || p.BuildingLevel(MetalMine) != 5 || p.Resources.Metal != 500 {
		t.Errorf("Round trip changed planet: %+v", p)
	}
}

// TestValidateRejectsCorruptState verifies structural checks on
// persisted state
func TestValidateRejectsCorruptState(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Empire)
	}{
		{"no id", func(e *Empire) { e.ID = "" }},
		{"negative dark matter", func(e *Empire) { e.DarkMatter = -1 }},
		{"negative research", func(e *Empire) { e.Research[EnergyTech] = -1 }},
		{"two research in flight", func(e *Empire) {
			e.ResearchQueue = []Construction{{ID: "a", TargetLevel: 1}, {ID: "b", TargetLevel: 1}}
		}},
		{"planet id mismatch", func(e *Empire) { e.Planets["p1"].ID = "p2" }},
		{"negative resources", func(e *Empire) { e.Planets["p1"].Resources.Metal = -1 }},
		{"field overflow", func(e *Empire) { e.Planets["p1"].Fields.Used = 200 }},
		{"two builds in flight", func(e *Empire) {
			e.Planets["p1"].Queue = []Construction{
				{ID: "a", TargetLevel: 1}, {ID: "b", TargetLevel: 1},
			}
		}},
		{"officer rank out of range", func(e *Empire) {
			e.Officers = []*Officer{{ID: "o1", Rank: MaxRank + 1}}
		}},
		{"duplicate officer", func(e *Empire) {
			e.Officers = []*Officer{{ID: "o1", Rank: 1}, {ID: "o1", Rank: 1}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := snapshotEmpire()
			tt.mutate(e)
			if err := e.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}

	if err := snapshotEmpire().Validate(); err != nil {
		t.Errorf("Valid empire rejected: %v", err)
	}
}
