package empire

import (
	"fmt"
	"testing"
	"time"

	"github.com/castevet/empire-core/internal/models"
)

// testCatalog builds a small catalog with known figures:
// metal_mine base 60/15, crystal_mine 48/24, research_lab,
// fusion_reactor gated on deuterium_synthesizer 5 + energy_technology 3,
// and the commander/geologist/admiral archetypes.
func testCatalog(t *testing.T) *models.Catalog {
	t.Helper()
	structures := []*models.CatalogEntry{
		{
			Key: models.MetalMine, Kind: models.KindBuilding, Name: "Metal Mine",
			BaseCost: models.Resources{Metal: 60, Crystal: 15}, TimeFactor: 1,
			MaxLevel: 40, UsesField: true,
			Produces: models.Metal, BaseHourlyYield: 30,
		},
		{
			Key: models.CrystalMine, Kind: models.KindBuilding, Name: "Crystal Mine",
			BaseCost: models.Resources{Metal: 48, Crystal: 24}, TimeFactor: 1,
			MaxLevel: 40, UsesField: true,
			Produces: models.Crystal, BaseHourlyYield: 20,
		},
		{
			Key: models.DeuteriumSynthesizer, Kind: models.KindBuilding, Name: "Deuterium Synthesizer",
			BaseCost: models.Resources{Metal: 225, Crystal: 75}, TimeFactor: 1,
			MaxLevel: 35, UsesField: true,
			Produces: models.Deuterium, BaseHourlyYield: 10,
		},
		{
			Key: models.FusionReactor, Kind: models.KindBuilding, Name: "Fusion Reactor",
			BaseCost: models.Resources{Metal: 900, Crystal: 360, Deuterium: 180}, TimeFactor: 1,
			MaxLevel: 20, UsesField: true,
			Prerequisites: map[models.StructureKey]int{
				models.DeuteriumSynthesizer: 5,
				models.EnergyTech:           3,
			},
		},
		{
			Key: models.ResearchLab, Kind: models.KindBuilding, Name: "Research Lab",
			BaseCost: models.Resources{Metal: 200, Crystal: 400, Deuterium: 200}, TimeFactor: 1,
			MaxLevel: 12, UsesField: true,
		},
		{
			Key: models.EnergyTech, Kind: models.KindResearch, Name: "Energy Technology",
			BaseCost: models.Resources{Crystal: 800, Deuterium: 400}, TimeFactor: 1,
			MaxLevel: 20,
			Prerequisites: map[models.StructureKey]int{
				models.ResearchLab: 1,
			},
		},
	}
	archetypes := []*models.ArchetypeEntry{
		{
			Key: models.Commander, Name: "Commander", HireDarkMatter: 2000,
			BaseBonuses:    map[models.BonusKey]int{models.BonusBuildingSpeed: 25},
			BaseExperience: 100,
			Abilities: []models.AbilityEntry{
				{
					ID: "commander_rush", Name: "Construction Rush",
					Kind: models.AbilityInstantComplete, CooldownHours: 72, DarkMatterCost: 750,
				},
			},
		},
		{
			Key: models.Geologist, Name: "Geologist", HireDarkMatter: 1800,
			BaseBonuses: map[models.BonusKey]int{
				models.BonusMetalProduction:   10,
				models.BonusCrystalProduction: 10,
			},
			BaseExperience: 120,
			Abilities: []models.AbilityEntry{
				{
					ID: "geologist_vein", Name: "Rich Vein",
					Kind: models.AbilityResourceGrant, CooldownHours: 96, DarkMatterCost: 900,
					Effect: models.AbilityEffect{Resources: models.Resources{Metal: 25000, Crystal: 12500}},
				},
			},
		},
		{
			Key: models.Admiral, Name: "Admiral", HireDarkMatter: 1500,
			BaseBonuses: map[models.BonusKey]int{
				models.BonusFleetSpeed:      10,
				models.BonusFuelConsumption: -10,
			},
			BaseExperience: 100,
			Abilities: []models.AbilityEntry{
				{
					ID: "admiral_presence", Name: "Veteran Presence",
					Kind: models.AbilityPassive,
					Effect: models.AbilityEffect{
						Bonuses: map[models.BonusKey]int{models.BonusExpeditionSuccess: 5},
					},
				},
			},
		},
	}
	promotions := make(models.PromotionTable)
	for rank := 2; rank <= models.MaxRank; rank++ {
		promotions[rank] = models.PromotionCost{
			DarkMatter: int64(rank * 500),
			Experience: int64(rank * 100),
		}
	}
	catalog, err := models.NewCatalog(structures, archetypes, promotions)
	if err != nil {
		t.Fatalf("Failed to build test catalog: %v", err)
	}
	return catalog
}

// testEmpire builds an empire with one planet holding the given stock
func testEmpire(stock models.Resources) *models.Empire {
	return &models.Empire{
		ID:         "empire-1",
		DarkMatter: 10000,
		Research:   make(map[models.StructureKey]int),
		Planets: map[string]*models.Planet{
			"planet-1": {
				ID:        "planet-1",
				Name:      "Homeworld",
				Buildings: make(map[models.StructureKey]int),
				Resources: stock,
				Fields:    models.Fields{Used: 0, Total: 163},
			},
		},
	}
}

// testClock is a settable time source for engines under test
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// sequentialIDs returns an id generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// testEngine wires an engine with a pinned clock over the test catalog
func testEngine(t *testing.T) (*Engine, *testClock) {
	t.Helper()
	clock := newTestClock()
	ng := NewEngine(testCatalog(t),
		WithClock(clock.Now),
		WithIDSource(sequentialIDs()),
	)
	return ng, clock
}
