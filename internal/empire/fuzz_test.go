package empire

import (
	"testing"

	"github.com/castevet/empire-core/internal/models"
)

// FuzzQuote throws arbitrary levels and bonus percentages at the cost
// model and checks the structural invariants: costs never negative,
// doubling holds between consecutive valid levels, and bonus clamping
// keeps the divisor sane.
func FuzzQuote(f *testing.F) {
	f.Add(0, 0, 0)
	f.Add(5, -20, 50)
	f.Add(10, 0, -99)
	f.Add(39, 100, 100)
	f.Add(50, -100, -100)
	f.Add(-1, 0, 0)
	f.Add(51, 0, 0)

	catalog := newFuzzCatalog(f)
	m := NewCostModel(catalog, DefaultBuildSpeedConstant)

	f.Fuzz(func(t *testing.T, level, costPct, speedPct int) {
		// Percentages far outside the tuning range overflow int64 at the
		// deepest levels; keep the fuzz inside meaningful knob values.
		costPct %= 1000
		speedPct %= 1000
		bonuses := map[models.BonusKey]int{
			models.BonusBuildingCost:  costPct,
			models.BonusBuildingSpeed: speedPct,
		}
		q, err := m.EffectiveQuote(models.MetalMine, level, bonuses)
		if level < 0 || level > maxCostLevel {
			if err == nil {
				t.Fatalf("Level %d accepted, want configuration error", level)
			}
			return
		}
		if err != nil {
			t.Fatalf("Level %d rejected: %v", level, err)
		}
		if !q.Cost.NonNegative() {
			t.Fatalf("Level %d cost negative: %+v", level, q.Cost)
		}
		if q.Time < 0 {
			t.Fatalf("Level %d time negative: %v", level, q.Time)
		}

		// The raw quote must double exactly from the previous level.
		if level > 0 {
			prev, err := m.Quote(models.MetalMine, level-1)
			if err != nil {
				t.Fatalf("Level %d baseline failed: %v", level-1, err)
			}
			cur, err := m.Quote(models.MetalMine, level)
			if err != nil {
				t.Fatalf("Level %d baseline failed: %v", level, err)
			}
			if cur.Cost.Metal != 2*prev.Cost.Metal || cur.Cost.Crystal != 2*prev.Cost.Crystal {
				t.Fatalf("Level %d does not double level %d: %+v vs %+v",
					level, level-1, cur.Cost, prev.Cost)
			}
		}
	})
}

// newFuzzCatalog builds the minimal catalog the fuzzer needs without a
// *testing.T
func newFuzzCatalog(f *testing.F) *models.Catalog {
	f.Helper()
	promotions := make(models.PromotionTable)
	for rank := 2; rank <= models.MaxRank; rank++ {
		promotions[rank] = models.PromotionCost{
			DarkMatter: int64(rank * 500),
			Experience: int64(rank * 100),
		}
	}
	catalog, err := models.NewCatalog([]*models.CatalogEntry{
		{
			Key: models.MetalMine, Kind: models.KindBuilding, Name: "Metal Mine",
			BaseCost: models.Resources{Metal: 60, Crystal: 15}, TimeFactor: 1,
			MaxLevel: 40, UsesField: true,
		},
	}, nil, promotions)
	if err != nil {
		f.Fatalf("Failed to build fuzz catalog: %v", err)
	}
	return catalog
}
