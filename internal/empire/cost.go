package empire

import (
	"math"
	"time"

	"github.com/castevet/empire-core/internal/models"
)

// DefaultBuildSpeedConstant divides the raw build-time product into
// seconds. Overridable through tuning.
const DefaultBuildSpeedConstant = 2500

// maxCostLevel bounds the exponential before int64 shifts overflow.
// Catalog max levels sit far below this; hitting it means corrupt data.
const maxCostLevel = 50

// maxQuoteSeconds caps a quoted build time at the longest duration
// time.Duration can represent, roughly 292 years.
const maxQuoteSeconds = math.MaxInt64 / int64(time.Second)

// Quote is the derived price of one upgrade step: the resource debit
// and the build duration.
type Quote struct {
	Cost models.Resources
	Time time.Duration
}

// CostModel derives upgrade costs and build times from the catalog.
// Nothing per-level is stored: every figure is a pure function of the
// entry's base values and the current level.
type CostModel struct {
	catalog       *models.Catalog
	speedConstant float64
}

// NewCostModel creates a cost model over a catalog
func NewCostModel(catalog *models.Catalog, buildSpeedConstant float64) *CostModel {
	if buildSpeedConstant <= 0 {
		buildSpeedConstant = DefaultBuildSpeedConstant
	}
	return &CostModel{catalog: catalog, speedConstant: buildSpeedConstant}
}

// Quote returns the unmodified cost and time of upgrading the structure
// from the given current level. An unknown key or an out-of-range level
// is a configuration error, not a rejection.
func (m *CostModel) Quote(key models.StructureKey, level int) (Quote, error) {
	entry := m.catalog.Structure(key)
	if entry == nil {
		return Quote{}, configErr("catalog", "unknown structure %q", key)
	}
	if level < 0 || level > maxCostLevel {
		return Quote{}, configErr("catalog", "structure %q quoted at level %d", key, level)
	}
	factor := int64(1) << uint(level)
	cost := models.Resources{
		Metal:     entry.BaseCost.Metal * factor,
		Crystal:   entry.BaseCost.Crystal * factor,
		Deuterium: entry.BaseCost.Deuterium * factor,
	}
	raw := float64(entry.BaseCost.Metal+entry.BaseCost.Crystal) *
		float64(factor) * entry.TimeFactor / m.speedConstant
	secs := int64(math.Floor(raw))
	// Deep levels can push the raw seconds past what time.Duration holds.
	if secs > maxQuoteSeconds {
		secs = maxQuoteSeconds
	}
	return Quote{Cost: cost, Time: time.Duration(secs) * time.Second}, nil
}

// EffectiveQuote applies the aggregated officer bonuses to a quote.
// Buildings read building_cost/building_speed, research reads the
// research pair. Cost reductions clamp at -100%, speed penalties at
// -99% so the divisor stays positive.
func (m *CostModel) EffectiveQuote(key models.StructureKey, level int, bonuses map[models.BonusKey]int) (Quote, error) {
	q, err := m.Quote(key, level)
	if err != nil {
		return Quote{}, err
	}
	entry := m.catalog.Structure(key)
	costKey, speedKey := models.BonusBuildingCost, models.BonusBuildingSpeed
	if entry.Kind == models.KindResearch {
		costKey, speedKey = models.BonusResearchCost, models.BonusResearchSpeed
	}
	if pct := bonuses[costKey]; pct != 0 {
		if pct < -100 {
			pct = -100
		}
		q.Cost = scaleCost(q.Cost, pct)
	}
	if pct := bonuses[speedKey]; pct != 0 {
		if pct < -99 {
			pct = -99
		}
		secs := int64(q.Time / time.Second)
		secs = int64(math.Floor(float64(secs) * 100 / float64(100+pct)))
		if secs > maxQuoteSeconds {
			secs = maxQuoteSeconds
		}
		q.Time = time.Duration(secs) * time.Second
	}
	return q, nil
}

// HourlyYield returns the hourly production of a structure at a level,
// with the matching production bonus applied. Structures that produce
// nothing yield zero.
func (m *CostModel) HourlyYield(key models.StructureKey, level int, bonuses map[models.BonusKey]int) (models.ResourceType, int64, error) {
	entry := m.catalog.Structure(key)
	if entry == nil {
		return "", 0, configErr("catalog", "unknown structure %q", key)
	}
	if entry.Produces == "" || level <= 0 {
		return entry.Produces, 0, nil
	}
	amount := entry.BaseHourlyYield * int64(level)
	if bk := models.ProductionBonusKey(entry.Produces); bk != "" {
		if pct := bonuses[bk]; pct != 0 {
			if pct < -100 {
				pct = -100
			}
			amount = int64(math.Floor(float64(amount) * float64(100+pct) / 100))
		}
	}
	return entry.Produces, amount, nil
}

func scaleCost(c models.Resources, pct int) models.Resources {
	apply := func(v int64) int64 {
		return int64(math.Floor(float64(v) * float64(100+pct) / 100))
	}
	return models.Resources{
		Metal:     apply(c.Metal),
		Crystal:   apply(c.Crystal),
		Deuterium: apply(c.Deuterium),
	}
}
