package empire

import (
	"time"

	"github.com/castevet/empire-core/internal/models"
)

// PlanStep is one rung of an upgrade ladder
type PlanStep struct {
	Level int
	Quote Quote
}

// Plan is the cumulative cost and time of raising one structure across
// several levels, computed with the supplied bonuses held constant.
type Plan struct {
	Structure models.StructureKey
	From      int
	To        int
	Steps     []PlanStep
	TotalCost models.Resources
	TotalTime time.Duration
}

// PlanUpgrade builds the ladder from level from (exclusive current) to
// level to. It is a pure projection: no state is read or written beyond
// the catalog, so the CLI can quote ladders offline.
func (m *CostModel) PlanUpgrade(key models.StructureKey, from, to int, bonuses map[models.BonusKey]int) (*Plan, error) {
	entry := m.catalog.Structure(key)
	if entry == nil {
		return nil, configErr("catalog", "unknown structure %q", key)
	}
	if from < 0 || to <= from {
		return nil, configErr("plan", "structure %q planned from %d to %d", key, from, to)
	}
	if to > entry.MaxLevel {
		return nil, configErr("plan", "structure %q planned past max level %d", key, entry.MaxLevel)
	}
	p := &Plan{Structure: key, From: from, To: to}
	for level := from; level < to; level++ {
		q, err := m.EffectiveQuote(key, level, bonuses)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, PlanStep{Level: level + 1, Quote: q})
		p.TotalCost = p.TotalCost.Add(q.Cost)
		p.TotalTime += q.Time
	}
	return p, nil
}
