package empire

import (
	"time"

	"github.com/castevet/empire-core/internal/models"
)

// Gate owns the build pipeline: precondition checks in contract order,
// the exact resource debit, the pending construction record, and lazy
// settlement of completed records. Every mutation of building levels,
// fields or construction queues in the engine goes through it.
type Gate struct {
	catalog  *models.Catalog
	cost     *CostModel
	resolver *Resolver
}

// NewGate creates a gate over a catalog and cost model
func NewGate(catalog *models.Catalog, cost *CostModel) *Gate {
	return &Gate{catalog: catalog, cost: cost, resolver: NewResolver(catalog)}
}

// check runs the precondition pipeline for one upgrade. The effective
// quote is computed up front and returned alongside any rejection, so
// callers can show the price of an upgrade that is not yet payable.
// Ordering is part of the contract: a request failing several checks
// reports the first one. CanBuild and Build share this path so they
// cannot disagree.
func (g *Gate) check(e *models.Empire, planet *models.Planet, key models.StructureKey) (Quote, *Rejection, error) {
	entry := g.catalog.Structure(key)
	if entry == nil {
		return Quote{}, nil, configErr("catalog", "unknown structure %q", key)
	}
	// Research also needs a planet: its lab pays the bill.
	if planet == nil {
		return Quote{}, nil, configErr("gate", "structure %q checked without a planet", key)
	}

	var level int
	if entry.Kind == models.KindResearch {
		level = e.ResearchLevel(key)
	} else {
		level = planet.BuildingLevel(key)
	}
	if level >= entry.MaxLevel {
		return Quote{}, &Rejection{Reason: ReasonMaxLevelReached, Detail: string(key)}, nil
	}

	bonuses := Aggregate(e.Officers)
	quote, err := g.cost.EffectiveQuote(key, level, bonuses)
	if err != nil {
		return Quote{}, nil, err
	}

	missing, err := g.resolver.Missing(e, planet, key)
	if err != nil {
		return Quote{}, nil, err
	}
	if len(missing) > 0 {
		return quote, &Rejection{Reason: ReasonLockedByPrerequisite, Detail: string(key), Missing: missing}, nil
	}

	if entry.UsesField && planet.Fields.Used >= planet.Fields.Total {
		return quote, &Rejection{Reason: ReasonNoFieldCapacity, Detail: planet.ID}, nil
	}

	// Research debits the planet the request names, the one whose lab
	// runs it.
	wallet := planet.Resources
	if !wallet.Covers(quote.Cost) {
		return quote, &Rejection{
			Reason:    ReasonInsufficientResources,
			Detail:    string(key),
			Shortfall: wallet.Shortfall(quote.Cost),
		}, nil
	}

	busy := len(planet.Queue) > 0
	if entry.Kind == models.KindResearch {
		busy = len(e.ResearchQueue) > 0
	}
	if busy {
		return quote, &Rejection{Reason: ReasonConstructionBusy, Detail: string(key)}, nil
	}
	return quote, nil, nil
}

// CanBuild reports whether an upgrade would be accepted right now,
// without changing any state. It succeeds exactly when Build would,
// and still quotes the price when the request is rejected.
func (g *Gate) CanBuild(e *models.Empire, planet *models.Planet, key models.StructureKey) (Quote, *Rejection, error) {
	return g.check(e, planet, key)
}

// Build runs the checks, debits the exact quoted cost and enqueues the
// construction record. The level is not incremented here; it is
// credited once when the record settles.
func (g *Gate) Build(e *models.Empire, planet *models.Planet, key models.StructureKey, id string, now time.Time) (models.Construction, Quote, *Rejection, error) {
	quote, rej, err := g.check(e, planet, key)
	if err != nil || rej != nil {
		return models.Construction{}, quote, rej, err
	}
	entry := g.catalog.Structure(key)
	var level int
	if entry.Kind == models.KindResearch {
		level = e.ResearchLevel(key)
	} else {
		level = planet.BuildingLevel(key)
	}
	planet.Resources = planet.Resources.Sub(quote.Cost)
	c := models.Construction{
		ID:          id,
		Structure:   key,
		TargetLevel: level + 1,
		StartedAt:   now,
		CompletesAt: now.Add(quote.Time),
	}
	if entry.Kind == models.KindResearch {
		e.ResearchQueue = append(e.ResearchQueue, c)
	} else {
		planet.Queue = append(planet.Queue, c)
	}
	return c, quote, nil, nil
}

// Cancel removes a pending construction. Nothing is refunded: the
// debit stands and only the record disappears.
func (g *Gate) Cancel(e *models.Empire, planet *models.Planet, constructionID string) (models.Construction, *Rejection) {
	if planet != nil {
		for i, c := range planet.Queue {
			if c.ID == constructionID {
				planet.Queue = append(planet.Queue[:i], planet.Queue[i+1:]...)
				return c, nil
			}
		}
	}
	for i, c := range e.ResearchQueue {
		if c.ID == constructionID {
			e.ResearchQueue = append(e.ResearchQueue[:i], e.ResearchQueue[i+1:]...)
			return c, nil
		}
	}
	return models.Construction{}, &Rejection{Reason: ReasonNotFound, Detail: constructionID}
}

// Settle credits every construction whose completion timestamp has
// passed and removes its record. Idempotent: a second settle at the
// same instant finds nothing to do. Returns the settled records.
func (g *Gate) Settle(e *models.Empire, now time.Time) ([]models.Construction, error) {
	var settled []models.Construction
	for _, p := range e.Planets {
		remaining := p.Queue[:0]
		for _, c := range p.Queue {
			if !c.Done(now) {
				remaining = append(remaining, c)
				continue
			}
			entry := g.catalog.Structure(c.Structure)
			if entry == nil {
				return nil, configErr("state", "queued construction of unknown structure %q", c.Structure)
			}
			if p.Buildings == nil {
				p.Buildings = make(map[models.StructureKey]int)
			}
			if c.TargetLevel > p.Buildings[c.Structure] {
				p.Buildings[c.Structure] = c.TargetLevel
			}
			if entry.UsesField {
				p.Fields.Used++
			}
			settled = append(settled, c)
		}
		p.Queue = remaining
		if len(p.Queue) == 0 {
			p.Queue = nil
		}
	}
	remaining := e.ResearchQueue[:0]
	for _, c := range e.ResearchQueue {
		if !c.Done(now) {
			remaining = append(remaining, c)
			continue
		}
		if c.TargetLevel > e.Research[c.Structure] {
			if e.Research == nil {
				e.Research = make(map[models.StructureKey]int)
			}
			e.Research[c.Structure] = c.TargetLevel
		}
		settled = append(settled, c)
	}
	e.ResearchQueue = remaining
	if len(e.ResearchQueue) == 0 {
		e.ResearchQueue = nil
	}
	return settled, nil
}

// Accrue credits lazy mine production on every planet for the time
// elapsed since the last accrual, capped at maxWindow. Yields scale
// with level and production bonuses; fractions below one unit per
// window are dropped. Reports whether any planet actually gained.
func (g *Gate) Accrue(e *models.Empire, now time.Time, maxWindow time.Duration) (bool, error) {
	bonuses := Aggregate(e.Officers)
	changed := false
	for _, p := range e.Planets {
		if p.AccruedAt.IsZero() {
			p.AccruedAt = now
			continue
		}
		elapsed := now.Sub(p.AccruedAt)
		if elapsed <= 0 {
			continue
		}
		if maxWindow > 0 && elapsed > maxWindow {
			elapsed = maxWindow
		}
		secs := int64(elapsed / time.Second)
		if secs == 0 {
			continue
		}
		var gained models.Resources
		for key, level := range p.Buildings {
			rt, perHour, err := g.cost.HourlyYield(key, level, bonuses)
			if err != nil {
				return changed, err
			}
			if perHour == 0 {
				continue
			}
			amount := perHour * secs / 3600
			switch rt {
			case models.Metal:
				gained.Metal += amount
			case models.Crystal:
				gained.Crystal += amount
			case models.Deuterium:
				gained.Deuterium += amount
			case models.Energy:
				gained.Energy += amount
			}
		}
		if !gained.IsZero() {
			p.Resources = p.Resources.Add(gained)
			changed = true
		}
		p.AccruedAt = now
	}
	return changed, nil
}
