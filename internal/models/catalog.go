package models

import (
	"fmt"
	"math"
	"sort"
)

// StructureKind distinguishes buildings (per-planet, field-consuming)
// from research (empire-wide)
type StructureKind string

const (
	KindBuilding StructureKind = "building"
	KindResearch StructureKind = "research"
)

// CatalogEntry is the static definition of one structure: base costs,
// time factor, prerequisites and optional production yield. Per-level
// figures are derived, never stored.
type CatalogEntry struct {
	Key             StructureKey         `json:"key"`
	Kind            StructureKind        `json:"kind"`
	Name            string               `json:"name"`
	BaseCost        Resources            `json:"base_cost"`
	TimeFactor      float64              `json:"time_factor"`
	MaxLevel        int                  `json:"max_level"`
	UsesField       bool                 `json:"uses_field"`
	Produces        ResourceType         `json:"produces,omitempty"`
	BaseHourlyYield int64                `json:"base_hourly_yield,omitempty"`
	Prerequisites   map[StructureKey]int `json:"prerequisites,omitempty"`
}

// ArchetypeEntry is the static definition of one officer archetype:
// hire price, rank-1 bonuses and the abilities an officer of this
// archetype carries.
type ArchetypeEntry struct {
	Key            ArchetypeKey     `json:"key"`
	Name           string           `json:"name"`
	HireDarkMatter int64            `json:"hire_dark_matter"`
	BaseBonuses    map[BonusKey]int `json:"base_bonuses"`
	BaseExperience int64            `json:"base_experience_to_next_rank"`
	Abilities      []AbilityEntry   `json:"abilities,omitempty"`
}

// AbilityEntry is the catalog template for a special ability
type AbilityEntry struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Kind           AbilityKind   `json:"kind"`
	CooldownHours  int           `json:"cooldown_hours"`
	DarkMatterCost int64         `json:"dark_matter_cost"`
	Effect         AbilityEffect `json:"effect"`
}

// PromotionCost is the price of promoting an officer to a target rank
type PromotionCost struct {
	DarkMatter int64 `json:"dark_matter"`
	Experience int64 `json:"experience"`
}

// PromotionTable maps target rank (2..MaxRank) to its cost.
// Costs must be strictly increasing in both components.
type PromotionTable map[int]PromotionCost

// MaxRank is the highest reachable officer rank
const MaxRank = 10

// Validate checks that the table covers ranks 2..MaxRank contiguously
// with strictly increasing costs
func (t PromotionTable) Validate() error {
	var prev PromotionCost
	for rank := 2; rank <= MaxRank; rank++ {
		cost, ok := t[rank]
		if !ok {
			return fmt.Errorf("promotion table: missing rank %d", rank)
		}
		if cost.DarkMatter <= 0 || cost.Experience <= 0 {
			return fmt.Errorf("promotion table: rank %d has non-positive cost", rank)
		}
		if rank > 2 && (cost.DarkMatter <= prev.DarkMatter || cost.Experience <= prev.Experience) {
			return fmt.Errorf("promotion table: rank %d cost not strictly increasing", rank)
		}
		prev = cost
	}
	return nil
}

// Catalog bundles every static definition the engine reads. Built via
// NewCatalog so an invalid data set can never reach an operation.
type Catalog struct {
	structures map[StructureKey]*CatalogEntry
	archetypes map[ArchetypeKey]*ArchetypeEntry
	promotions PromotionTable
}

// NewCatalog validates and assembles a catalog. Validation failures are
// data bugs, reported as plain errors at load time.
func NewCatalog(entries []*CatalogEntry, archetypes []*ArchetypeEntry, promotions PromotionTable) (*Catalog, error) {
	c := &Catalog{
		structures: make(map[StructureKey]*CatalogEntry, len(entries)),
		archetypes: make(map[ArchetypeKey]*ArchetypeEntry, len(archetypes)),
		promotions: promotions,
	}
	for _, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("catalog: entry with empty key")
		}
		if _, dup := c.structures[e.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate structure %q", e.Key)
		}
		if e.Kind != KindBuilding && e.Kind != KindResearch {
			return nil, fmt.Errorf("catalog: structure %q has unknown kind %q", e.Key, e.Kind)
		}
		if e.BaseCost.Energy != 0 || e.BaseCost.DarkMatter != 0 {
			return nil, fmt.Errorf("catalog: structure %q prices energy or dark matter", e.Key)
		}
		if !e.BaseCost.NonNegative() || e.BaseCost.IsZero() {
			return nil, fmt.Errorf("catalog: structure %q has invalid base cost", e.Key)
		}
		if e.TimeFactor <= 0 {
			return nil, fmt.Errorf("catalog: structure %q has non-positive time factor", e.Key)
		}
		if e.MaxLevel <= 0 {
			return nil, fmt.Errorf("catalog: structure %q has non-positive max level", e.Key)
		}
		// The deepest quote doubles the base cost MaxLevel-1 times; a
		// product that cannot fit int64 is a data bug caught here.
		maxBase := e.BaseCost.Metal
		if e.BaseCost.Crystal > maxBase {
			maxBase = e.BaseCost.Crystal
		}
		if e.BaseCost.Deuterium > maxBase {
			maxBase = e.BaseCost.Deuterium
		}
		if shift := uint(e.MaxLevel - 1); shift >= 63 || maxBase > math.MaxInt64>>shift {
			return nil, fmt.Errorf("catalog: structure %q cost overflows int64 at max level %d", e.Key, e.MaxLevel)
		}
		if e.Kind == KindResearch && e.UsesField {
			return nil, fmt.Errorf("catalog: research %q cannot use a field", e.Key)
		}
		if e.Produces != "" && e.BaseHourlyYield <= 0 {
			return nil, fmt.Errorf("catalog: structure %q produces %q with no yield", e.Key, e.Produces)
		}
		c.structures[e.Key] = e
	}
	// Prerequisites may only reference keys the catalog defines.
	for _, e := range c.structures {
		for dep, lvl := range e.Prerequisites {
			if _, ok := c.structures[dep]; !ok {
				return nil, fmt.Errorf("catalog: structure %q requires unknown %q", e.Key, dep)
			}
			if lvl <= 0 {
				return nil, fmt.Errorf("catalog: structure %q requires %q at level %d", e.Key, dep, lvl)
			}
		}
	}
	for _, a := range archetypes {
		if a.Key == "" {
			return nil, fmt.Errorf("catalog: archetype with empty key")
		}
		if _, dup := c.archetypes[a.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate archetype %q", a.Key)
		}
		if a.HireDarkMatter <= 0 {
			return nil, fmt.Errorf("catalog: archetype %q has non-positive hire price", a.Key)
		}
		if a.BaseExperience <= 0 {
			return nil, fmt.Errorf("catalog: archetype %q has non-positive base experience", a.Key)
		}
		for k := range a.BaseBonuses {
			if !k.Valid() {
				return nil, fmt.Errorf("catalog: archetype %q grants unknown bonus %q", a.Key, k)
			}
		}
		for _, ab := range a.Abilities {
			if ab.ID == "" {
				return nil, fmt.Errorf("catalog: archetype %q has ability with empty id", a.Key)
			}
			if ab.DarkMatterCost < 0 {
				return nil, fmt.Errorf("catalog: ability %q has negative cost", ab.ID)
			}
			switch ab.Kind {
			case AbilityPassive:
				if ab.CooldownHours != 0 || ab.DarkMatterCost != 0 {
					return nil, fmt.Errorf("catalog: passive ability %q carries a cooldown or cost", ab.ID)
				}
			case AbilityInstantComplete, AbilityTemporaryBonus, AbilityResourceGrant:
				if ab.CooldownHours <= 0 {
					return nil, fmt.Errorf("catalog: ability %q has non-positive cooldown", ab.ID)
				}
			default:
				return nil, fmt.Errorf("catalog: ability %q has unknown kind %q", ab.ID, ab.Kind)
			}
			for k := range ab.Effect.Bonuses {
				if !k.Valid() {
					return nil, fmt.Errorf("catalog: ability %q grants unknown bonus %q", ab.ID, k)
				}
			}
		}
	}
	if err := promotions.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Structure returns the catalog entry for a key, or nil
func (c *Catalog) Structure(key StructureKey) *CatalogEntry {
	return c.structures[key]
}

// Archetype returns the archetype entry for a key, or nil
func (c *Catalog) Archetype(key ArchetypeKey) *ArchetypeEntry {
	return c.archetypes[key]
}

// Promotion returns the cost of reaching a target rank and whether the
// rank exists in the table
func (c *Catalog) Promotion(targetRank int) (PromotionCost, bool) {
	cost, ok := c.promotions[targetRank]
	return cost, ok
}

// Structures returns every structure entry in AllBuildingKeys +
// AllResearchKeys order, with any extra catalog keys appended sorted
func (c *Catalog) Structures() []*CatalogEntry {
	ordered := make([]*CatalogEntry, 0, len(c.structures))
	seen := make(map[StructureKey]bool, len(c.structures))
	for _, key := range AllBuildingKeys() {
		if e, ok := c.structures[key]; ok {
			ordered = append(ordered, e)
			seen[key] = true
		}
	}
	for _, key := range AllResearchKeys() {
		if e, ok := c.structures[key]; ok {
			ordered = append(ordered, e)
			seen[key] = true
		}
	}
	rest := make([]*CatalogEntry, 0)
	for key, e := range c.structures {
		if !seen[key] {
			rest = append(rest, e)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Key < rest[j].Key })
	return append(ordered, rest...)
}

// Archetypes returns every archetype entry in AllArchetypeKeys order
func (c *Catalog) Archetypes() []*ArchetypeEntry {
	ordered := make([]*ArchetypeEntry, 0, len(c.archetypes))
	for _, key := range AllArchetypeKeys() {
		if a, ok := c.archetypes[key]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered
}
