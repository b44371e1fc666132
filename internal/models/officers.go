package models

import "time"

// ArchetypeKey identifies an officer archetype in the catalog
type ArchetypeKey string

const (
	Commander  ArchetypeKey = "commander"
	Admiral    ArchetypeKey = "admiral"
	Engineer   ArchetypeKey = "engineer"
	Geologist  ArchetypeKey = "geologist"
	Technocrat ArchetypeKey = "technocrat"
)

// AllArchetypeKeys returns all archetype keys in deterministic order
func AllArchetypeKeys() []ArchetypeKey {
	return []ArchetypeKey{Commander, Admiral, Engineer, Geologist, Technocrat}
}

// AbilityKind classifies what a special ability does when invoked
type AbilityKind string

const (
	// AbilityInstantComplete finishes the planet's in-flight
	// construction immediately.
	AbilityInstantComplete AbilityKind = "instant_complete"
	// AbilityTemporaryBonus returns a bonus payload the caller applies
	// for the stated duration.
	AbilityTemporaryBonus AbilityKind = "temporary_bonus"
	// AbilityResourceGrant credits the payload resources to a planet.
	AbilityResourceGrant AbilityKind = "resource_grant"
	// AbilityPassive is informational while its officer is active. It is
	// never invoked and carries no cooldown or cost.
	AbilityPassive AbilityKind = "passive"
)

// AbilityEffect is the opaque payload of an ability. The engine
// interprets instant_complete and resource_grant itself; temporary
// bonuses are handed back to the caller.
type AbilityEffect struct {
	Bonuses       map[BonusKey]int `json:"bonuses,omitempty"`
	Resources     Resources        `json:"resources,omitzero"`
	DurationHours int              `json:"duration_hours,omitempty"`
}

// SpecialAbility is an invocable officer power with a cooldown.
// State is not stored: Ready vs OnCooldown is derived lazily from
// LastUsedAt against the current time.
type SpecialAbility struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Kind           AbilityKind   `json:"kind"`
	CooldownHours  int           `json:"cooldown_hours"`
	DarkMatterCost int64         `json:"dark_matter_cost"`
	LastUsedAt     time.Time     `json:"last_used_at,omitzero"`
	Effect         AbilityEffect `json:"effect"`
}

// ReadyAt returns the moment the ability next becomes invocable.
// A never-used ability is ready immediately.
func (a *SpecialAbility) ReadyAt() time.Time {
	if a.LastUsedAt.IsZero() {
		return time.Time{}
	}
	return a.LastUsedAt.Add(time.Duration(a.CooldownHours) * time.Hour)
}

// Ready reports whether the ability can be invoked at the given time.
// Exactly at the cooldown boundary counts as ready.
func (a *SpecialAbility) Ready(now time.Time) bool {
	return !now.Before(a.ReadyAt())
}

// Officer is a hired instance of an archetype. BaseBonuses carries the
// archetype's bonuses scaled by promotions; the aggregator reads only
// active officers.
type Officer struct {
	ID                   string           `json:"id"`
	Archetype            ArchetypeKey     `json:"archetype"`
	Name                 string           `json:"name"`
	Rank                 int              `json:"rank"`
	Experience           int64            `json:"experience"`
	ExperienceToNextRank int64            `json:"experience_to_next_rank"`
	Active               bool             `json:"active"`
	BaseBonuses          map[BonusKey]int `json:"base_bonuses"`
	Abilities            []SpecialAbility `json:"abilities,omitempty"`
}

// AbilityByID returns the ability with the given id, or nil
func (o *Officer) AbilityByID(id string) *SpecialAbility {
	for i := range o.Abilities {
		if o.Abilities[i].ID == id {
			return &o.Abilities[i]
		}
	}
	return nil
}

// Clone creates a deep copy of the officer
func (o *Officer) Clone() *Officer {
	clone := &Officer{
		ID:                   o.ID,
		Archetype:            o.Archetype,
		Name:                 o.Name,
		Rank:                 o.Rank,
		Experience:           o.Experience,
		ExperienceToNextRank: o.ExperienceToNextRank,
		Active:               o.Active,
		BaseBonuses:          make(map[BonusKey]int, len(o.BaseBonuses)),
	}
	for k, v := range o.BaseBonuses {
		clone.BaseBonuses[k] = v
	}
	if len(o.Abilities) > 0 {
		clone.Abilities = make([]SpecialAbility, len(o.Abilities))
		copy(clone.Abilities, o.Abilities)
		for i := range clone.Abilities {
			src := o.Abilities[i].Effect.Bonuses
			if src != nil {
				dst := make(map[BonusKey]int, len(src))
				for k, v := range src {
					dst[k] = v
				}
				clone.Abilities[i].Effect.Bonuses = dst
			}
		}
	}
	return clone
}
