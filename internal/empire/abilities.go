package empire

import (
	"time"

	"github.com/castevet/empire-core/internal/models"
)

// AbilityStatus is the lazily derived state of one ability
type AbilityStatus struct {
	OfficerID string
	AbilityID string
	Name      string
	Passive   bool
	Ready     bool
	ReadyAt   time.Time
	Remaining time.Duration
}

// Invocation is the outcome of a successful ability use. Effects the
// engine does not consume itself (temporary bonuses) are handed back
// here for the caller to apply.
type Invocation struct {
	Officer *models.Officer
	Ability *models.SpecialAbility
	Effect  models.AbilityEffect
	// Completed holds the constructions finished by an
	// instant_complete invocation.
	Completed []models.Construction
}

// Abilities manages the Ready/OnCooldown cycle of officer abilities.
// No state transition is stored: readiness is recomputed from the
// LastUsedAt timestamp against the supplied time, so an expired
// cooldown never needs a background job to flip it back.
type Abilities struct {
	catalog *models.Catalog
}

// NewAbilities creates an ability manager over a catalog
func NewAbilities(catalog *models.Catalog) *Abilities {
	return &Abilities{catalog: catalog}
}

// StatusOf returns the lazily evaluated status of every ability of
// every officer, in roster order
func (m *Abilities) StatusOf(e *models.Empire, now time.Time) []AbilityStatus {
	var out []AbilityStatus
	for _, o := range e.Officers {
		for i := range o.Abilities {
			a := &o.Abilities[i]
			st := AbilityStatus{
				OfficerID: o.ID,
				AbilityID: a.ID,
				Name:      a.Name,
				Passive:   a.Kind == models.AbilityPassive,
				Ready:     a.Ready(now),
				ReadyAt:   a.ReadyAt(),
			}
			if !st.Ready {
				st.Remaining = a.ReadyAt().Sub(now)
			}
			out = append(out, st)
		}
	}
	return out
}

// Invoke uses an ability. Checks run in order: the officer and ability
// must exist, the officer must be active, the ability must not be
// passive, the cooldown must have elapsed (the boundary instant counts as elapsed), and the empire must
// cover the dark matter cost. On success the cost is debited,
// LastUsedAt is stamped, and the effect is applied or returned.
// planetID names the planet an instant_complete or resource_grant
// effect targets.
func (m *Abilities) Invoke(e *models.Empire, g *Gate, officerID, abilityID, planetID string, now time.Time) (*Invocation, *Rejection, error) {
	o := e.OfficerByID(officerID)
	if o == nil {
		return nil, &Rejection{Reason: ReasonNotFound, Detail: officerID}, nil
	}
	a := o.AbilityByID(abilityID)
	if a == nil {
		return nil, &Rejection{Reason: ReasonInvalidAbility, Detail: abilityID}, nil
	}
	if !o.Active {
		return nil, &Rejection{Reason: ReasonInvalidAbility, Detail: "officer inactive"}, nil
	}
	if a.Kind == models.AbilityPassive {
		return nil, &Rejection{Reason: ReasonInvalidAbility, Detail: "passive ability"}, nil
	}
	if !a.Ready(now) {
		return nil, &Rejection{
			Reason:    ReasonOnCooldown,
			Detail:    abilityID,
			Remaining: a.ReadyAt().Sub(now),
		}, nil
	}
	if e.DarkMatter < a.DarkMatterCost {
		return nil, &Rejection{
			Reason:    ReasonInsufficientFunds,
			Detail:    abilityID,
			Shortfall: models.Resources{DarkMatter: a.DarkMatterCost - e.DarkMatter},
		}, nil
	}

	inv := &Invocation{Officer: o, Ability: a, Effect: a.Effect}
	switch a.Kind {
	case models.AbilityInstantComplete:
		planet := e.Planet(planetID)
		if planet == nil {
			return nil, &Rejection{Reason: ReasonNotFound, Detail: planetID}, nil
		}
		if len(planet.Queue) == 0 {
			return nil, &Rejection{Reason: ReasonInvalidAbility, Detail: "nothing under construction"}, nil
		}
		// Validate the queue before touching any timestamp so a corrupt
		// record cannot leave it half mutated.
		for _, c := range planet.Queue {
			if m.catalog.Structure(c.Structure) == nil {
				return nil, nil, configErr("state", "queued construction of unknown structure %q", c.Structure)
			}
		}
		// Pull the completion time to now, then settle as usual so the
		// level credit path stays single.
		for i := range planet.Queue {
			planet.Queue[i].CompletesAt = now
		}
		done, err := g.Settle(e, now)
		if err != nil {
			return nil, nil, err
		}
		inv.Completed = done
	case models.AbilityResourceGrant:
		planet := e.Planet(planetID)
		if planet == nil {
			return nil, &Rejection{Reason: ReasonNotFound, Detail: planetID}, nil
		}
		planet.Resources = planet.Resources.Add(a.Effect.Resources)
	case models.AbilityTemporaryBonus:
		// Returned in the invocation; the aggregator never reads it.
	default:
		return nil, nil, configErr("catalog", "ability %q has unknown kind %q", abilityID, a.Kind)
	}

	e.DarkMatter -= a.DarkMatterCost
	a.LastUsedAt = now
	return inv, nil, nil
}
