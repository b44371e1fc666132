package empire

import (
	"math"

	"github.com/castevet/empire-core/internal/models"
)

// Ledger owns the officer roster lifecycle: hiring from the archetype
// catalog, promotion against the promotion table, dismissal and
// activation. All prices are dark matter, paid from the empire wallet.
type Ledger struct {
	catalog *models.Catalog
}

// NewLedger creates a ledger over a catalog
func NewLedger(catalog *models.Catalog) *Ledger {
	return &Ledger{catalog: catalog}
}

// Hire instantiates a rank-1 officer of the archetype, debiting the
// hire price. The new officer starts active with the archetype's base
// bonuses and fresh copies of its abilities.
func (l *Ledger) Hire(e *models.Empire, archetype models.ArchetypeKey, id, name string) (*models.Officer, *Rejection, error) {
	tpl := l.catalog.Archetype(archetype)
	if tpl == nil {
		return nil, nil, configErr("catalog", "unknown archetype %q", archetype)
	}
	if e.DarkMatter < tpl.HireDarkMatter {
		return nil, &Rejection{
			Reason:    ReasonInsufficientFunds,
			Detail:    string(archetype),
			Shortfall: models.Resources{DarkMatter: tpl.HireDarkMatter - e.DarkMatter},
		}, nil
	}
	if name == "" {
		name = tpl.Name
	}
	o := &models.Officer{
		ID:                   id,
		Archetype:            archetype,
		Name:                 name,
		Rank:                 1,
		ExperienceToNextRank: tpl.BaseExperience,
		Active:               true,
		BaseBonuses:          make(map[models.BonusKey]int, len(tpl.BaseBonuses)),
	}
	for k, v := range tpl.BaseBonuses {
		o.BaseBonuses[k] = v
	}
	for _, ab := range tpl.Abilities {
		sa := models.SpecialAbility{
			ID:             ab.ID,
			Name:           ab.Name,
			Kind:           ab.Kind,
			CooldownHours:  ab.CooldownHours,
			DarkMatterCost: ab.DarkMatterCost,
			Effect:         ab.Effect,
		}
		if ab.Effect.Bonuses != nil {
			sa.Effect.Bonuses = make(map[models.BonusKey]int, len(ab.Effect.Bonuses))
			for k, v := range ab.Effect.Bonuses {
				sa.Effect.Bonuses[k] = v
			}
		}
		o.Abilities = append(o.Abilities, sa)
	}
	e.DarkMatter -= tpl.HireDarkMatter
	e.Officers = append(e.Officers, o)
	return o, nil, nil
}

// Promote raises an officer one rank if the empire can pay the table
// price in dark matter and the officer has banked the required
// experience. Both must hold; the rejection does not say which failed.
// Every bonus scales by floor(v * 1.2), floor toward minus infinity so
// negative bonuses deepen too.
func (l *Ledger) Promote(e *models.Empire, officerID string) (*models.Officer, *Rejection, error) {
	o := e.OfficerByID(officerID)
	if o == nil {
		return nil, &Rejection{Reason: ReasonNotFound, Detail: officerID}, nil
	}
	if o.Rank >= models.MaxRank {
		return nil, &Rejection{Reason: ReasonMaxLevelReached, Detail: officerID}, nil
	}
	cost, ok := l.catalog.Promotion(o.Rank + 1)
	if !ok {
		return nil, nil, configErr("catalog", "no promotion cost for rank %d", o.Rank+1)
	}
	if e.DarkMatter < cost.DarkMatter || o.Experience < cost.Experience {
		return nil, &Rejection{Reason: ReasonInsufficientRankOrFunds, Detail: officerID}, nil
	}
	e.DarkMatter -= cost.DarkMatter
	o.Experience -= cost.Experience
	o.Rank++
	for k, v := range o.BaseBonuses {
		o.BaseBonuses[k] = scaleBonus(v)
	}
	if next, ok := l.catalog.Promotion(o.Rank + 1); ok {
		o.ExperienceToNextRank = next.Experience
	} else {
		o.ExperienceToNextRank = 0
	}
	return o, nil, nil
}

// Dismiss removes an officer from the roster. No refund.
func (l *Ledger) Dismiss(e *models.Empire, officerID string) *Rejection {
	for i, o := range e.Officers {
		if o.ID == officerID {
			e.Officers = append(e.Officers[:i], e.Officers[i+1:]...)
			return nil
		}
	}
	return &Rejection{Reason: ReasonNotFound, Detail: officerID}
}

// SetActive toggles whether an officer's bonuses count in aggregation
func (l *Ledger) SetActive(e *models.Empire, officerID string, active bool) *Rejection {
	o := e.OfficerByID(officerID)
	if o == nil {
		return &Rejection{Reason: ReasonNotFound, Detail: officerID}
	}
	o.Active = active
	return nil
}

// GrantExperience credits experience toward the officer's next rank.
// Negative amounts are refused with a tagged rejection: the amount is
// caller input, not catalog data.
func (l *Ledger) GrantExperience(e *models.Empire, officerID string, amount int64) (*Rejection, error) {
	if amount < 0 {
		return &Rejection{Reason: ReasonInvalidArgument, Detail: "negative experience amount"}, nil
	}
	o := e.OfficerByID(officerID)
	if o == nil {
		return &Rejection{Reason: ReasonNotFound, Detail: officerID}, nil
	}
	o.Experience += amount
	return nil, nil
}

// scaleBonus grows a bonus by 20% on promotion. math.Floor, not integer
// truncation: -9 scales to -11, not -10.
func scaleBonus(v int) int {
	return int(math.Floor(float64(v) * 1.2))
}
