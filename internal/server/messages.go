package server

import (
	"sort"
	"time"

	"github.com/castevet/empire-core/internal/empire"
	"github.com/castevet/empire-core/internal/models"
)

// Wire DTOs. The API never exposes domain structs directly: views are
// flattened, timestamps are RFC3339, and derived figures (queue
// remaining, ability readiness) are computed at mapping time so clients
// need no game math.

type resourcesView struct {
	Metal      int64 `json:"metal"`
	Crystal    int64 `json:"crystal"`
	Deuterium  int64 `json:"deuterium"`
	Energy     int64 `json:"energy"`
	DarkMatter int64 `json:"dark_matter,omitempty"`
}

type constructionView struct {
	ID          string `json:"id"`
	Structure   string `json:"structure"`
	TargetLevel int    `json:"target_level"`
	StartedAt   string `json:"started_at"`
	CompletesAt string `json:"completes_at"`
	RemainingS  int64  `json:"remaining_seconds"`
}

type planetView struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Buildings map[string]int     `json:"buildings"`
	Resources resourcesView      `json:"resources"`
	Fields    models.Fields      `json:"fields"`
	Queue     []constructionView `json:"queue,omitempty"`
}

type abilityView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	CooldownHours  int    `json:"cooldown_hours"`
	DarkMatterCost int64  `json:"dark_matter_cost"`
	Ready          bool   `json:"ready"`
	ReadyAt        string `json:"ready_at,omitempty"`
	RemainingS     int64  `json:"remaining_seconds,omitempty"`
}

type officerView struct {
	ID                   string         `json:"id"`
	Archetype            string         `json:"archetype"`
	Name                 string         `json:"name"`
	Rank                 int            `json:"rank"`
	Experience           int64          `json:"experience"`
	ExperienceToNextRank int64          `json:"experience_to_next_rank"`
	Active               bool           `json:"active"`
	Bonuses              map[string]int `json:"bonuses"`
	Abilities            []abilityView  `json:"abilities,omitempty"`
}

type empireView struct {
	ID            string             `json:"id"`
	DarkMatter    int64              `json:"dark_matter"`
	Research      map[string]int     `json:"research"`
	ResearchQueue []constructionView `json:"research_queue,omitempty"`
	Planets       []planetView       `json:"planets"`
	Officers      []officerView      `json:"officers,omitempty"`
	Version       int64              `json:"version"`
}

type quoteView struct {
	Cost        resourcesView `json:"cost"`
	TimeSeconds int64         `json:"time_seconds"`
}

// previewView is a quote plus the verdict: the price comes back even
// when the build would be refused right now.
type previewView struct {
	Cost        resourcesView `json:"cost"`
	TimeSeconds int64         `json:"time_seconds"`
	Affordable  bool          `json:"affordable"`
	Reason      string        `json:"reason,omitempty"`
}

type rejectionView struct {
	Reason     string         `json:"reason"`
	Detail     string         `json:"detail,omitempty"`
	Missing    map[string]int `json:"missing,omitempty"`
	Shortfall  *resourcesView `json:"shortfall,omitempty"`
	RemainingS int64          `json:"remaining_seconds,omitempty"`
}

func viewResources(r models.Resources) resourcesView {
	return resourcesView{
		Metal:      r.Metal,
		Crystal:    r.Crystal,
		Deuterium:  r.Deuterium,
		Energy:     r.Energy,
		DarkMatter: r.DarkMatter,
	}
}

func viewConstruction(c models.Construction, now time.Time) constructionView {
	remaining := int64(c.CompletesAt.Sub(now) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return constructionView{
		ID:          c.ID,
		Structure:   string(c.Structure),
		TargetLevel: c.TargetLevel,
		StartedAt:   c.StartedAt.UTC().Format(time.RFC3339),
		CompletesAt: c.CompletesAt.UTC().Format(time.RFC3339),
		RemainingS:  remaining,
	}
}

func viewPlanet(p *models.Planet, now time.Time) planetView {
	v := planetView{
		ID:        p.ID,
		Name:      p.Name,
		Buildings: make(map[string]int, len(p.Buildings)),
		Resources: viewResources(p.Resources),
		Fields:    p.Fields,
	}
	for k, lvl := range p.Buildings {
		v.Buildings[string(k)] = lvl
	}
	for _, c := range p.Queue {
		v.Queue = append(v.Queue, viewConstruction(c, now))
	}
	return v
}

func viewOfficer(o *models.Officer, now time.Time) officerView {
	v := officerView{
		ID:                   o.ID,
		Archetype:            string(o.Archetype),
		Name:                 o.Name,
		Rank:                 o.Rank,
		Experience:           o.Experience,
		ExperienceToNextRank: o.ExperienceToNextRank,
		Active:               o.Active,
		Bonuses:              make(map[string]int, len(o.BaseBonuses)),
	}
	for k, pct := range o.BaseBonuses {
		v.Bonuses[string(k)] = pct
	}
	for i := range o.Abilities {
		a := &o.Abilities[i]
		av := abilityView{
			ID:             a.ID,
			Name:           a.Name,
			Kind:           string(a.Kind),
			CooldownHours:  a.CooldownHours,
			DarkMatterCost: a.DarkMatterCost,
			Ready:          a.Ready(now),
		}
		if !av.Ready {
			av.ReadyAt = a.ReadyAt().UTC().Format(time.RFC3339)
			av.RemainingS = int64(a.ReadyAt().Sub(now) / time.Second)
		}
		v.Abilities = append(v.Abilities, av)
	}
	return v
}

func viewEmpire(e *models.Empire, now time.Time) empireView {
	v := empireView{
		ID:         e.ID,
		DarkMatter: e.DarkMatter,
		Research:   make(map[string]int, len(e.Research)),
		Version:    e.Version,
	}
	for k, lvl := range e.Research {
		v.Research[string(k)] = lvl
	}
	for _, c := range e.ResearchQueue {
		v.ResearchQueue = append(v.ResearchQueue, viewConstruction(c, now))
	}
	// Planet order must not depend on map iteration.
	ids := make([]string, 0, len(e.Planets))
	for id := range e.Planets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		v.Planets = append(v.Planets, viewPlanet(e.Planets[id], now))
	}
	for _, o := range e.Officers {
		v.Officers = append(v.Officers, viewOfficer(o, now))
	}
	return v
}

func viewQuote(q empire.Quote) quoteView {
	return quoteView{
		Cost:        viewResources(q.Cost),
		TimeSeconds: int64(q.Time / time.Second),
	}
}

func viewRejection(rej *empire.Rejection) rejectionView {
	v := rejectionView{
		Reason: string(rej.Reason),
		Detail: rej.Detail,
	}
	if len(rej.Missing) > 0 {
		v.Missing = make(map[string]int, len(rej.Missing))
		for k, lvl := range rej.Missing {
			v.Missing[string(k)] = lvl
		}
	}
	if !rej.Shortfall.IsZero() {
		s := viewResources(rej.Shortfall)
		v.Shortfall = &s
	}
	if rej.Remaining > 0 {
		v.RemainingS = int64(rej.Remaining / time.Second)
	}
	return v
}
