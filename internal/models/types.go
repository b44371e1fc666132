package models

import "time"

// ResourceType represents the different resource types in the game
type ResourceType string

const (
	Metal      ResourceType = "metal"
	Crystal    ResourceType = "crystal"
	Deuterium  ResourceType = "deuterium"
	Energy     ResourceType = "energy"
	DarkMatter ResourceType = "dark_matter"
)

// AllResourceTypes returns all resource types in deterministic order
func AllResourceTypes() []ResourceType {
	return []ResourceType{Metal, Crystal, Deuterium, Energy, DarkMatter}
}

// Resources is a fixed bundle of resource amounts (no maps)
type Resources struct {
	Metal      int64 `json:"metal"`
	Crystal    int64 `json:"crystal"`
	Deuterium  int64 `json:"deuterium"`
	Energy     int64 `json:"energy"`
	DarkMatter int64 `json:"dark_matter"`
}

// Get returns the amount for a specific resource type
func (r Resources) Get(rt ResourceType) int64 {
	switch rt {
	case Metal:
		return r.Metal
	case Crystal:
		return r.Crystal
	case Deuterium:
		return r.Deuterium
	case Energy:
		return r.Energy
	case DarkMatter:
		return r.DarkMatter
	}
	return 0
}

// Add returns the component-wise sum of two bundles
func (r Resources) Add(o Resources) Resources {
	return Resources{
		Metal:      r.Metal + o.Metal,
		Crystal:    r.Crystal + o.Crystal,
		Deuterium:  r.Deuterium + o.Deuterium,
		Energy:     r.Energy + o.Energy,
		DarkMatter: r.DarkMatter + o.DarkMatter,
	}
}

// Sub returns the component-wise difference of two bundles
func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Metal:      r.Metal - o.Metal,
		Crystal:    r.Crystal - o.Crystal,
		Deuterium:  r.Deuterium - o.Deuterium,
		Energy:     r.Energy - o.Energy,
		DarkMatter: r.DarkMatter - o.DarkMatter,
	}
}

// Covers reports whether every component of r is at least the
// corresponding component of o
func (r Resources) Covers(o Resources) bool {
	return r.Metal >= o.Metal &&
		r.Crystal >= o.Crystal &&
		r.Deuterium >= o.Deuterium &&
		r.Energy >= o.Energy &&
		r.DarkMatter >= o.DarkMatter
}

// Shortfall returns, per component, how much of o exceeds r (zero where covered)
func (r Resources) Shortfall(o Resources) Resources {
	short := func(have, want int64) int64 {
		if want > have {
			return want - have
		}
		return 0
	}
	return Resources{
		Metal:      short(r.Metal, o.Metal),
		Crystal:    short(r.Crystal, o.Crystal),
		Deuterium:  short(r.Deuterium, o.Deuterium),
		Energy:     short(r.Energy, o.Energy),
		DarkMatter: short(r.DarkMatter, o.DarkMatter),
	}
}

// NonNegative reports whether no component is below zero
func (r Resources) NonNegative() bool {
	return r.Metal >= 0 && r.Crystal >= 0 && r.Deuterium >= 0 &&
		r.Energy >= 0 && r.DarkMatter >= 0
}

// IsZero reports whether every component is zero
func (r Resources) IsZero() bool {
	return r == Resources{}
}

// StructureKey identifies a building or a research technology.
// Buildings and technologies share one keyspace; the catalog entry's
// Kind tells them apart.
type StructureKey string

// Building keys
const (
	MetalMine            StructureKey = "metal_mine"
	CrystalMine          StructureKey = "crystal_mine"
	DeuteriumSynthesizer StructureKey = "deuterium_synthesizer"
	SolarPlant           StructureKey = "solar_plant"
	FusionReactor        StructureKey = "fusion_reactor"
	RoboticsFactory      StructureKey = "robotics_factory"
	NaniteFactory        StructureKey = "nanite_factory"
	Shipyard             StructureKey = "shipyard"
	ResearchLab          StructureKey = "research_lab"
	MetalStorage         StructureKey = "metal_storage"
	CrystalStorage       StructureKey = "crystal_storage"
	DeuteriumTank        StructureKey = "deuterium_tank"
	Terraformer          StructureKey = "terraformer"
	MissileSilo          StructureKey = "missile_silo"
)

// Research keys
const (
	EnergyTech      StructureKey = "energy_technology"
	LaserTech       StructureKey = "laser_technology"
	IonTech         StructureKey = "ion_technology"
	HyperspaceTech  StructureKey = "hyperspace_technology"
	PlasmaTech      StructureKey = "plasma_technology"
	CombustionDrive StructureKey = "combustion_drive"
	ImpulseDrive    StructureKey = "impulse_drive"
	HyperspaceDrive StructureKey = "hyperspace_drive"
	EspionageTech   StructureKey = "espionage_technology"
	ComputerTech    StructureKey = "computer_technology"
	Astrophysics    StructureKey = "astrophysics"
	ResearchNetwork StructureKey = "intergalactic_research_network"
	WeaponsTech     StructureKey = "weapons_technology"
	ShieldingTech   StructureKey = "shielding_technology"
	ArmourTech      StructureKey = "armour_technology"
)

// AllBuildingKeys returns all building keys in deterministic order
func AllBuildingKeys() []StructureKey {
	return []StructureKey{
		MetalMine, CrystalMine, DeuteriumSynthesizer,
		SolarPlant, FusionReactor,
		RoboticsFactory, NaniteFactory, Shipyard, ResearchLab,
		MetalStorage, CrystalStorage, DeuteriumTank,
		Terraformer, MissileSilo,
	}
}

// AllResearchKeys returns all research keys in deterministic order
func AllResearchKeys() []StructureKey {
	return []StructureKey{
		EnergyTech, LaserTech, IonTech, HyperspaceTech, PlasmaTech,
		CombustionDrive, ImpulseDrive, HyperspaceDrive,
		EspionageTech, ComputerTech, Astrophysics, ResearchNetwork,
		WeaponsTech, ShieldingTech, ArmourTech,
	}
}

// BonusKey is the closed set of percentage-modifier categories granted
// by officers. Values are signed percentages; negative means a
// cost/consumption reduction.
type BonusKey string

const (
	BonusMetalProduction     BonusKey = "metal_production"
	BonusCrystalProduction   BonusKey = "crystal_production"
	BonusDeuteriumProduction BonusKey = "deuterium_production"
	BonusEnergyProduction    BonusKey = "energy_production"
	BonusBuildingSpeed       BonusKey = "building_speed"
	BonusBuildingCost        BonusKey = "building_cost"
	BonusResearchSpeed       BonusKey = "research_speed"
	BonusResearchCost        BonusKey = "research_cost"
	BonusShipyardSpeed       BonusKey = "shipyard_speed"
	BonusFleetSpeed          BonusKey = "fleet_speed"
	BonusFleetCapacity       BonusKey = "fleet_capacity"
	BonusFuelConsumption     BonusKey = "fuel_consumption"
	BonusTrade               BonusKey = "trade"
	BonusStorageCapacity     BonusKey = "storage_capacity"
	BonusExpeditionSlots     BonusKey = "expedition_slots"
	BonusExpeditionSuccess   BonusKey = "expedition_success"
	BonusEspionage           BonusKey = "espionage"
	BonusPlanetSlots         BonusKey = "planet_slots"
)

// AllBonusKeys returns all bonus keys in deterministic order
func AllBonusKeys() []BonusKey {
	return []BonusKey{
		BonusMetalProduction, BonusCrystalProduction,
		BonusDeuteriumProduction, BonusEnergyProduction,
		BonusBuildingSpeed, BonusBuildingCost,
		BonusResearchSpeed, BonusResearchCost,
		BonusShipyardSpeed,
		BonusFleetSpeed, BonusFleetCapacity, BonusFuelConsumption,
		BonusTrade, BonusStorageCapacity,
		BonusExpeditionSlots, BonusExpeditionSuccess,
		BonusEspionage, BonusPlanetSlots,
	}
}

// Valid reports whether k is a member of the closed bonus key set
func (k BonusKey) Valid() bool {
	switch k {
	case BonusMetalProduction, BonusCrystalProduction,
		BonusDeuteriumProduction, BonusEnergyProduction,
		BonusBuildingSpeed, BonusBuildingCost,
		BonusResearchSpeed, BonusResearchCost,
		BonusShipyardSpeed,
		BonusFleetSpeed, BonusFleetCapacity, BonusFuelConsumption,
		BonusTrade, BonusStorageCapacity,
		BonusExpeditionSlots, BonusExpeditionSuccess,
		BonusEspionage, BonusPlanetSlots:
		return true
	}
	return false
}

// DisplayName returns the human-readable name for a bonus key.
// The switch is exhaustive over the closed set so a new key cannot be
// added without a display name.
func (k BonusKey) DisplayName() string {
	switch k {
	case BonusMetalProduction:
		return "Metal production"
	case BonusCrystalProduction:
		return "Crystal production"
	case BonusDeuteriumProduction:
		return "Deuterium production"
	case BonusEnergyProduction:
		return "Energy production"
	case BonusBuildingSpeed:
		return "Building speed"
	case BonusBuildingCost:
		return "Building cost"
	case BonusResearchSpeed:
		return "Research speed"
	case BonusResearchCost:
		return "Research cost"
	case BonusShipyardSpeed:
		return "Shipyard speed"
	case BonusFleetSpeed:
		return "Fleet speed"
	case BonusFleetCapacity:
		return "Fleet capacity"
	case BonusFuelConsumption:
		return "Fuel consumption"
	case BonusTrade:
		return "Trade bonus"
	case BonusStorageCapacity:
		return "Storage capacity"
	case BonusExpeditionSlots:
		return "Expedition slots"
	case BonusExpeditionSuccess:
		return "Expedition success"
	case BonusEspionage:
		return "Espionage bonus"
	case BonusPlanetSlots:
		return "Planet slots"
	}
	return string(k)
}

// ProductionBonusKey returns the bonus key modifying production of the
// given resource, or "" if production of that resource is not boostable
func ProductionBonusKey(rt ResourceType) BonusKey {
	switch rt {
	case Metal:
		return BonusMetalProduction
	case Crystal:
		return BonusCrystalProduction
	case Deuterium:
		return BonusDeuteriumProduction
	case Energy:
		return BonusEnergyProduction
	}
	return ""
}

// Fields tracks the per-planet cap on buildable structure slots
type Fields struct {
	Used  int `json:"used"`
	Total int `json:"total"`
}

// Construction is a pending build with an explicit completion timestamp.
// Completion is evaluated lazily against "now"; the level is credited
// exactly once when the record is settled.
type Construction struct {
	ID          string       `json:"id"`
	Structure   StructureKey `json:"structure"`
	TargetLevel int          `json:"target_level"`
	StartedAt   time.Time    `json:"started_at"`
	CompletesAt time.Time    `json:"completes_at"`
}

// Done reports whether the construction has completed at the given time.
// Exactly at the boundary timestamp counts as done.
func (c Construction) Done(now time.Time) bool {
	return !now.Before(c.CompletesAt)
}

// Planet owns building levels, a resource store and field capacity.
// It is mutated only through gate-approved transitions.
type Planet struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Buildings map[StructureKey]int `json:"buildings"`
	Resources Resources            `json:"resources"`
	Fields    Fields               `json:"fields"`
	Queue     []Construction       `json:"queue,omitempty"`
	AccruedAt time.Time            `json:"accrued_at,omitzero"`
}

// BuildingLevel returns the current level of a building (0 if absent)
func (p *Planet) BuildingLevel(key StructureKey) int {
	return p.Buildings[key]
}

// Clone creates a deep copy of the planet
func (p *Planet) Clone() *Planet {
	clone := &Planet{
		ID:        p.ID,
		Name:      p.Name,
		Buildings: make(map[StructureKey]int, len(p.Buildings)),
		Resources: p.Resources,
		Fields:    p.Fields,
		AccruedAt: p.AccruedAt,
	}
	for k, v := range p.Buildings {
		clone.Buildings[k] = v
	}
	if len(p.Queue) > 0 {
		clone.Queue = make([]Construction, len(p.Queue))
		copy(clone.Queue, p.Queue)
	}
	return clone
}

// Empire is the per-player aggregate: planets, empire-wide research,
// the officer roster and the dark matter balance. All mutation goes
// through the engine so concurrent requests serialize per empire.
type Empire struct {
	ID            string               `json:"id"`
	DarkMatter    int64                `json:"dark_matter"`
	Research      map[StructureKey]int `json:"research"`
	ResearchQueue []Construction       `json:"research_queue,omitempty"`
	Planets       map[string]*Planet   `json:"planets"`
	Officers      []*Officer           `json:"officers,omitempty"`

	// Version increments on every applied mutation; the store uses it
	// for optimistic concurrency.
	Version int64 `json:"version"`
}

// ResearchLevel returns the current level of a technology (0 if absent)
func (e *Empire) ResearchLevel(key StructureKey) int {
	return e.Research[key]
}

// Planet returns the planet with the given id, or nil
func (e *Empire) Planet(id string) *Planet {
	return e.Planets[id]
}

// OfficerByID returns the officer with the given id, or nil
func (e *Empire) OfficerByID(id string) *Officer {
	for _, o := range e.Officers {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Clone creates a deep copy of the empire
func (e *Empire) Clone() *Empire {
	clone := &Empire{
		ID:         e.ID,
		DarkMatter: e.DarkMatter,
		Research:   make(map[StructureKey]int, len(e.Research)),
		Planets:    make(map[string]*Planet, len(e.Planets)),
		Version:    e.Version,
	}
	for k, v := range e.Research {
		clone.Research[k] = v
	}
	if len(e.ResearchQueue) > 0 {
		clone.ResearchQueue = make([]Construction, len(e.ResearchQueue))
		copy(clone.ResearchQueue, e.ResearchQueue)
	}
	for id, p := range e.Planets {
		clone.Planets[id] = p.Clone()
	}
	for _, o := range e.Officers {
		clone.Officers = append(clone.Officers, o.Clone())
	}
	return clone
}
