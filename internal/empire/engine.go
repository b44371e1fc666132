package empire

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/castevet/empire-core/internal/models"
)

// EventType labels a progression event on the feed
type EventType string

const (
	EventConstructionStarted   EventType = "construction_started"
	EventConstructionCompleted EventType = "construction_completed"
	EventConstructionCancelled EventType = "construction_cancelled"
	EventOfficerHired          EventType = "officer_hired"
	EventOfficerPromoted       EventType = "officer_promoted"
	EventOfficerDismissed      EventType = "officer_dismissed"
	EventAbilityInvoked        EventType = "ability_invoked"
)

// Event is one progression occurrence, emitted after the mutation that
// caused it has been applied
type Event struct {
	Type      EventType           `json:"type"`
	EmpireID  string              `json:"empire_id"`
	Structure models.StructureKey `json:"structure,omitempty"`
	Level     int                 `json:"level,omitempty"`
	OfficerID string              `json:"officer_id,omitempty"`
	AbilityID string              `json:"ability_id,omitempty"`
	At        time.Time           `json:"at"`
}

// Option configures an Engine
type Option func(*Engine)

// WithClock injects the time source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(n *Engine) { n.now = now }
}

// WithBuildSpeedConstant overrides the build-time divisor
func WithBuildSpeedConstant(c float64) Option {
	return func(n *Engine) { n.speedConstant = c }
}

// WithMaxAccrual caps how far back lazy production accrual reaches
func WithMaxAccrual(d time.Duration) Option {
	return func(n *Engine) { n.maxAccrual = d }
}

// WithNotifier registers the event sink. The callback runs while the
// empire is locked and must not block.
func WithNotifier(fn func(Event)) Option {
	return func(n *Engine) { n.notify = fn }
}

// WithIDSource injects the construction/officer ID generator
func WithIDSource(fn func() string) Option {
	return func(n *Engine) { n.newID = fn }
}

// Engine is the transactional facade over the progression subsystems.
// Every operation on an empire runs under that empire's lock, settles
// due constructions and accrues production first, then applies the
// requested mutation and bumps the empire version. Different empires
// never contend.
type Engine struct {
	catalog   *models.Catalog
	cost      *CostModel
	gate      *Gate
	ledger    *Ledger
	abilities *Abilities

	speedConstant float64
	maxAccrual    time.Duration
	now           func() time.Time
	newID         func() string
	notify        func(Event)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine assembles an engine over a validated catalog
func NewEngine(catalog *models.Catalog, opts ...Option) *Engine {
	n := &Engine{
		catalog:       catalog,
		speedConstant: DefaultBuildSpeedConstant,
		maxAccrual:    72 * time.Hour,
		now:           time.Now,
		newID:         uuid.NewString,
		locks:         make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.cost = NewCostModel(catalog, n.speedConstant)
	n.gate = NewGate(catalog, n.cost)
	n.ledger = NewLedger(catalog)
	n.abilities = NewAbilities(catalog)
	return n
}

// Catalog exposes the engine's catalog for read-only presentation
func (n *Engine) Catalog() *models.Catalog { return n.catalog }

// CostModel exposes the cost model for offline projections
func (n *Engine) CostModel() *CostModel { return n.cost }

func (n *Engine) lockFor(id string) *sync.Mutex {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.locks[id]
	if !ok {
		l = &sync.Mutex{}
		n.locks[id] = l
	}
	return l
}

func (n *Engine) emit(ev Event) {
	if n.notify != nil {
		n.notify(ev)
	}
}

// withEmpire serializes an operation on one empire: lock, settle and
// accrue against now, run the operation, bump the version if anything
// changed. Settlement alone counts as a change.
func (n *Engine) withEmpire(e *models.Empire, fn func(now time.Time) (bool, error)) error {
	l := n.lockFor(e.ID)
	l.Lock()
	defer l.Unlock()

	now := n.now()
	settled, err := n.gate.Settle(e, now)
	if err != nil {
		return err
	}
	accrued, err := n.gate.Accrue(e, now, n.maxAccrual)
	if err != nil {
		return err
	}
	for _, c := range settled {
		n.emit(Event{
			Type:      EventConstructionCompleted,
			EmpireID:  e.ID,
			Structure: c.Structure,
			Level:     c.TargetLevel,
			At:        c.CompletesAt,
		})
	}

	mutated, err := fn(now)
	if err != nil {
		return err
	}
	if mutated || accrued || len(settled) > 0 {
		e.Version++
	}
	return nil
}

// Tick settles due constructions and accrues production without any
// further mutation. Reads call it so lazy state is current.
func (n *Engine) Tick(e *models.Empire) error {
	return n.withEmpire(e, func(time.Time) (bool, error) { return false, nil })
}

// PreviewCost quotes an upgrade without changing state. It rejects
// exactly when Build would, and the quote still comes back with a
// rejection so callers can display a price that is not yet payable.
func (n *Engine) PreviewCost(e *models.Empire, planetID string, key models.StructureKey) (Quote, *Rejection, error) {
	var quote Quote
	var rej *Rejection
	err := n.withEmpire(e, func(time.Time) (bool, error) {
		planet := e.Planet(planetID)
		if planet == nil {
			rej = &Rejection{Reason: ReasonNotFound, Detail: planetID}
			return false, nil
		}
		var err error
		quote, rej, err = n.gate.CanBuild(e, planet, key)
		return false, err
	})
	return quote, rej, err
}

// Build debits the quoted cost and enqueues the upgrade
func (n *Engine) Build(e *models.Empire, planetID string, key models.StructureKey) (models.Construction, Quote, *Rejection, error) {
	var c models.Construction
	var quote Quote
	var rej *Rejection
	err := n.withEmpire(e, func(now time.Time) (bool, error) {
		planet := e.Planet(planetID)
		if planet == nil {
			rej = &Rejection{Reason: ReasonNotFound, Detail: planetID}
			return false, nil
		}
		var err error
		c, quote, rej, err = n.gate.Build(e, planet, key, n.newID(), now)
		if err != nil || rej != nil {
			return false, err
		}
		n.emit(Event{
			Type:      EventConstructionStarted,
			EmpireID:  e.ID,
			Structure: key,
			Level:     c.TargetLevel,
			At:        now,
		})
		return true, nil
	})
	return c, quote, rej, err
}

// CancelConstruction drops a pending construction without refund
func (n *Engine) CancelConstruction(e *models.Empire, planetID, constructionID string) (*Rejection, error) {
	var rej *Rejection
	err := n.withEmpire(e, func(now time.Time) (bool, error) {
		planet := e.Planet(planetID)
		c, r := n.gate.Cancel(e, planet, constructionID)
		if r != nil {
			rej = r
			return false, nil
		}
		n.emit(Event{
			Type:      EventConstructionCancelled,
			EmpireID:  e.ID,
			Structure: c.Structure,
			Level:     c.TargetLevel,
			At:        now,
		})
		return true, nil
	})
	return rej, err
}

// AggregateBonuses returns the additive bonus totals of the empire's
// active officers
func (n *Engine) AggregateBonuses(e *models.Empire) (map[models.BonusKey]int, error) {
	var out map[models.BonusKey]int
	err := n.withEmpire(e, func(time.Time) (bool, error) {
		out = Aggregate(e.Officers)
		return false, nil
	})
	return out, err
}

// HireOfficer adds a rank-1 officer of the archetype to the roster
func (n *Engine) HireOfficer(e *models.Empire, archetype models.ArchetypeKey, name string) (*models.Officer, *Rejection, error) {
	var o *models.Officer
	var rej *Rejection
	err := n.withEmpire(e, func(now time.Time) (bool, error) {
		var err error
		o, rej, err = n.ledger.Hire(e, archetype, n.newID(), name)
		if err != nil || rej != nil {
			return false, err
		}
		n.emit(Event{Type: EventOfficerHired, EmpireID: e.ID, OfficerID: o.ID, At: now})
		return true, nil
	})
	return o, rej, err
}

// PromoteOfficer raises an officer one rank against the promotion table
func (n *Engine) PromoteOfficer(e *models.Empire, officerID string) (*models.Officer, *Rejection, error) {
	var o *models.Officer
	var rej *Rejection
	err := n.withEmpire(e, func(now time.Time) (bool, error) {
		var err error
		o, rej, err = n.ledger.Promote(e, officerID)
		if err != nil || rej != nil {
			return false, err
		}
		n.emit(Event{Type: EventOfficerPromoted, EmpireID: e.ID, OfficerID: o.ID, Level: o.Rank, At: now})
		return true, nil
	})
	return o, rej, err
}

// DismissOfficer removes an officer from the roster
func (n *Engine) DismissOfficer(e *models.Empire, officerID string) (*Rejection, error) {
	var rej *Rejection
	err := n.withEmpire(e, func(now time.Time) (bool, error) {
		if rej = n.ledger.Dismiss(e, officerID); rej != nil {
			return false, nil
		}
		n.emit(Event{Type: EventOfficerDismissed, EmpireID: e.ID, OfficerID: officerID, At: now})
		return true, nil
	})
	return rej, err
}

// SetOfficerActive toggles an officer in or out of aggregation
func (n *Engine) SetOfficerActive(e *models.Empire, officerID string, active bool) (*Rejection, error) {
	var rej *Rejection
	err := n.withEmpire(e, func(time.Time) (bool, error) {
		rej = n.ledger.SetActive(e, officerID, active)
		return rej == nil, nil
	})
	return rej, err
}

// GrantExperience credits promotion experience to an officer
func (n *Engine) GrantExperience(e *models.Empire, officerID string, amount int64) (*Rejection, error) {
	var rej *Rejection
	err := n.withEmpire(e, func(time.Time) (bool, error) {
		var err error
		rej, err = n.ledger.GrantExperience(e, officerID, amount)
		return rej == nil && err == nil, err
	})
	return rej, err
}

// InvokeAbility uses an officer ability, debiting its dark matter cost
// and stamping its cooldown
func (n *Engine) InvokeAbility(e *models.Empire, officerID, abilityID, planetID string) (*Invocation, *Rejection, error) {
	var inv *Invocation
	var rej *Rejection
	err := n.withEmpire(e, func(now time.Time) (bool, error) {
		var err error
		inv, rej, err = n.abilities.Invoke(e, n.gate, officerID, abilityID, planetID, now)
		if err != nil || rej != nil {
			return false, err
		}
		n.emit(Event{Type: EventAbilityInvoked, EmpireID: e.ID, OfficerID: officerID, AbilityID: abilityID, At: now})
		for _, c := range inv.Completed {
			n.emit(Event{
				Type:      EventConstructionCompleted,
				EmpireID:  e.ID,
				Structure: c.Structure,
				Level:     c.TargetLevel,
				At:        now,
			})
		}
		return true, nil
	})
	return inv, rej, err
}

// AbilityStatuses returns the lazily evaluated cooldown state of every
// ability on the roster
func (n *Engine) AbilityStatuses(e *models.Empire) ([]AbilityStatus, error) {
	var out []AbilityStatus
	err := n.withEmpire(e, func(now time.Time) (bool, error) {
		out = n.abilities.StatusOf(e, now)
		return false, nil
	})
	return out, err
}
