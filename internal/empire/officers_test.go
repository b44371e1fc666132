package empire

import (
	"testing"

	"github.com/castevet/empire-core/internal/models"
)

// TestHireOfficer verifies hiring debits the price and instantiates the
// archetype at rank 1 with its abilities
func TestHireOfficer(t *testing.T) {
	l := NewLedger(testCatalog(t))
	e := testEmpire(models.Resources{})

	o, rej, err := l.Hire(e, models.Commander, "o1", "")
	if err != nil || rej != nil {
		t.Fatalf("Failed to hire: err=%v rej=%v", err, rej)
	}
	if e.DarkMatter != 8000 {
		t.Errorf("Dark matter after hire: got %d, want 8000", e.DarkMatter)
	}
	if o.Rank != 1 || !o.Active {
		t.Errorf("New officer: rank=%d active=%v, want rank 1 active", o.Rank, o.Active)
	}
	if o.BaseBonuses[models.BonusBuildingSpeed] != 25 {
		t.Errorf("building_speed: got %d, want 25", o.BaseBonuses[models.BonusBuildingSpeed])
	}
	if len(o.Abilities) != 1 || o.Abilities[0].ID != "commander_rush" {
		t.Errorf("Abilities not instantiated: %+v", o.Abilities)
	}

	// Drain the wallet: hire is refused with the exact shortfall.
	e.DarkMatter = 100
	_, rej, err = l.Hire(e, models.Commander, "o2", "")
	if err != nil {
		t.Fatalf("Failed to hire: %v", err)
	}
	if rej == nil || rej.Reason != ReasonInsufficientFunds {
		t.Fatalf("Expected insufficient_funds, got %v", rej)
	}
	if rej.Shortfall.DarkMatter != 1900 {
		t.Errorf("Shortfall: got %d, want 1900", rej.Shortfall.DarkMatter)
	}
}

// TestPromoteScalesBonuses verifies the floor(x1.2) growth rule:
// building_speed 25 becomes 30 after one promotion, and a negative
// bonus floors toward minus infinity (-9 becomes -11).
func TestPromoteScalesBonuses(t *testing.T) {
	l := NewLedger(testCatalog(t))
	e := testEmpire(models.Resources{})

	o, rej, err := l.Hire(e, models.Commander, "o1", "")
	if err != nil || rej != nil {
		t.Fatalf("Failed to hire: err=%v rej=%v", err, rej)
	}
	o.BaseBonuses[models.BonusFuelConsumption] = -9
	o.Experience = 500

	promoted, rej, err := l.Promote(e, "o1")
	if err != nil || rej != nil {
		t.Fatalf("Failed to promote: err=%v rej=%v", err, rej)
	}
	if promoted.Rank != 2 {
		t.Errorf("Rank: got %d, want 2", promoted.Rank)
	}
	if promoted.BaseBonuses[models.BonusBuildingSpeed] != 30 {
		t.Errorf("building_speed after promotion: got %d, want 30",
			promoted.BaseBonuses[models.BonusBuildingSpeed])
	}
	if promoted.BaseBonuses[models.BonusFuelConsumption] != -11 {
		t.Errorf("fuel_consumption after promotion: got %d, want -11",
			promoted.BaseBonuses[models.BonusFuelConsumption])
	}
}

// TestPromoteRequiresBoth verifies promotion needs the dark matter AND
// the experience; either shortfall alone refuses it
func TestPromoteRequiresBoth(t *testing.T) {
	catalog := testCatalog(t)
	l := NewLedger(catalog)
	cost, ok := catalog.Promotion(2)
	if !ok {
		t.Fatal("Promotion table missing rank 2")
	}

	tests := []struct {
		name       string
		darkMatter int64
		experience int64
		wantOK     bool
	}{
		{"both short", cost.DarkMatter - 1, cost.Experience - 1, false},
		{"funds short", cost.DarkMatter - 1, cost.Experience, false},
		{"experience short", cost.DarkMatter, cost.Experience - 1, false},
		{"exactly enough", cost.DarkMatter, cost.Experience, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEmpire(models.Resources{})
			e.DarkMatter = 10000
			o, rej, err := l.Hire(e, models.Commander, "o1", "")
			if err != nil || rej != nil {
				t.Fatalf("Failed to hire: err=%v rej=%v", err, rej)
			}
			e.DarkMatter = tt.darkMatter
			o.Experience = tt.experience

			_, rej, err = l.Promote(e, "o1")
			if err != nil {
				t.Fatalf("Failed to promote: %v", err)
			}
			if tt.wantOK && rej != nil {
				t.Fatalf("Expected promotion, got %v", rej)
			}
			if !tt.wantOK {
				if rej == nil || rej.Reason != ReasonInsufficientRankOrFunds {
					t.Fatalf("Expected insufficient_rank_or_funds, got %v", rej)
				}
			}
		})
	}
}

// TestPromoteDebitsAndBanksExperience verifies the promotion spends the
// table price from both pools
func TestPromoteDebitsAndBanksExperience(t *testing.T) {
	catalog := testCatalog(t)
	l := NewLedger(catalog)
	e := testEmpire(models.Resources{})
	o, rej, err := l.Hire(e, models.Commander, "o1", "")
	if err != nil || rej != nil {
		t.Fatalf("Failed to hire: err=%v rej=%v", err, rej)
	}

	cost, _ := catalog.Promotion(2)
	dmBefore := e.DarkMatter
	o.Experience = cost.Experience + 37

	if _, rej, err := l.Promote(e, "o1"); err != nil || rej != nil {
		t.Fatalf("Failed to promote: err=%v rej=%v", err, rej)
	}
	if e.DarkMatter != dmBefore-cost.DarkMatter {
		t.Errorf("Dark matter: got %d, want %d", e.DarkMatter, dmBefore-cost.DarkMatter)
	}
	if o.Experience != 37 {
		t.Errorf("Leftover experience: got %d, want 37", o.Experience)
	}
}

// TestMaxRankCap verifies an officer at the top rank cannot be promoted
func TestMaxRankCap(t *testing.T) {
	l := NewLedger(testCatalog(t))
	e := testEmpire(models.Resources{})
	o, rej, err := l.Hire(e, models.Commander, "o1", "")
	if err != nil || rej != nil {
		t.Fatalf("Failed to hire: err=%v rej=%v", err, rej)
	}
	o.Rank = models.MaxRank
	o.Experience = 1 << 40
	e.DarkMatter = 1 << 40

	_, rej, err = l.Promote(e, "o1")
	if err != nil {
		t.Fatalf("Failed to promote: %v", err)
	}
	if rej == nil || rej.Reason != ReasonMaxLevelReached {
		t.Errorf("Expected max_level_reached, got %v", rej)
	}
}

// TestGrantExperienceRejectsNegative verifies a negative amount is a
// tagged rejection that leaves the officer untouched
func TestGrantExperienceRejectsNegative(t *testing.T) {
	l := NewLedger(testCatalog(t))
	e := testEmpire(models.Resources{})
	o, rej, err := l.Hire(e, models.Commander, "o1", "")
	if err != nil || rej != nil {
		t.Fatalf("Failed to hire: err=%v rej=%v", err, rej)
	}

	rej, err = l.GrantExperience(e, "o1", -5)
	if err != nil {
		t.Fatalf("Failed to grant: %v", err)
	}
	if rej == nil || rej.Reason != ReasonInvalidArgument {
		t.Fatalf("Expected invalid_argument, got %v", rej)
	}
	if o.Experience != 0 {
		t.Errorf("Experience changed on a refused grant: %d", o.Experience)
	}

	if rej, err := l.GrantExperience(e, "o1", 40); err != nil || rej != nil {
		t.Fatalf("Failed to grant: err=%v rej=%v", err, rej)
	}
	if o.Experience != 40 {
		t.Errorf("Experience: got %d, want 40", o.Experience)
	}
}

// TestDismissAndSetActive verifies roster removal and the activity
// toggle feeding aggregation
func TestDismissAndSetActive(t *testing.T) {
	l := NewLedger(testCatalog(t))
	e := testEmpire(models.Resources{})
	if _, rej, err := l.Hire(e, models.Commander, "o1", ""); err != nil || rej != nil {
		t.Fatalf("Failed to hire: err=%v rej=%v", err, rej)
	}

	if rej := l.SetActive(e, "o1", false); rej != nil {
		t.Fatalf("Failed to deactivate: %v", rej)
	}
	if totals := Aggregate(e.Officers); len(totals) != 0 {
		t.Errorf("Inactive officer still aggregated: %v", totals)
	}

	if rej := l.Dismiss(e, "o1"); rej != nil {
		t.Fatalf("Failed to dismiss: %v", rej)
	}
	if len(e.Officers) != 0 {
		t.Errorf("Roster not empty after dismiss: %d", len(e.Officers))
	}
	if rej := l.Dismiss(e, "o1"); rej == nil || rej.Reason != ReasonNotFound {
		t.Errorf("Expected not_found on double dismiss, got %v", rej)
	}
}
