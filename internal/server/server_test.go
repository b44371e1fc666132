package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/castevet/empire-core/internal/models"
	"github.com/castevet/empire-core/internal/store"
	"github.com/castevet/empire-core/internal/tuning"
)

func testCatalog(t *testing.T) *models.Catalog {
	t.Helper()
	promotions := make(models.PromotionTable)
	for rank := 2; rank <= models.MaxRank; rank++ {
		promotions[rank] = models.PromotionCost{
			DarkMatter: int64(rank * 500),
			Experience: int64(rank * 100),
		}
	}
	catalog, err := models.NewCatalog(
		[]*models.CatalogEntry{
			{
				// The slow time factor keeps even a level-0 build in
				// flight for a few seconds, so queue assertions can run
				// before it settles.
				Key: models.MetalMine, Kind: models.KindBuilding, Name: "Metal Mine",
				BaseCost: models.Resources{Metal: 60, Crystal: 15}, TimeFactor: 1000,
				MaxLevel: 40, UsesField: true,
				Produces: models.Metal, BaseHourlyYield: 30,
			},
			{
				Key: models.CrystalMine, Kind: models.KindBuilding, Name: "Crystal Mine",
				BaseCost: models.Resources{Metal: 48, Crystal: 24}, TimeFactor: 1,
				MaxLevel: 40, UsesField: true,
				Produces: models.Crystal, BaseHourlyYield: 20,
			},
		},
		[]*models.ArchetypeEntry{
			{
				Key: models.Commander, Name: "Commander", HireDarkMatter: 2000,
				BaseBonuses:    map[models.BonusKey]int{models.BonusBuildingSpeed: 25},
				BaseExperience: 100,
			},
		},
		promotions,
	)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}
	return catalog
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "empire.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	quiet := log.New(io.Discard, "", 0)
	srv := New(testCatalog(t), st, tuning.Default(), quiet, quiet)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, empireID string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if empireID != "" {
		req.Header.Set("X-Empire-ID", empireID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				t.Fatalf("Failed to decode %s %s response %q: %v", method, path, data, err)
			}
		}
	}
	return resp.StatusCode
}

func register(t *testing.T, ts *httptest.Server) (empireID, planetID string) {
	t.Helper()
	var out map[string]string
	status := doJSON(t, ts, http.MethodPost, "/api/register", "", map[string]string{"name": "Test"}, &out)
	if status != http.StatusCreated {
		t.Fatalf("Register: status %d", status)
	}
	return out["empire_id"], out["planet_id"]
}

// TestRegisterAndState verifies registration seeds a starter empire and
// the state endpoint returns it
func TestRegisterAndState(t *testing.T) {
	ts := testServer(t)
	empireID, planetID := register(t, ts)

	var state empireView
	status := doJSON(t, ts, http.MethodGet, "/api/state", empireID, nil, &state)
	if status != http.StatusOK {
		t.Fatalf("State: status %d", status)
	}
	if state.ID != empireID || len(state.Planets) != 1 {
		t.Fatalf("State: %+v", state)
	}
	if state.Planets[0].ID != planetID {
		t.Errorf("Planet id: got %s, want %s", state.Planets[0].ID, planetID)
	}
	if state.DarkMatter != tuning.Default().StarterDarkMatter {
		t.Errorf("Dark matter: got %d", state.DarkMatter)
	}
}

// TestAuthRequired verifies the identity header gates every empire
// endpoint
func TestAuthRequired(t *testing.T) {
	ts := testServer(t)

	if status := doJSON(t, ts, http.MethodGet, "/api/state", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("Missing header: status %d, want 401", status)
	}
	if status := doJSON(t, ts, http.MethodGet, "/api/state", "ghost", nil, nil); status != http.StatusNotFound {
		t.Errorf("Unknown empire: status %d, want 404", status)
	}
}

// TestBuildFlow verifies preview and build over HTTP, including the
// busy rejection as a tagged 409 and the preview of an upgrade the
// empire cannot start right now
func TestBuildFlow(t *testing.T) {
	ts := testServer(t)
	empireID, planetID := register(t, ts)
	body := map[string]string{"planet_id": planetID, "structure": "metal_mine"}

	var preview previewView
	if status := doJSON(t, ts, http.MethodPost, "/api/preview", empireID, body, &preview); status != http.StatusOK {
		t.Fatalf("Preview: status %d", status)
	}
	if preview.Cost.Metal != 60 || preview.Cost.Crystal != 15 {
		t.Errorf("Preview: %+v", preview)
	}
	if !preview.Affordable {
		t.Errorf("Starter stock should afford a first mine: %+v", preview)
	}

	var built struct {
		Construction constructionView `json:"construction"`
		Quote        quoteView        `json:"quote"`
	}
	if status := doJSON(t, ts, http.MethodPost, "/api/build", empireID, body, &built); status != http.StatusOK {
		t.Fatalf("Build: status %d", status)
	}
	if built.Construction.TargetLevel != 1 {
		t.Errorf("Construction: %+v", built.Construction)
	}

	// The slot is taken: a preview still quotes the price, tagged as
	// not buildable.
	body["structure"] = "crystal_mine"
	var busy previewView
	if status := doJSON(t, ts, http.MethodPost, "/api/preview", empireID, body, &busy); status != http.StatusOK {
		t.Fatalf("Busy preview: status %d", status)
	}
	if busy.Affordable || busy.Reason != "construction_busy" {
		t.Errorf("Busy preview verdict: %+v", busy)
	}
	if busy.Cost.Metal != 48 || busy.Cost.Crystal != 24 {
		t.Errorf("Busy preview cost: %+v", busy)
	}

	// A second build is a tagged conflict.
	var rej rejectionView
	status := doJSON(t, ts, http.MethodPost, "/api/build", empireID, body, &rej)
	if status != http.StatusConflict {
		t.Fatalf("Second build: status %d, want 409", status)
	}
	if rej.Reason != "construction_busy" {
		t.Errorf("Reason: got %q, want construction_busy", rej.Reason)
	}
}

// TestOfficerFlow verifies hire, bonuses and the promotion rejection
// path over HTTP
func TestOfficerFlow(t *testing.T) {
	ts := testServer(t)
	empireID, _ := register(t, ts)

	var officer officerView
	status := doJSON(t, ts, http.MethodPost, "/api/officers/hire", empireID,
		map[string]string{"archetype": "commander"}, &officer)
	if status != http.StatusCreated {
		t.Fatalf("Hire: status %d", status)
	}
	if officer.Rank != 1 || officer.Bonuses["building_speed"] != 25 {
		t.Errorf("Officer: %+v", officer)
	}

	var bonuses map[string]int
	if status := doJSON(t, ts, http.MethodGet, "/api/bonuses", empireID, nil, &bonuses); status != http.StatusOK {
		t.Fatalf("Bonuses: status %d", status)
	}
	if bonuses["building_speed"] != 25 {
		t.Errorf("Bonuses: %v", bonuses)
	}

	// No experience banked: promotion is refused.
	var rej rejectionView
	status = doJSON(t, ts, http.MethodPost, "/api/officers/promote", empireID,
		map[string]string{"officer_id": officer.ID}, &rej)
	if status != http.StatusConflict {
		t.Fatalf("Promote: status %d, want 409", status)
	}
	if rej.Reason != "insufficient_rank_or_funds" {
		t.Errorf("Reason: got %q", rej.Reason)
	}

	// Unknown officer: 404.
	status = doJSON(t, ts, http.MethodPost, "/api/officers/promote", empireID,
		map[string]string{"officer_id": "ghost"}, nil)
	if status != http.StatusNotFound {
		t.Errorf("Unknown officer: status %d, want 404", status)
	}

	// A negative grant is bad input, not a server error.
	rej = rejectionView{}
	status = doJSON(t, ts, http.MethodPost, "/api/officers/experience", empireID,
		map[string]any{"officer_id": officer.ID, "amount": -5}, &rej)
	if status != http.StatusBadRequest {
		t.Fatalf("Negative grant: status %d, want 400", status)
	}
	if rej.Reason != "invalid_argument" {
		t.Errorf("Reason: got %q, want invalid_argument", rej.Reason)
	}
}

// TestStatePersists verifies mutations survive a fresh server over the
// same database
func TestStatePersists(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "empire.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	quiet := log.New(io.Discard, "", 0)

	ts := httptest.NewServer(New(testCatalog(t), st, tuning.Default(), quiet, quiet).Handler())
	empireID, planetID := register(t, ts)
	body := map[string]string{"planet_id": planetID, "structure": "metal_mine"}
	if status := doJSON(t, ts, http.MethodPost, "/api/build", empireID, body, nil); status != http.StatusOK {
		t.Fatalf("Build: status %d", status)
	}
	ts.Close()

	// Same store, new process: the queued build is still there.
	ts2 := httptest.NewServer(New(testCatalog(t), st, tuning.Default(), quiet, quiet).Handler())
	defer ts2.Close()
	var state empireView
	if status := doJSON(t, ts2, http.MethodGet, "/api/state", empireID, nil, &state); status != http.StatusOK {
		t.Fatalf("State: status %d", status)
	}
	if len(state.Planets) != 1 || len(state.Planets[0].Queue) != 1 {
		t.Errorf("Queue lost across restart: %+v", state.Planets)
	}
}
