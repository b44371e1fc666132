// Package server exposes the progression engine over HTTP JSON plus a
// websocket event feed. Identity is the X-Empire-ID header; expected
// rejections map to 4xx with a tagged body, configuration errors to
// 500.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/castevet/empire-core/internal/empire"
	"github.com/castevet/empire-core/internal/models"
	"github.com/castevet/empire-core/internal/store"
	"github.com/castevet/empire-core/internal/tuning"
)

const empireHeader = "X-Empire-ID"

// Starter planet stock for a freshly registered empire
var starterResources = models.Resources{Metal: 500, Crystal: 500}

// Server wires the engine, the snapshot store and the event hub behind
// an HTTP mux. Empires are cached in memory once loaded; the engine's
// per-empire lock serializes their mutation, and every mutating
// request persists the bumped version before responding.
type Server struct {
	Engine   *empire.Engine
	Store    *store.Store
	Hub      *Hub
	Tuning   tuning.Tuning
	InfoLog  *log.Logger
	ErrorLog *log.Logger

	mu       sync.Mutex
	empires  map[string]*models.Empire
	limiters map[string]*rate.Limiter
}

// New assembles a server: the hub is created here and the engine's
// notifier feeds both the hub and the persistent event log.
func New(catalog *models.Catalog, st *store.Store, tun tuning.Tuning, infoLog, errorLog *log.Logger) *Server {
	s := &Server{
		Store:    st,
		Hub:      NewHub(),
		Tuning:   tun,
		InfoLog:  infoLog,
		ErrorLog: errorLog,
		empires:  make(map[string]*models.Empire),
		limiters: make(map[string]*rate.Limiter),
	}
	s.Engine = empire.NewEngine(catalog,
		empire.WithBuildSpeedConstant(tun.BuildSpeedConstant),
		empire.WithMaxAccrual(time.Duration(tun.MaxAccrualHours)*time.Hour),
		empire.WithNotifier(func(ev empire.Event) {
			s.Hub.Broadcast(ev)
			if err := st.AppendEvent(ev); err != nil {
				errorLog.Printf("event log: %v", err)
			}
		}),
	)
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("GET /api/state", s.withEmpire(s.handleState))
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("POST /api/preview", s.withEmpire(s.handlePreview))
	mux.HandleFunc("POST /api/build", s.withEmpire(s.handleBuild))
	mux.HandleFunc("POST /api/cancel", s.withEmpire(s.handleCancel))
	mux.HandleFunc("GET /api/bonuses", s.withEmpire(s.handleBonuses))
	mux.HandleFunc("GET /api/officers", s.withEmpire(s.handleOfficers))
	mux.HandleFunc("POST /api/officers/hire", s.withEmpire(s.handleHire))
	mux.HandleFunc("POST /api/officers/promote", s.withEmpire(s.handlePromote))
	mux.HandleFunc("POST /api/officers/dismiss", s.withEmpire(s.handleDismiss))
	mux.HandleFunc("POST /api/officers/active", s.withEmpire(s.handleSetActive))
	mux.HandleFunc("POST /api/officers/experience", s.withEmpire(s.handleGrantExperience))
	mux.HandleFunc("GET /api/abilities", s.withEmpire(s.handleAbilities))
	mux.HandleFunc("POST /api/abilities/invoke", s.withEmpire(s.handleInvoke))
	mux.HandleFunc("GET /api/events", s.withEmpire(s.handleEvents))
	mux.HandleFunc("GET /ws", s.handleWS)
	return s.cors(s.rateLimit(mux))
}

// middleware

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+empireHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		s.mu.Lock()
		limiter, ok := s.limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(10), 30)
			s.limiters[ip] = limiter
		}
		s.mu.Unlock()
		if !limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type empireHandler func(w http.ResponseWriter, r *http.Request, e *models.Empire)

// withEmpire resolves the X-Empire-ID header to a cached empire,
// loading from the store on first touch
func (s *Server) withEmpire(fn empireHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(empireHeader)
		if id == "" {
			http.Error(w, "missing "+empireHeader+" header", http.StatusUnauthorized)
			return
		}
		e, err := s.empire(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "unknown empire", http.StatusNotFound)
				return
			}
			s.fail(w, err)
			return
		}
		fn(w, r, e)
	}
}

func (s *Server) empire(id string) (*models.Empire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.empires[id]; ok {
		return e, nil
	}
	e, err := s.Store.LoadEmpire(id)
	if err != nil {
		return nil, err
	}
	s.empires[id] = e
	return e, nil
}

// handlers

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = "Homeworld"
	}
	e := &models.Empire{
		ID:         uuid.NewString(),
		DarkMatter: s.Tuning.StarterDarkMatter,
		Research:   make(map[models.StructureKey]int),
		Planets:    make(map[string]*models.Planet),
		Version:    1,
	}
	p := &models.Planet{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Buildings: make(map[models.StructureKey]int),
		Resources: starterResources,
		Fields:    models.Fields{Total: s.Tuning.StarterFields},
	}
	e.Planets[p.ID] = p
	if err := s.Store.SaveEmpire(e); err != nil {
		s.fail(w, err)
		return
	}
	s.mu.Lock()
	s.empires[e.ID] = e
	s.mu.Unlock()
	s.InfoLog.Printf("registered empire %s", e.ID)
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"empire_id": e.ID,
		"planet_id": p.ID,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	if err := s.Engine.Tick(e); err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	s.writeJSON(w, http.StatusOK, viewEmpire(e, time.Now()))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Catalog().Structures())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		PlanetID  string `json:"planet_id"`
		Structure string `json:"structure"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	quote, rej, err := s.Engine.PreviewCost(e, req.PlanetID, models.StructureKey(req.Structure))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	// No quote means there is nothing to price (unknown planet, level
	// cap); anything else previews fine even when the build would be
	// refused.
	if rej != nil && quote == (empire.Quote{}) {
		s.reject(w, rej)
		return
	}
	view := previewView{
		Cost:        viewResources(quote.Cost),
		TimeSeconds: int64(quote.Time / time.Second),
		Affordable:  rej == nil,
	}
	if rej != nil {
		view.Reason = string(rej.Reason)
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		PlanetID  string `json:"planet_id"`
		Structure string `json:"structure"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	c, quote, rej, err := s.Engine.Build(e, req.PlanetID, models.StructureKey(req.Structure))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	if rej != nil {
		s.reject(w, rej)
		return
	}
	s.writeJSON(w, http.StatusOK, struct {
		Construction constructionView `json:"construction"`
		Quote        quoteView        `json:"quote"`
	}{viewConstruction(c, time.Now()), viewQuote(quote)})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		PlanetID       string `json:"planet_id"`
		ConstructionID string `json:"construction_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	rej, err := s.Engine.CancelConstruction(e, req.PlanetID, req.ConstructionID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	if rej != nil {
		s.reject(w, rej)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBonuses(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	totals, err := s.Engine.AggregateBonuses(e)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	out := make(map[string]int, len(totals))
	for k, v := range totals {
		out[string(k)] = v
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOfficers(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	if err := s.Engine.Tick(e); err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	now := time.Now()
	out := make([]officerView, 0, len(e.Officers))
	for _, o := range e.Officers {
		out = append(out, viewOfficer(o, now))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		Archetype string `json:"archetype"`
		Name      string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	o, rej, err := s.Engine.HireOfficer(e, models.ArchetypeKey(req.Archetype), req.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	if rej != nil {
		s.reject(w, rej)
		return
	}
	s.writeJSON(w, http.StatusCreated, viewOfficer(o, time.Now()))
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		OfficerID string `json:"officer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	o, rej, err := s.Engine.PromoteOfficer(e, req.OfficerID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	if rej != nil {
		s.reject(w, rej)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOfficer(o, time.Now()))
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		OfficerID string `json:"officer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	rej, err := s.Engine.DismissOfficer(e, req.OfficerID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	if rej != nil {
		s.reject(w, rej)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		OfficerID string `json:"officer_id"`
		Active    bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	rej, err := s.Engine.SetOfficerActive(e, req.OfficerID, req.Active)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	if rej != nil {
		s.reject(w, rej)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGrantExperience(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		OfficerID string `json:"officer_id"`
		Amount    int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	rej, err := s.Engine.GrantExperience(e, req.OfficerID, req.Amount)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	if rej != nil {
		s.reject(w, rej)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAbilities(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	statuses, err := s.Engine.AbilityStatuses(e)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	s.writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	var req struct {
		OfficerID string `json:"officer_id"`
		AbilityID string `json:"ability_id"`
		PlanetID  string `json:"planet_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}
	inv, rej, err := s.Engine.InvokeAbility(e, req.OfficerID, req.AbilityID, req.PlanetID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.persist(e)
	if rej != nil {
		s.reject(w, rej)
		return
	}
	now := time.Now()
	resp := struct {
		Effect    models.AbilityEffect `json:"effect"`
		Completed []constructionView   `json:"completed,omitempty"`
	}{Effect: inv.Effect}
	for _, c := range inv.Completed {
		resp.Completed = append(resp.Completed, viewConstruction(c, now))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, e *models.Empire) {
	events, err := s.Store.Events(e.ID, 100)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(empireHeader)
	if id == "" {
		id = r.URL.Query().Get("empire")
	}
	if id == "" {
		http.Error(w, "missing empire id", http.StatusUnauthorized)
		return
	}
	if _, err := s.empire(id); err != nil {
		http.Error(w, "unknown empire", http.StatusNotFound)
		return
	}
	if err := s.Hub.serve(w, r, id); err != nil {
		s.ErrorLog.Printf("websocket upgrade: %v", err)
	}
}

// helpers

// persist writes the current snapshot; a version conflict here means a
// concurrent process owns newer state and is logged, not returned, so
// reads stay available.
func (s *Server) persist(e *models.Empire) {
	if err := s.Store.SaveEmpire(e); err != nil && !errors.Is(err, store.ErrVersionConflict) {
		s.ErrorLog.Printf("persist empire %s: %v", e.ID, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.ErrorLog.Printf("encode response: %v", err)
	}
}

func (s *Server) reject(w http.ResponseWriter, rej *empire.Rejection) {
	status := http.StatusConflict
	switch rej.Reason {
	case empire.ReasonNotFound:
		status = http.StatusNotFound
	case empire.ReasonInvalidArgument:
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, viewRejection(rej))
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	var cfg *empire.ConfigurationError
	if errors.As(err, &cfg) {
		s.ErrorLog.Printf("configuration: %v", cfg)
		http.Error(w, "configuration error", http.StatusInternalServerError)
		return
	}
	s.ErrorLog.Printf("internal: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
