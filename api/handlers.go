/*
handlers.go - HTTP handler implementations

PURPOSE:
  Implements the HTTP surface over the two simulation engines and the
  hierarchy cache. Handlers only translate between JSON and the domain
  layer: config validation lives on the config types, run lifecycle in
  the job manager, and all simulation math in the engine packages.

RESPONSE FORMAT:
  Success: 2xx with a JSON body
  Error:   4xx/5xx with ErrorResponse{error, details}

HIERARCHY REUSE:
  The engines never touch the store. Before starting a run the handler
  resolves a tree itself: the in-memory tree from the previous run when
  the parameters match, else the SQLite cache, else a fresh generation
  (which is then cached). Because the engine always receives a resolved
  tree, a run's purchase stream is identical whether the hierarchy came
  from the cache or was just generated.

ENDPOINT GROUPS:
  Simulations:  /api/powerup/*, /api/directbonus/*
  Jobs:         /api/jobs/{id}, /api/jobs/{id}/cancel
  Hierarchy:    /api/hierarchy
  Health:       /api/health

SEE ALSO:
  - jobs.go: The job state machine handlers drive
  - server.go: Route definitions
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/lattice/comp-engine/directbonus"
	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/powerup"
	"github.com/lattice/comp-engine/sim"
	"github.com/lattice/comp-engine/store/sqlite"
)

const (
	programPowerUp     = "powerup"
	programDirectBonus = "directbonus"
)

// Handler holds the dependencies of every endpoint.
type Handler struct {
	Store *sqlite.Store
	Jobs  *JobManager

	// The most recent run's tree, kept so a Direct Bonus run can reuse
	// the exact structure a PowerUp run explored.
	mu       sync.Mutex
	lastTree *hierarchy.Tree
	lastKey  sqlite.CacheKey
}

// NewHandler creates a handler backed by the given hierarchy cache.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store: store,
		Jobs:  NewJobManager(),
	}
}

// =============================================================================
// POWERUP ENDPOINTS
// =============================================================================

// GetPowerUpConfig returns the default PowerUp configuration.
// GET /api/powerup/config
func (h *Handler) GetPowerUpConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, powerup.DefaultConfig())
}

// GetPromotionPresets returns the named promotion intensity levels.
// GET /api/powerup/presets
func (h *Handler) GetPromotionPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sim.PromotionPresets)
}

// RunPowerUp starts a PowerUp simulation in the background.
// POST /api/powerup/run
//
// The body is a (possibly partial) powerup.Config; omitted fields keep
// their defaults.
func (h *Handler) RunPowerUp(w http.ResponseWriter, r *http.Request) {
	cfg := powerup.DefaultConfig()
	if err := decodeBody(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid configuration", err)
		return
	}

	key := sqlite.CacheKey{TotalUsers: cfg.TotalUsers, MaxDepth: cfg.MaxDepth, Seed: cfg.Seed}
	job, err := h.Jobs.Start(programPowerUp, func(hooks sim.Hooks) (any, error) {
		tree, err := h.resolveTree(key, hooks)
		if err != nil {
			return nil, err
		}
		result, _, err := powerup.Run(cfg, tree, hooks)
		return result, err
	})
	if errors.Is(err, ErrJobRunning) {
		writeError(w, http.StatusConflict, "A simulation is already running", nil)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// GetPowerUpStatus returns the most recent PowerUp job.
// GET /api/powerup/status
func (h *Handler) GetPowerUpStatus(w http.ResponseWriter, r *http.Request) {
	h.latestJob(w, programPowerUp)
}

// CancelPowerUp requests cancellation of the most recent PowerUp job.
// POST /api/powerup/cancel
func (h *Handler) CancelPowerUp(w http.ResponseWriter, r *http.Request) {
	h.cancelLatest(w, programPowerUp)
}

// =============================================================================
// DIRECT BONUS ENDPOINTS
// =============================================================================

// GetDirectBonusConfig returns the default Direct Bonus configuration.
// GET /api/directbonus/config
func (h *Handler) GetDirectBonusConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, directbonus.DefaultConfig())
}

// RunDirectBonus starts a Direct Bonus simulation in the background.
// POST /api/directbonus/run
//
// When the hierarchy block is omitted, the previous run's tree is
// reused if one is held; otherwise default generation parameters apply.
func (h *Handler) RunDirectBonus(w http.ResponseWriter, r *http.Request) {
	req := RunDirectBonusRequest{Config: directbonus.DefaultConfig()}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := req.Config.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid configuration", err)
		return
	}
	key, err := h.resolveKey(req.Hierarchy, req.Config.Seed)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hierarchy parameters", err)
		return
	}

	cfg := req.Config
	job, err := h.Jobs.Start(programDirectBonus, func(hooks sim.Hooks) (any, error) {
		tree, err := h.resolveTree(key, hooks)
		if err != nil {
			return nil, err
		}
		return directbonus.Run(cfg, tree, hooks)
	})
	if errors.Is(err, ErrJobRunning) {
		writeError(w, http.StatusConflict, "A simulation is already running", nil)
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// GetDirectBonusStatus returns the most recent Direct Bonus job.
// GET /api/directbonus/status
func (h *Handler) GetDirectBonusStatus(w http.ResponseWriter, r *http.Request) {
	h.latestJob(w, programDirectBonus)
}

// CancelDirectBonus requests cancellation of the most recent Direct
// Bonus job.
// POST /api/directbonus/cancel
func (h *Handler) CancelDirectBonus(w http.ResponseWriter, r *http.Request) {
	h.cancelLatest(w, programDirectBonus)
}

// =============================================================================
// JOB ENDPOINTS
// =============================================================================

// GetJob returns a job by id.
// GET /api/jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.Get(chi.URLParam(r, "id"))
	if errors.Is(err, ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "Job not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// CancelJob requests cancellation of a job by id.
// POST /api/jobs/{id}/cancel
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Jobs.Cancel(chi.URLParam(r, "id"))
	if errors.Is(err, ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "Job not found", nil)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// =============================================================================
// HIERARCHY ENDPOINTS
// =============================================================================

// GetHierarchyStatus reports the cache contents.
// GET /api/hierarchy
func (h *Handler) GetHierarchyStatus(w http.ResponseWriter, r *http.Request) {
	infos, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cached hierarchies", err)
		return
	}

	status := HierarchyStatusDTO{Cached: make([]CachedHierarchyDTO, 0, len(infos))}
	for _, info := range infos {
		status.Cached = append(status.Cached, toCachedHierarchyDTO(info))
	}

	h.mu.Lock()
	if h.lastTree != nil {
		status.InMemory = &HierarchyParams{
			TotalUsers: h.lastKey.TotalUsers,
			MaxDepth:   h.lastKey.MaxDepth,
			Seed:       h.lastKey.Seed,
		}
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, status)
}

// ClearHierarchy drops the in-memory tree and empties the cache.
// DELETE /api/hierarchy
func (h *Handler) ClearHierarchy(w http.ResponseWriter, r *http.Request) {
	if h.Jobs.Busy() {
		writeError(w, http.StatusConflict, "Cannot clear the hierarchy while a simulation is running", nil)
		return
	}

	h.mu.Lock()
	h.lastTree = nil
	h.lastKey = sqlite.CacheKey{}
	h.mu.Unlock()

	if err := h.Store.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear hierarchy cache", err)
		return
	}
	log.Println("[Cache] Hierarchy cache cleared")
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// =============================================================================
// HIERARCHY RESOLUTION
// =============================================================================

// resolveKey turns the optional hierarchy block of a run request into a
// cache key. An omitted block means "whatever the previous run used",
// falling back to the default generation parameters.
func (h *Handler) resolveKey(params HierarchyParams, seed int64) (sqlite.CacheKey, error) {
	if params == (HierarchyParams{}) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.lastTree != nil {
			return h.lastKey, nil
		}
		def := powerup.DefaultConfig()
		return sqlite.CacheKey{TotalUsers: def.TotalUsers, MaxDepth: def.MaxDepth, Seed: seed}, nil
	}
	if params.TotalUsers < 1 {
		return sqlite.CacheKey{}, &sim.ConfigError{Field: "total_users", Reason: "must be positive"}
	}
	if params.MaxDepth < 2 {
		return sqlite.CacheKey{}, &sim.ConfigError{Field: "max_depth", Reason: "must be at least 2"}
	}
	return sqlite.CacheKey{TotalUsers: params.TotalUsers, MaxDepth: params.MaxDepth, Seed: params.Seed}, nil
}

// resolveTree finds or builds the tree for a run: the in-memory tree if
// the key matches, else the SQLite cache, else a fresh generation that
// is then cached. Runs inside the job goroutine.
func (h *Handler) resolveTree(key sqlite.CacheKey, hooks sim.Hooks) (*hierarchy.Tree, error) {
	h.mu.Lock()
	if h.lastTree != nil && h.lastKey == key {
		tree := h.lastTree
		h.mu.Unlock()
		log.Printf("[Cache] Reusing in-memory hierarchy (%d users, depth %d, seed %d)",
			key.TotalUsers, key.MaxDepth, key.Seed)
		return tree, nil
	}
	h.mu.Unlock()

	ctx := context.Background()
	tree, err := h.Store.Load(ctx, key)
	switch {
	case err == nil:
		log.Printf("[Cache] Loaded cached hierarchy (%d users, depth %d, seed %d)",
			key.TotalUsers, key.MaxDepth, key.Seed)
	case errors.Is(err, sim.ErrHierarchyNotFound):
		rng := rand.New(rand.NewSource(key.Seed))
		tree, err = hierarchy.Generate(key.TotalUsers, key.MaxDepth, rng, hooks)
		if err != nil {
			return nil, err
		}
		if saveErr := h.Store.Save(ctx, key, tree); saveErr != nil {
			// A failed cache write should not fail the run.
			log.Printf("[Cache] Failed to cache hierarchy: %v", saveErr)
		}
	default:
		return nil, err
	}

	h.mu.Lock()
	h.lastTree = tree
	h.lastKey = key
	h.mu.Unlock()
	return tree, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) latestJob(w http.ResponseWriter, program string) {
	job, err := h.Jobs.Latest(program)
	if errors.Is(err, ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "No run yet", nil)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) cancelLatest(w http.ResponseWriter, program string) {
	job, err := h.Jobs.Latest(program)
	if errors.Is(err, ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "No run yet", nil)
		return
	}
	job, _ = h.Jobs.Cancel(job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
