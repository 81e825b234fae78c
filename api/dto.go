/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine result types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Jobs:
    api.Job doubles as its own DTO (it carries json tags and is built
    as an immutable snapshot).

  Runs:
    RunDirectBonusRequest, HierarchyParams

  Hierarchy cache:
    HierarchyStatusDTO, CachedHierarchyDTO

VALIDATION:
  Engine configs validate themselves (Config.Validate); handlers call
  that before starting a job so a bad config is a 400, never a failed
  job.

SEE ALSO:
  - handlers.go: Uses these types
  - jobs.go: Job, the lifecycle snapshot
*/
package api

import (
	"time"

	"github.com/lattice/comp-engine/directbonus"
	"github.com/lattice/comp-engine/store/sqlite"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HierarchyParams names the generation parameters of a referral
// hierarchy. They double as the cache key.
type HierarchyParams struct {
	TotalUsers int   `json:"total_users"`
	MaxDepth   int   `json:"max_depth"`
	Seed       int64 `json:"seed"`
}

// RunDirectBonusRequest starts a Direct Bonus simulation. Hierarchy may
// be omitted to reuse the tree of the most recent run (the two programs
// share one structure); when no tree is held, the defaults apply.
type RunDirectBonusRequest struct {
	Hierarchy HierarchyParams    `json:"hierarchy"`
	Config    directbonus.Config `json:"config"`
}

// CachedHierarchyDTO describes one cached hierarchy.
type CachedHierarchyDTO struct {
	ID         int64  `json:"id"`
	TotalUsers int    `json:"total_users"`
	MaxDepth   int    `json:"max_depth"`
	Seed       int64  `json:"seed"`
	CreatedAt  string `json:"created_at"`
}

// HierarchyStatusDTO reports the cache contents and whether a tree is
// held in memory for reuse.
type HierarchyStatusDTO struct {
	Cached   []CachedHierarchyDTO `json:"cached"`
	InMemory *HierarchyParams     `json:"in_memory,omitempty"`
}

func toCachedHierarchyDTO(info sqlite.Info) CachedHierarchyDTO {
	return CachedHierarchyDTO{
		ID:         info.ID,
		TotalUsers: info.Key.TotalUsers,
		MaxDepth:   info.Key.MaxDepth,
		Seed:       info.Key.Seed,
		CreatedAt:  info.CreatedAt.UTC().Format(time.RFC3339),
	}
}
