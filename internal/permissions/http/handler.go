package permissionshttp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitelink-pm/sitelink/internal/permissions"
	"github.com/sitelink-pm/sitelink/internal/platform/httpx"
)

// Handler exposes the policy table for inspection and ad hoc decision
// checks. Decisions returned here are advisory; enforcement happens at
// the resource endpoints.
type Handler struct {
	logger *slog.Logger
}

// NewHandler builds a permissions HTTP handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/permissions", func(r chi.Router) {
		r.Get("/check", h.check)
		r.Get("/roles", h.roles)
	})
}

type decisionResponse struct {
	Action   permissions.Action      `json:"action"`
	Resource permissions.Resource    `json:"resource"`
	Role     permissions.Role        `json:"role"`
	Level    permissions.AccessLevel `json:"level"`
	Allowed  bool                    `json:"allowed"`
}

// check evaluates one policy cell against the relationship flags given
// as query parameters. Unknown inputs are not an error: the engine
// fails closed and the response simply reports denial.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	action := permissions.Action(q.Get("action"))
	resource := permissions.Resource(q.Get("resource"))
	role := permissions.Role(q.Get("role"))
	if action == "" || resource == "" || role == "" {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Query", "action, resource and role are required")
		return
	}
	ctx := permissions.Context{
		IsOwner:      q.Get("owner") == "true",
		IsTeamMember: q.Get("teamMember") == "true",
		IsAssigned:   q.Get("assigned") == "true",
		IsOwnProfile: q.Get("ownProfile") == "true",
	}
	httpx.JSON(w, http.StatusOK, decisionResponse{
		Action:   action,
		Resource: resource,
		Role:     role,
		Level:    permissions.Level(action, resource, role),
		Allowed:  permissions.CanPerform(action, resource, role, ctx),
	})
}

func (h *Handler) roles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"roles":     permissions.Roles(),
		"resources": permissions.Resources(),
		"actions":   permissions.Actions(),
	})
}
