package projectshttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitelink-pm/sitelink/internal/permissions"
	"github.com/sitelink-pm/sitelink/internal/platform/docstore"
	"github.com/sitelink-pm/sitelink/internal/platform/httpx"
	"github.com/sitelink-pm/sitelink/internal/projects"
)

const maxUploadBytes = 32 << 20

type projectService interface {
	ListProjectsForActor(ctx context.Context, actor projects.Actor) ([]projects.Project, error)
	GetProject(ctx context.Context, id string) (projects.Project, error)
	CreateProject(ctx context.Context, in projects.CreateProjectInput, actor projects.Actor) (projects.Project, error)
	UpdateProject(ctx context.Context, id string, patch docstore.Document) (projects.Project, error)
	DeleteProject(ctx context.Context, id string) error
	AddComment(ctx context.Context, projectID, content string, actor projects.Actor) (projects.Project, error)
	DeleteComment(ctx context.Context, projectID, commentID string) (projects.Project, error)
	AddAttachment(ctx context.Context, projectID string, file projects.FileUpload, actor projects.Actor) (projects.Project, error)
	DeleteAttachment(ctx context.Context, projectID, attachmentID string) (projects.Project, error)
	AddTask(ctx context.Context, projectID string, in projects.TaskInput, actor projects.Actor) (projects.Project, error)
	UpdateTask(ctx context.Context, projectID, taskID string, patch docstore.Document) (projects.Project, error)
	DeleteTask(ctx context.Context, projectID, taskID string) (projects.Project, error)
	AddTaskComment(ctx context.Context, projectID, taskID, content string, actor projects.Actor) (projects.Project, error)
	DeleteTaskComment(ctx context.Context, projectID, taskID, commentID string) (projects.Project, error)
	AddTaskAttachment(ctx context.Context, projectID, taskID string, file projects.FileUpload, actor projects.Actor) (projects.Project, error)
	DeleteTaskAttachment(ctx context.Context, projectID, taskID, attachmentID string) (projects.Project, error)
}

// Handler wires the project aggregate endpoints. Identity arrives in
// trusted headers set by the edge proxy; the handler derives the
// actor's relationships from the aggregate and consults the permission
// engine before every mutator.
type Handler struct {
	logger  *slog.Logger
	service projectService
}

// NewHandler constructs a projects HTTP handler.
func NewHandler(logger *slog.Logger, service projectService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Patch("/", h.update)
			r.Delete("/", h.delete)
			r.Post("/comments", h.addComment)
			r.Delete("/comments/{commentID}", h.deleteComment)
			r.Post("/attachments", h.addAttachment)
			r.Delete("/attachments/{attachmentID}", h.deleteAttachment)
			r.Post("/tasks", h.addTask)
			r.Route("/tasks/{taskID}", func(r chi.Router) {
				r.Patch("/", h.updateTask)
				r.Delete("/", h.deleteTask)
				r.Post("/comments", h.addTaskComment)
				r.Delete("/comments/{commentID}", h.deleteTaskComment)
				r.Post("/attachments", h.addTaskAttachment)
				r.Delete("/attachments/{attachmentID}", h.deleteTaskAttachment)
			})
		})
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	// Listing is scoped per actor by the service, so the gate here is
	// only whether the role participates in project viewing at all.
	if permissions.Level(permissions.ActionView, permissions.ResourceProjects, actor.Role) == permissions.LevelNo {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "role cannot view projects")
		return
	}
	list, err := h.service.ListProjectsForActor(r.Context(), actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if !permissions.CanCreate(permissions.ResourceProjects, actor.Role, permissions.Context{}) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "role cannot create projects")
		return
	}
	var in projects.CreateProjectInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	p, err := h.service.CreateProject(r.Context(), in, actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	var patch docstore.Document
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	updated, err := h.service.UpdateProject(r.Context(), p.ID, patch)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionDelete)
	if !ok {
		return
	}
	if err := h.service.DeleteProject(r.Context(), p.ID); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	actor, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	var in commentRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	updated, err := h.service.AddComment(r.Context(), p.ID, in.Content, actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, updated)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	updated, err := h.service.DeleteComment(r.Context(), p.ID, chi.URLParam(r, "commentID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) addAttachment(w http.ResponseWriter, r *http.Request) {
	actor, p, ok := h.authorize(w, r, permissions.ActionUpload)
	if !ok {
		return
	}
	file, done, ok := h.upload(w, r)
	if !ok {
		return
	}
	defer done()
	updated, err := h.service.AddAttachment(r.Context(), p.ID, file, actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, updated)
}

func (h *Handler) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	updated, err := h.service.DeleteAttachment(r.Context(), p.ID, chi.URLParam(r, "attachmentID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) addTask(w http.ResponseWriter, r *http.Request) {
	actor, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	var in projects.TaskInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	updated, err := h.service.AddTask(r.Context(), p.ID, in, actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, updated)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	var patch docstore.Document
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	updated, err := h.service.UpdateTask(r.Context(), p.ID, chi.URLParam(r, "taskID"), patch)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	updated, err := h.service.DeleteTask(r.Context(), p.ID, chi.URLParam(r, "taskID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) addTaskComment(w http.ResponseWriter, r *http.Request) {
	actor, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	var in commentRequest
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	updated, err := h.service.AddTaskComment(r.Context(), p.ID, chi.URLParam(r, "taskID"), in.Content, actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, updated)
}

func (h *Handler) deleteTaskComment(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	updated, err := h.service.DeleteTaskComment(r.Context(), p.ID, chi.URLParam(r, "taskID"), chi.URLParam(r, "commentID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) addTaskAttachment(w http.ResponseWriter, r *http.Request) {
	actor, p, ok := h.authorize(w, r, permissions.ActionUpload)
	if !ok {
		return
	}
	file, done, ok := h.upload(w, r)
	if !ok {
		return
	}
	defer done()
	updated, err := h.service.AddTaskAttachment(r.Context(), p.ID, chi.URLParam(r, "taskID"), file, actor)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, updated)
}

func (h *Handler) deleteTaskAttachment(w http.ResponseWriter, r *http.Request) {
	_, p, ok := h.authorize(w, r, permissions.ActionEdit)
	if !ok {
		return
	}
	updated, err := h.service.DeleteTaskAttachment(r.Context(), p.ID, chi.URLParam(r, "taskID"), chi.URLParam(r, "attachmentID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// actor extracts the caller identity from trusted proxy headers.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (projects.Actor, bool) {
	actor := projects.Actor{
		ID:   r.Header.Get("X-Actor-Id"),
		Name: r.Header.Get("X-Actor-Name"),
		Role: permissions.Role(r.Header.Get("X-Actor-Role")),
	}
	if actor.ID == "" || actor.Role == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor headers missing")
		return projects.Actor{}, false
	}
	return actor, true
}

// authorize loads the aggregate, derives the actor's relationships to
// it and asks the permission engine whether the action may proceed.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, action permissions.Action) (projects.Actor, projects.Project, bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return projects.Actor{}, projects.Project{}, false
	}
	p, err := h.service.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		h.respondErr(w, err)
		return projects.Actor{}, projects.Project{}, false
	}
	if !permissions.CanPerform(action, permissions.ResourceProjects, actor.Role, p.RelationshipsFor(actor)) {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "not allowed for this project")
		return projects.Actor{}, projects.Project{}, false
	}
	return actor, p, true
}

// upload extracts the file part. The returned cleanup closes the
// multipart file (disk-backed for large uploads) and must run once the
// content has been consumed.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) (projects.FileUpload, func(), bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", err.Error())
		return projects.FileUpload{}, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Upload", "file part required")
		return projects.FileUpload{}, nil, false
	}
	return projects.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}, func() { _ = file.Close() }, true
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projects.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "project does not exist")
	case errors.Is(err, projects.ErrTaskNotFound):
		httpx.Problem(w, http.StatusNotFound, "Task Not Found", "task does not exist")
	case projects.IsValidation(err):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("project request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
