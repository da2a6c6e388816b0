package projectshttp

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sitelink-pm/sitelink/internal/platform/blob"
	"github.com/sitelink-pm/sitelink/internal/platform/docstore"
	"github.com/sitelink-pm/sitelink/internal/projects"
)

func newTestRouter(t *testing.T) (chi.Router, *projects.Service) {
	t.Helper()
	svc := projects.NewService(docstore.NewMemory(), blob.NewMemory(), projects.ServiceConfig{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(r)
	return r, svc
}

func seedProject(t *testing.T, svc *projects.Service) projects.Project {
	t.Helper()
	p, err := svc.CreateProject(t.Context(), projects.CreateProjectInput{
		Name:       "Harbour office",
		Status:     projects.StatusInProgress,
		Priority:   projects.PriorityMedium,
		StartDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Supervisor: "sup-1",
		Team:       []string{"user-9"},
	}, projects.Actor{ID: "admin-1", Name: "Root", Role: "admin"})
	require.NoError(t, err)
	return p
}

func doJSON(r chi.Router, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func asActor(id, role string) map[string]string {
	return map[string]string{"X-Actor-Id": id, "X-Actor-Name": "Test " + id, "X-Actor-Role": role}
}

func TestMissingActorHeadersRejected(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(r, http.MethodGet, "/projects/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProjectByRole(t *testing.T) {
	r, _ := newTestRouter(t)
	body := `{"name":"Depot","status":"not-started","priority":"low","startDate":"2026-05-01T00:00:00Z","supervisor":"sup-1"}`

	rec := doJSON(r, http.MethodPost, "/projects/", body, asActor("admin-1", "admin"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(r, http.MethodPost, "/projects/", body, asActor("vendor-1", "vendor"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetProjectRequiresRelationship(t *testing.T) {
	r, svc := newTestRouter(t)
	p := seedProject(t, svc)

	rec := doJSON(r, http.MethodGet, "/projects/"+p.ID+"/", "", asActor("user-9", "user"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(r, http.MethodGet, "/projects/"+p.ID+"/", "", asActor("user-77", "user"))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(r, http.MethodGet, "/projects/"+p.ID+"/", "", asActor("outsider", "admin"))
	require.Equal(t, http.StatusOK, rec.Code, "admin view is unconditional")
}

func TestUpdateProjectThroughAPI(t *testing.T) {
	r, svc := newTestRouter(t)
	p := seedProject(t, svc)

	rec := doJSON(r, http.MethodPatch, "/projects/"+p.ID+"/", `{"name":"Harbour office phase two"}`, asActor("user-9", "user"))
	require.Equal(t, http.StatusOK, rec.Code)

	var got projects.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Harbour office phase two", got.Name)
}

func TestDeleteProjectForbiddenForTeamMember(t *testing.T) {
	r, svc := newTestRouter(t)
	p := seedProject(t, svc)

	rec := doJSON(r, http.MethodDelete, "/projects/"+p.ID+"/", "", asActor("user-9", "user"))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(r, http.MethodDelete, "/projects/"+p.ID+"/", "", asActor("admin-1", "admin"))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUnknownProjectReturnsNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doJSON(r, http.MethodGet, "/projects/no-such/", "", asActor("admin-1", "admin"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskRoutes(t *testing.T) {
	r, svc := newTestRouter(t)
	p := seedProject(t, svc)
	admin := asActor("admin-1", "admin")

	rec := doJSON(r, http.MethodPost, "/projects/"+p.ID+"/tasks", `{"title":"pour slab","status":"not-started","dueDate":"2026-06-01T00:00:00Z"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code)
	var got projects.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Tasks, 1)
	taskID := got.Tasks[0].ID

	rec = doJSON(r, http.MethodPatch, "/projects/"+p.ID+"/tasks/"+taskID+"/", `{"status":"completed"}`, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(r, http.MethodPatch, "/projects/"+p.ID+"/tasks/ghost/", `{"status":"completed"}`, admin)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(r, http.MethodPost, "/projects/"+p.ID+"/tasks/"+taskID+"/comments", `{"content":"slab cured"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(r, http.MethodDelete, "/projects/"+p.ID+"/tasks/"+taskID+"/", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAttachmentUpload(t *testing.T) {
	r, svc := newTestRouter(t)
	p := seedProject(t, svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "site-plan.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 stub"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/projects/"+p.ID+"/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range asActor("user-9", "user") {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got projects.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Attachments, 1)
	require.Equal(t, "site-plan.pdf", got.Attachments[0].FileName)
}

func TestUploadReleasesFilePart(t *testing.T) {
	svc := projects.NewService(docstore.NewMemory(), blob.NewMemory(), projects.ServiceConfig{})
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "drawing.dwg")
	require.NoError(t, err)
	_, err = part.Write([]byte("dwg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/projects/p1/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	file, done, ok := h.upload(httptest.NewRecorder(), req)
	require.True(t, ok)
	require.NotNil(t, done, "upload must hand back a release for the file part")
	content, err := io.ReadAll(file.Content)
	require.NoError(t, err)
	require.Equal(t, "dwg bytes", string(content))
	done()

	// Missing file part: rejected, nothing to release.
	bad := httptest.NewRequest(http.MethodPost, "/projects/p1/attachments", strings.NewReader(""))
	bad.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	_, done, ok = h.upload(rec, bad)
	require.False(t, ok)
	require.Nil(t, done)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentValidation(t *testing.T) {
	r, svc := newTestRouter(t)
	p := seedProject(t, svc)

	rec := doJSON(r, http.MethodPost, "/projects/"+p.ID+"/comments", `{"content":"  "}`, asActor("user-9", "user"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
