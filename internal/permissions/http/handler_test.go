package permissionshttp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes(r)
	return r
}

func get(t *testing.T, r chi.Router, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestCheckDecision(t *testing.T) {
	r := newRouter()

	rec, body := get(t, r, "/permissions/check?action=view&resource=tickets&role=vendor&assigned=true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["allowed"])
	require.Equal(t, "assigned", body["level"])

	rec, body = get(t, r, "/permissions/check?action=view&resource=tickets&role=vendor")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["allowed"])
}

func TestCheckUnknownInputsDenied(t *testing.T) {
	r := newRouter()
	rec, body := get(t, r, "/permissions/check?action=teleport&resource=projects&role=admin&owner=true")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["allowed"])
	require.Equal(t, "no", body["level"])
}

func TestCheckRequiresCoreParams(t *testing.T) {
	r := newRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/permissions/check?action=view", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRolesCatalog(t *testing.T) {
	r := newRouter()
	rec, body := get(t, r, "/permissions/roles")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["roles"], 5)
	require.Len(t, body["resources"], 8)
	require.Len(t, body["actions"], 8)
}
