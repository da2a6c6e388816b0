package projects

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sitelink-pm/sitelink/internal/permissions"
	"github.com/sitelink-pm/sitelink/internal/platform/blob"
	"github.com/sitelink-pm/sitelink/internal/platform/docstore"
)

var testActor = Actor{ID: "user-9", Name: "Dana Reyes", Role: permissions.RoleUser}

func newTestService(t *testing.T) (*Service, *docstore.Memory, *blob.Memory) {
	t.Helper()
	docs := docstore.NewMemory()
	blobs := blob.NewMemory()
	return NewService(docs, blobs, ServiceConfig{}), docs, blobs
}

func validCreateInput() CreateProjectInput {
	return CreateProjectInput{
		Name:       "Riverside depot refit",
		Status:     StatusInProgress,
		Priority:   PriorityHigh,
		StartDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Supervisor: "sup-1",
		Team:       []string{"user-9", "user-12"},
	}
}

func validTaskInput(title string) TaskInput {
	return TaskInput{
		Title:   title,
		Status:  StatusNotStarted,
		DueDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func upload(name string) FileUpload {
	return FileUpload{Name: name, ContentType: "application/pdf", Content: strings.NewReader("content of " + name)}
}

func TestCreateProjectInitialisesAggregate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)

	require.NotEmpty(t, p.ID)
	require.Equal(t, testActor.ID, p.CreatedBy)
	require.Empty(t, p.Tasks)
	require.Empty(t, p.Comments)
	require.Empty(t, p.Attachments)
	require.False(t, p.CreatedAt.IsZero())
	require.True(t, p.CreatedAt.Equal(p.UpdatedAt), "creation stamps both timestamps identically")
}

func TestCreateProjectRejectsInvalidInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := validCreateInput()
	in.Status = "paused"
	_, err := svc.CreateProject(ctx, in, testActor)
	require.True(t, IsValidation(err))

	in = validCreateInput()
	in.Name = ""
	_, err = svc.CreateProject(ctx, in, testActor)
	require.True(t, IsValidation(err))
}

func TestUpdateProjectStripsProtectedFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	withComment, err := svc.AddComment(ctx, p.ID, "kickoff notes", testActor)
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)

	got, err := svc.UpdateProject(ctx, p.ID, docstore.Document{
		"name":      "Renamed depot refit",
		"id":        "forged-id",
		"createdAt": "1999-01-01T00:00:00Z",
		"comments":  []any{},
		"tasks":     []any{map[string]any{"id": "forged-task"}},
	})
	require.NoError(t, err)

	require.Equal(t, "Renamed depot refit", got.Name)
	require.Equal(t, p.ID, got.ID)
	require.True(t, got.CreatedAt.Equal(p.CreatedAt))
	require.Len(t, got.Comments, 1, "nested collections survive a top-level update")
	require.Empty(t, got.Tasks)
}

func TestUpdateProjectRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)

	_, err = svc.UpdateProject(ctx, p.ID, docstore.Document{"status": "paused"})
	require.True(t, IsValidation(err))
	_, err = svc.UpdateProject(ctx, p.ID, docstore.Document{"priority": 3})
	require.True(t, IsValidation(err))
}

func TestUpdateProjectMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.UpdateProject(context.Background(), "nope", docstore.Document{"name": "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTaskPreservesSiblings(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	for _, title := range []string{"pour footings", "frame walls", "hang doors"} {
		p, err = svc.AddTask(ctx, p.ID, validTaskInput(title), testActor)
		require.NoError(t, err)
	}
	require.Len(t, p.Tasks, 3)
	before := p.Tasks

	got, err := svc.UpdateTask(ctx, p.ID, before[1].ID, docstore.Document{
		"title":     "frame walls and install lintels",
		"status":    string(StatusInProgress),
		"id":        "forged",
		"createdAt": "1999-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.Len(t, got.Tasks, 3)

	require.Equal(t, before[0], got.Tasks[0], "untouched siblings round-trip unchanged")
	require.Equal(t, before[2], got.Tasks[2], "untouched siblings round-trip unchanged")

	updated := got.Tasks[1]
	require.Equal(t, before[1].ID, updated.ID)
	require.Equal(t, "frame walls and install lintels", updated.Title)
	require.Equal(t, StatusInProgress, updated.Status)
	require.True(t, updated.CreatedAt.Equal(before[1].CreatedAt))
	require.False(t, updated.UpdatedAt.Before(before[1].UpdatedAt))
}

func TestUpdateTaskMissing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, p.ID, "no-such-task", docstore.Document{"title": "x"})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteProjectCascadesBlobs(t *testing.T) {
	svc, docs, blobs := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	p, err = svc.AddAttachment(ctx, p.ID, upload("site-plan.pdf"), testActor)
	require.NoError(t, err)
	p, err = svc.AddTask(ctx, p.ID, validTaskInput("inspect scaffolding"), testActor)
	require.NoError(t, err)
	taskID := p.Tasks[0].ID
	_, err = svc.AddTaskAttachment(ctx, p.ID, taskID, upload("report-a.pdf"), testActor)
	require.NoError(t, err)
	_, err = svc.AddTaskAttachment(ctx, p.ID, taskID, upload("report-b.pdf"), testActor)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(ctx, p.ID))

	require.Len(t, blobs.Deletes(), 3, "project and task attachments all removed")
	_, err = docs.Get(ctx, Collection, p.ID)
	require.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestDeleteProjectAbortsWhenBlobDeleteFails(t *testing.T) {
	svc, docs, blobs := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	_, err = svc.AddAttachment(ctx, p.ID, upload("site-plan.pdf"), testActor)
	require.NoError(t, err)

	blobs.FailDeletes = true
	err = svc.DeleteProject(ctx, p.ID)
	require.Error(t, err)

	_, err = docs.Get(ctx, Collection, p.ID)
	require.NoError(t, err, "record survives an aborted cascade")
}

func TestDeleteCommentIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	p, err = svc.AddComment(ctx, p.ID, "first", testActor)
	require.NoError(t, err)
	commentID := p.Comments[0].ID

	got, err := svc.DeleteComment(ctx, p.ID, commentID)
	require.NoError(t, err)
	require.Empty(t, got.Comments)

	got, err = svc.DeleteComment(ctx, p.ID, commentID)
	require.NoError(t, err, "deleting an already-deleted comment succeeds")
	require.Empty(t, got.Comments)
}

func TestCommentCapturesAuthorName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	p, err = svc.AddComment(ctx, p.ID, "materials delayed a week", testActor)
	require.NoError(t, err)

	c := p.Comments[0]
	require.Equal(t, testActor.ID, c.CreatedBy)
	require.Equal(t, testActor.Name, c.CreatedByName)
	require.False(t, c.CreatedAt.IsZero())
}

func TestDeleteAttachmentRemovesBlobFirst(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	p, err = svc.AddAttachment(ctx, p.ID, upload("site-plan.pdf"), testActor)
	require.NoError(t, err)
	att := p.Attachments[0]

	got, err := svc.DeleteAttachment(ctx, p.ID, att.ID)
	require.NoError(t, err)
	require.Empty(t, got.Attachments)
	require.Len(t, blobs.Deletes(), 1)

	// Absent id: no error, no extra blob calls.
	_, err = svc.DeleteAttachment(ctx, p.ID, att.ID)
	require.NoError(t, err)
	require.Len(t, blobs.Deletes(), 1)
}

func TestDeleteAttachmentKeepsReferenceWhenBlobFails(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	p, err = svc.AddAttachment(ctx, p.ID, upload("site-plan.pdf"), testActor)
	require.NoError(t, err)

	blobs.FailDeletes = true
	_, err = svc.DeleteAttachment(ctx, p.ID, p.Attachments[0].ID)
	require.Error(t, err)

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1, "reference survives a failed blob delete")
}

func TestTaskScopedOperationsRequireTask(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)

	_, err = svc.AddTaskComment(ctx, p.ID, "ghost", "hello", testActor)
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.DeleteTaskComment(ctx, p.ID, "ghost", "c1")
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.AddTaskAttachment(ctx, p.ID, "ghost", upload("x.pdf"), testActor)
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.DeleteTaskAttachment(ctx, p.ID, "ghost", "a1")
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.DeleteTask(ctx, p.ID, "ghost")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDeleteTaskCascadesItsAttachments(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	p, err = svc.AddTask(ctx, p.ID, validTaskInput("demolition"), testActor)
	require.NoError(t, err)
	p, err = svc.AddTask(ctx, p.ID, validTaskInput("cleanup"), testActor)
	require.NoError(t, err)
	demolition := p.Tasks[0].ID
	_, err = svc.AddTaskAttachment(ctx, p.ID, demolition, upload("permit.pdf"), testActor)
	require.NoError(t, err)

	got, err := svc.DeleteTask(ctx, p.ID, demolition)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	require.Equal(t, "cleanup", got.Tasks[0].Title)
	require.Len(t, blobs.Deletes(), 1)
}

func TestTaskCommentLifecycle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)
	p, err = svc.AddTask(ctx, p.ID, validTaskInput("survey"), testActor)
	require.NoError(t, err)
	taskID := p.Tasks[0].ID

	p, err = svc.AddTaskComment(ctx, p.ID, taskID, "survey done", testActor)
	require.NoError(t, err)
	require.Len(t, p.Tasks[0].Comments, 1)
	commentID := p.Tasks[0].Comments[0].ID

	p, err = svc.DeleteTaskComment(ctx, p.ID, taskID, commentID)
	require.NoError(t, err)
	require.Empty(t, p.Tasks[0].Comments)

	_, err = svc.DeleteTaskComment(ctx, p.ID, taskID, commentID)
	require.NoError(t, err, "absent comment on an existing task is not an error")
}

func TestListProjectsForActor(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mine := validCreateInput()
	_, err := svc.CreateProject(ctx, mine, testActor)
	require.NoError(t, err)

	other := validCreateInput()
	other.Name = "Harbour office"
	other.Supervisor = "sup-2"
	other.Team = []string{"user-30"}
	_, err = svc.CreateProject(ctx, other, testActor)
	require.NoError(t, err)

	all, err := svc.ListProjectsForActor(ctx, Actor{ID: "root", Role: permissions.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, all, 2)

	supervised, err := svc.ListProjectsForActor(ctx, Actor{ID: "sup-2", Role: permissions.RoleSupervisor})
	require.NoError(t, err)
	require.Len(t, supervised, 1)
	require.Equal(t, "Harbour office", supervised[0].Name)

	member, err := svc.ListProjectsForActor(ctx, Actor{ID: "user-9", Role: permissions.RoleUser})
	require.NoError(t, err)
	require.Len(t, member, 1)
	require.Equal(t, "Riverside depot refit", member[0].Name)
}

// failingMerges wraps a store so Merge can be forced to fail after the
// fixture is seeded.
type failingMerges struct {
	docstore.Store
	fail bool
}

func (f *failingMerges) Merge(ctx context.Context, collection, id string, fields docstore.Document) error {
	if f.fail {
		return errors.New("store unavailable")
	}
	return f.Store.Merge(ctx, collection, id, fields)
}

type recordingSweeper struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingSweeper) EnqueueBlobSweep(ctx context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	return nil
}

func TestAddAttachmentSweepsLeakedBlob(t *testing.T) {
	docs := &failingMerges{Store: docstore.NewMemory()}
	blobs := blob.NewMemory()
	sweeper := &recordingSweeper{}
	svc := NewService(docs, blobs, ServiceConfig{Sweeper: sweeper})
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)

	docs.fail = true
	_, err = svc.AddAttachment(ctx, p.ID, upload("site-plan.pdf"), testActor)
	require.Error(t, err)

	require.Len(t, sweeper.urls, 1, "orphaned blob handed to the sweeper")
	require.True(t, blobs.Stored("projects/"+p.ID+"/attachments/"+pathSegment(sweeper.urls[0], 3)+"/site-plan.pdf"))
}

func pathSegment(url string, n int) string {
	parts := strings.Split(strings.TrimPrefix(url, "https://blobs.test/"), "/")
	return parts[n]
}

// staleReader serves a frozen snapshot for reads while stale is set,
// simulating two writers that loaded the same revision.
type staleReader struct {
	docstore.Store
	mu       sync.Mutex
	stale    bool
	snapshot docstore.Document
}

func (s *staleReader) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale && s.snapshot != nil {
		raw, err := json.Marshal(s.snapshot)
		if err != nil {
			return nil, err
		}
		var doc docstore.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return s.Store.Get(ctx, collection, id)
}

// TestConcurrentMutationLastWriteWins documents the known hazard of the
// whole-array write path: two writers that read the same revision will
// overwrite each other's nested additions. There is no revision check,
// so the second write wins.
func TestConcurrentMutationLastWriteWins(t *testing.T) {
	inner := docstore.NewMemory()
	docs := &staleReader{Store: inner}
	svc := NewService(docs, blob.NewMemory(), ServiceConfig{})
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, validCreateInput(), testActor)
	require.NoError(t, err)

	snapshot, err := inner.Get(ctx, Collection, p.ID)
	require.NoError(t, err)
	docs.mu.Lock()
	docs.stale = true
	docs.snapshot = snapshot
	docs.mu.Unlock()

	_, err = svc.AddComment(ctx, p.ID, "from writer one", testActor)
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, p.ID, "from writer two", testActor)
	require.NoError(t, err)

	docs.mu.Lock()
	docs.stale = false
	docs.mu.Unlock()

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1, "the first writer's comment is lost")
	require.Equal(t, "from writer two", got.Comments[0].Content)
}
