package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sitelink-pm/sitelink/internal/permissions"
	"github.com/sitelink-pm/sitelink/internal/platform/blob"
	"github.com/sitelink-pm/sitelink/internal/platform/docstore"
)

// Collection is the document collection holding project aggregates.
const Collection = "projects"

// Sweeper accepts best-effort cleanup requests for blobs whose
// reference write failed after a successful upload.
type Sweeper interface {
	EnqueueBlobSweep(ctx context.Context, url string) error
}

// projectProtected are the top-level fields UpdateProject silently
// strips from a caller patch: identity, creation stamp and the nested
// collections, which must never be overwritten through the top-level
// update path.
var projectProtected = []string{"id", "createdAt", "tasks", "comments", "attachments"}

// taskProtected is the equivalent list for UpdateTask.
var taskProtected = []string{"id", "createdAt", "comments", "attachments"}

// Service manages project aggregates. It performs no authorization:
// callers consult the permission engine before invoking any mutator.
type Service struct {
	docs     docstore.Store
	blobs    blob.Store
	cache    *Cache
	sweeper  Sweeper
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// ServiceConfig carries the optional service collaborators.
type ServiceConfig struct {
	Cache   *Cache
	Sweeper Sweeper
	Logger  *slog.Logger
}

// NewService constructs a Service over the given collaborators.
func NewService(docs docstore.Store, blobs blob.Store, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docs:     docs,
		blobs:    blobs,
		cache:    cfg.Cache,
		sweeper:  cfg.Sweeper,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// ListProjects returns projects matching the filter, newest first.
// Callers may rely on the createdAt-descending ordering.
func (s *Service) ListProjects(ctx context.Context, f Filter) ([]Project, error) {
	q := docstore.Query{OrderBy: "createdAt", Descending: true}
	if f.Status != "" {
		q = q.Where("status", string(f.Status))
	}
	if f.Supervisor != "" {
		q = q.Where("supervisor", f.Supervisor)
	}
	if f.TeamMember != "" {
		q = q.WhereContains("team", f.TeamMember)
	}
	docs, err := s.docs.List(ctx, Collection, q)
	if err != nil {
		return nil, fmt.Errorf("projects: list: %w", err)
	}
	out := make([]Project, 0, len(docs))
	for _, doc := range docs {
		p, err := decodeProject(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ListProjectsForActor returns the projects visible to the actor:
// admins see everything, supervisors the projects they supervise,
// everyone else the projects whose team includes them. This is a
// listing convenience, not an authorization mechanism.
func (s *Service) ListProjectsForActor(ctx context.Context, actor Actor) ([]Project, error) {
	switch actor.Role {
	case permissions.RoleAdmin:
		return s.ListProjects(ctx, Filter{})
	case permissions.RoleSupervisor:
		return s.ListProjects(ctx, Filter{Supervisor: actor.ID})
	default:
		return s.ListProjects(ctx, Filter{TeamMember: actor.ID})
	}
}

// GetProject loads a single aggregate, through the cache when one is
// configured.
func (s *Service) GetProject(ctx context.Context, id string) (Project, error) {
	if s.cache != nil {
		return s.cache.FetchProject(ctx, id, func(ctx context.Context) (Project, error) {
			return s.fetch(ctx, id)
		})
	}
	return s.fetch(ctx, id)
}

// CreateProject stores a new aggregate. The store assigns the id and
// both timestamps (equal at creation) and initialises the nested
// collections empty.
func (s *Service) CreateProject(ctx context.Context, in CreateProjectInput, actor Actor) (Project, error) {
	if err := s.validateInput(in); err != nil {
		return Project{}, err
	}
	doc, err := encodeDoc(in)
	if err != nil {
		return Project{}, err
	}
	if in.Team == nil {
		doc["team"] = []any{}
	}
	doc["createdBy"] = actor.ID
	doc["tasks"] = []any{}
	doc["comments"] = []any{}
	doc["attachments"] = []any{}
	doc["createdAt"] = docstore.ServerTime
	doc["updatedAt"] = docstore.ServerTime

	id, err := s.docs.Insert(ctx, Collection, doc)
	if err != nil {
		return Project{}, fmt.Errorf("projects: create: %w", err)
	}
	s.invalidate(ctx, id)
	return s.fetch(ctx, id)
}

// UpdateProject shallow-merges the patch into the aggregate. Protected
// fields (id, createdAt and the nested collections) are stripped, not
// merged, so a careless caller cannot bulk-overwrite children through
// the top-level path. updatedAt is always bumped.
func (s *Service) UpdateProject(ctx context.Context, id string, patch docstore.Document) (Project, error) {
	if err := validateStatusPriority(patch); err != nil {
		return Project{}, err
	}
	if _, err := s.loadDoc(ctx, id); err != nil {
		return Project{}, err
	}
	fields := stripFields(patch, projectProtected...)
	fields["updatedAt"] = docstore.ServerTime
	if err := s.docs.Merge(ctx, Collection, id, fields); err != nil {
		return Project{}, s.mapStoreErr(err, "update")
	}
	s.invalidate(ctx, id)
	return s.fetch(ctx, id)
}

// DeleteProject removes the aggregate after deleting every blob it
// transitively owns: direct attachments and each task's attachments.
// A failed blob delete aborts the cascade before the record delete; an
// orphaned-but-intact aggregate beats losing the record while blobs
// linger unreferenced.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	doc, err := s.loadDoc(ctx, id)
	if err != nil {
		return err
	}
	refs := attachmentRefs(rawSlice(doc, "attachments"))
	for _, item := range rawSlice(doc, "tasks") {
		task, ok := item.(map[string]any)
		if !ok {
			continue
		}
		refs = append(refs, attachmentRefs(rawSlice(task, "attachments"))...)
	}
	if err := s.deleteBlobs(ctx, refs); err != nil {
		return fmt.Errorf("projects: cascade delete %s: %w", id, err)
	}
	if err := s.docs.Delete(ctx, Collection, id); err != nil {
		return s.mapStoreErr(err, "delete")
	}
	s.invalidate(ctx, id)
	return nil
}

// AddComment appends a comment to the project, capturing the author's
// display name at creation time.
func (s *Service) AddComment(ctx context.Context, projectID, content string, actor Actor) (Project, error) {
	if strings.TrimSpace(content) == "" {
		return Project{}, &ValidationError{Reason: "comment content required"}
	}
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	comments := append(rawSlice(doc, "comments"), s.newComment(content, actor))
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"comments": comments})
}

// DeleteComment removes a comment by id. Deleting an absent comment is
// success: deletion means "ensure absent", which already holds.
func (s *Service) DeleteComment(ctx context.Context, projectID, commentID string) (Project, error) {
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	comments, removed := removeByID(rawSlice(doc, "comments"), commentID)
	if !removed {
		return decodeProject(doc)
	}
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"comments": comments})
}

// AddAttachment uploads the file to the blob store, then records the
// returned reference. Upload happens first: a leaked blob with no
// reference is preferable to a reference to nothing. If the reference
// write fails after a successful upload, the blob is handed to the
// sweeper for out-of-band cleanup.
func (s *Service) AddAttachment(ctx context.Context, projectID string, file FileUpload, actor Actor) (Project, error) {
	if err := validateUpload(file); err != nil {
		return Project{}, err
	}
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	id := s.newID()
	path := fmt.Sprintf("projects/%s/attachments/%s/%s", projectID, id, file.Name)
	url, err := s.blobs.Upload(ctx, path, contentTypeOf(file), file.Content)
	if err != nil {
		return Project{}, fmt.Errorf("projects: upload attachment: %w", err)
	}
	attachments := append(rawSlice(doc, "attachments"), s.newAttachment(id, file, url, actor))
	p, err := s.mergeAndFetch(ctx, projectID, docstore.Document{"attachments": attachments})
	if err != nil {
		s.sweepBlob(ctx, url)
		return Project{}, err
	}
	return p, nil
}

// DeleteAttachment deletes the blob first, then drops the reference.
// An absent attachment id is success, as with comments.
func (s *Service) DeleteAttachment(ctx context.Context, projectID, attachmentID string) (Project, error) {
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	attachments := rawSlice(doc, "attachments")
	idx := indexByID(attachments, attachmentID)
	if idx < 0 {
		return decodeProject(doc)
	}
	if err := s.deleteAttachmentBlob(ctx, attachments[idx]); err != nil {
		return Project{}, err
	}
	attachments, _ = removeByID(attachments, attachmentID)
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"attachments": attachments})
}

// AddTask appends a new task with server-assigned id, fresh timestamps
// and empty nested collections.
func (s *Service) AddTask(ctx context.Context, projectID string, in TaskInput, actor Actor) (Project, error) {
	if err := s.validateInput(in); err != nil {
		return Project{}, err
	}
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	task, err := encodeDoc(in)
	if err != nil {
		return Project{}, err
	}
	stamp := docstore.FormatTime(s.now())
	task["id"] = s.newID()
	task["createdBy"] = actor.ID
	task["createdAt"] = stamp
	task["updatedAt"] = stamp
	task["comments"] = []any{}
	task["attachments"] = []any{}
	if in.AssignedTo == nil {
		task["assignedTo"] = []any{}
	}
	tasks := append(rawSlice(doc, "tasks"), task)
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"tasks": tasks})
}

// UpdateTask merges the patch into the addressed task, preserving every
// sibling task exactly as loaded. A missing task is an error: task
// identity is load-bearing, and a silent no-op would mask a caller bug.
func (s *Service) UpdateTask(ctx context.Context, projectID, taskID string, patch docstore.Document) (Project, error) {
	if err := validateStatusPriority(patch); err != nil {
		return Project{}, err
	}
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	tasks, _, task, err := locateTask(doc, taskID)
	if err != nil {
		return Project{}, err
	}
	for k, v := range stripFields(patch, taskProtected...) {
		task[k] = v
	}
	task["updatedAt"] = docstore.FormatTime(s.now())
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"tasks": tasks})
}

// DeleteTask deletes the task's attachment blobs, then removes the task
// from the aggregate. Errors if the task does not exist.
func (s *Service) DeleteTask(ctx context.Context, projectID, taskID string) (Project, error) {
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	tasks, idx, task, err := locateTask(doc, taskID)
	if err != nil {
		return Project{}, err
	}
	if err := s.deleteBlobs(ctx, attachmentRefs(rawSlice(task, "attachments"))); err != nil {
		return Project{}, fmt.Errorf("projects: cascade delete task %s: %w", taskID, err)
	}
	tasks = append(append([]any{}, tasks[:idx]...), tasks[idx+1:]...)
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"tasks": tasks})
}

// AddTaskComment appends a comment to the addressed task. Errors if the
// task does not exist.
func (s *Service) AddTaskComment(ctx context.Context, projectID, taskID, content string, actor Actor) (Project, error) {
	if strings.TrimSpace(content) == "" {
		return Project{}, &ValidationError{Reason: "comment content required"}
	}
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	tasks, _, task, err := locateTask(doc, taskID)
	if err != nil {
		return Project{}, err
	}
	task["comments"] = append(rawSlice(task, "comments"), s.newComment(content, actor))
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"tasks": tasks})
}

// DeleteTaskComment removes a comment from the addressed task.
// Missing task: error. Missing comment: success, same idempotent
// contract as project-level comment deletion.
func (s *Service) DeleteTaskComment(ctx context.Context, projectID, taskID, commentID string) (Project, error) {
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	tasks, _, task, err := locateTask(doc, taskID)
	if err != nil {
		return Project{}, err
	}
	comments, removed := removeByID(rawSlice(task, "comments"), commentID)
	if !removed {
		return decodeProject(doc)
	}
	task["comments"] = comments
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"tasks": tasks})
}

// AddTaskAttachment uploads the file and appends the reference to the
// addressed task. Errors if the task does not exist.
func (s *Service) AddTaskAttachment(ctx context.Context, projectID, taskID string, file FileUpload, actor Actor) (Project, error) {
	if err := validateUpload(file); err != nil {
		return Project{}, err
	}
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	tasks, _, task, err := locateTask(doc, taskID)
	if err != nil {
		return Project{}, err
	}
	id := s.newID()
	path := fmt.Sprintf("projects/%s/tasks/%s/attachments/%s/%s", projectID, taskID, id, file.Name)
	url, err := s.blobs.Upload(ctx, path, contentTypeOf(file), file.Content)
	if err != nil {
		return Project{}, fmt.Errorf("projects: upload attachment: %w", err)
	}
	task["attachments"] = append(rawSlice(task, "attachments"), s.newAttachment(id, file, url, actor))
	p, err := s.mergeAndFetch(ctx, projectID, docstore.Document{"tasks": tasks})
	if err != nil {
		s.sweepBlob(ctx, url)
		return Project{}, err
	}
	return p, nil
}

// DeleteTaskAttachment deletes the blob, then drops the reference from
// the addressed task. Missing task: error. Missing attachment: success.
func (s *Service) DeleteTaskAttachment(ctx context.Context, projectID, taskID, attachmentID string) (Project, error) {
	doc, err := s.loadDoc(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	tasks, _, task, err := locateTask(doc, taskID)
	if err != nil {
		return Project{}, err
	}
	attachments := rawSlice(task, "attachments")
	idx := indexByID(attachments, attachmentID)
	if idx < 0 {
		return decodeProject(doc)
	}
	if err := s.deleteAttachmentBlob(ctx, attachments[idx]); err != nil {
		return Project{}, err
	}
	task["attachments"], _ = removeByID(attachments, attachmentID)
	return s.mergeAndFetch(ctx, projectID, docstore.Document{"tasks": tasks})
}

func (s *Service) fetch(ctx context.Context, id string) (Project, error) {
	doc, err := s.loadDoc(ctx, id)
	if err != nil {
		return Project{}, err
	}
	return decodeProject(doc)
}

func (s *Service) loadDoc(ctx context.Context, id string) (docstore.Document, error) {
	doc, err := s.docs.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("projects: load %s: %w", id, err)
	}
	return doc, nil
}

// mergeAndFetch writes the fields (always bumping updatedAt), drops the
// cached aggregate and returns the refreshed snapshot.
func (s *Service) mergeAndFetch(ctx context.Context, id string, fields docstore.Document) (Project, error) {
	fields["updatedAt"] = docstore.ServerTime
	if err := s.docs.Merge(ctx, Collection, id, fields); err != nil {
		return Project{}, s.mapStoreErr(err, "merge")
	}
	s.invalidate(ctx, id)
	return s.fetch(ctx, id)
}

func (s *Service) mapStoreErr(err error, op string) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("projects: %s: %w", op, err)
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("invalidate project cache", slog.String("project_id", id), slog.Any("error", err))
	}
}

func (s *Service) deleteBlobs(ctx context.Context, refs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		g.Go(func() error {
			return s.blobs.Delete(ctx, ref)
		})
	}
	return g.Wait()
}

func (s *Service) deleteAttachmentBlob(ctx context.Context, item any) error {
	attachment, ok := item.(map[string]any)
	if !ok {
		return nil
	}
	url, _ := attachment["fileUrl"].(string)
	if url == "" {
		return nil
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		return fmt.Errorf("projects: delete blob: %w", err)
	}
	return nil
}

func (s *Service) sweepBlob(ctx context.Context, url string) {
	if s.sweeper == nil {
		s.logger.Warn("leaked blob has no sweeper configured", slog.String("url", url))
		return
	}
	if err := s.sweeper.EnqueueBlobSweep(ctx, url); err != nil {
		s.logger.Warn("enqueue blob sweep", slog.String("url", url), slog.Any("error", err))
	}
}

func (s *Service) validateInput(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}

func (s *Service) newComment(content string, actor Actor) map[string]any {
	return map[string]any{
		"id":            s.newID(),
		"content":       content,
		"createdBy":     actor.ID,
		"createdByName": actor.Name,
		"createdAt":     docstore.FormatTime(s.now()),
	}
}

func (s *Service) newAttachment(id string, file FileUpload, url string, actor Actor) map[string]any {
	return map[string]any{
		"id":         id,
		"fileName":   file.Name,
		"fileUrl":    url,
		"fileType":   contentTypeOf(file),
		"uploadedBy": actor.ID,
		"uploadedAt": docstore.FormatTime(s.now()),
	}
}

func validateUpload(file FileUpload) error {
	if strings.TrimSpace(file.Name) == "" {
		return &ValidationError{Reason: "file name required"}
	}
	if file.Content == nil {
		return &ValidationError{Reason: "file content required"}
	}
	return nil
}

func contentTypeOf(file FileUpload) string {
	if file.ContentType == "" {
		return "application/octet-stream"
	}
	return file.ContentType
}

// validateStatusPriority rejects patches carrying unknown status or
// priority values before any I/O happens.
func validateStatusPriority(patch docstore.Document) error {
	if v, ok := patch["status"]; ok {
		str, isStr := v.(string)
		if !isStr || !validStatus(str) {
			return &ValidationError{Reason: fmt.Sprintf("unknown status %v", v)}
		}
	}
	if v, ok := patch["priority"]; ok {
		str, isStr := v.(string)
		if !isStr || !validPriority(str) {
			return &ValidationError{Reason: fmt.Sprintf("unknown priority %v", v)}
		}
	}
	return nil
}

func validStatus(v string) bool {
	switch Status(v) {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func validPriority(v string) bool {
	switch Priority(v) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func stripFields(patch docstore.Document, forbidden ...string) docstore.Document {
	out := make(docstore.Document, len(patch))
	for k, v := range patch {
		out[k] = v
	}
	for _, f := range forbidden {
		delete(out, f)
	}
	return out
}

func rawSlice(doc docstore.Document, field string) []any {
	arr, _ := doc[field].([]any)
	return arr
}

func indexByID(items []any, id string) int {
	for i, item := range items {
		if m, ok := item.(map[string]any); ok && m["id"] == id {
			return i
		}
	}
	return -1
}

func removeByID(items []any, id string) ([]any, bool) {
	idx := indexByID(items, id)
	if idx < 0 {
		return items, false
	}
	out := append(append([]any{}, items[:idx]...), items[idx+1:]...)
	return out, true
}

func locateTask(doc docstore.Document, taskID string) (tasks []any, idx int, task map[string]any, err error) {
	tasks = rawSlice(doc, "tasks")
	idx = indexByID(tasks, taskID)
	if idx < 0 {
		return nil, -1, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	task, _ = tasks[idx].(map[string]any)
	return tasks, idx, task, nil
}

func attachmentRefs(items []any) []string {
	var refs []string
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if url, _ := m["fileUrl"].(string); url != "" {
			refs = append(refs, url)
		}
	}
	return refs
}
