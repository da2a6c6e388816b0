package projects

import (
	"io"
	"time"

	"github.com/sitelink-pm/sitelink/internal/permissions"
)

// Status is the lifecycle stage shared by projects and tasks.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Priority ranks a project.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Actor identifies the person performing an operation. Identity is
// established by the external provider; the store only records it.
type Actor struct {
	ID   string
	Name string
	Role permissions.Role
}

// Project is the aggregate root. Tasks, comments and attachments are
// embedded in the project document, not stored as independent rows.
type Project struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Status      Status       `json:"status"`
	Priority    Priority     `json:"priority"`
	StartDate   time.Time    `json:"startDate"`
	EndDate     *time.Time   `json:"endDate,omitempty"`
	Budget      *float64     `json:"budget,omitempty"`
	Supervisor  string       `json:"supervisor"`
	Team        []string     `json:"team"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Tasks       []Task       `json:"tasks"`
	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`
}

// Task is owned by exactly one project and carries its own comments
// and attachments.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      Status       `json:"status"`
	AssignedTo  []string     `json:"assignedTo"`
	DueDate     time.Time    `json:"dueDate"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Comments    []Comment    `json:"comments"`
	Attachments []Attachment `json:"attachments"`
}

// Comment is immutable after creation. The author name is captured at
// creation time and deliberately not kept in sync with later renames.
type Comment struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	CreatedBy     string    `json:"createdBy"`
	CreatedByName string    `json:"createdByName"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Attachment references a blob held by the external store.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	FileType   string    `json:"fileType"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Filter narrows ListProjects. Zero values mean "any".
type Filter struct {
	Status     Status
	Supervisor string
	TeamMember string
}

// CreateProjectInput carries the caller-supplied fields for a new
// project. Ids, timestamps and nested collections are server-assigned.
type CreateProjectInput struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Status      Status     `json:"status" validate:"required,oneof=not-started in-progress completed"`
	Priority    Priority   `json:"priority" validate:"required,oneof=low medium high"`
	StartDate   time.Time  `json:"startDate" validate:"required"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	Supervisor  string     `json:"supervisor" validate:"required"`
	Team        []string   `json:"team"`
}

// TaskInput carries the caller-supplied fields for a new task.
type TaskInput struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Status      Status    `json:"status" validate:"required,oneof=not-started in-progress completed"`
	AssignedTo  []string  `json:"assignedTo"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
}

// FileUpload is an attachment payload on its way to the blob store.
type FileUpload struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// RelationshipsFor computes the permission context an actor has toward
// this aggregate. The permission engine never derives these itself;
// callers pass the result to CanPerform.
func (p Project) RelationshipsFor(actor Actor) permissions.Context {
	ctx := permissions.Context{
		IsOwner:      p.CreatedBy == actor.ID || p.Supervisor == actor.ID,
		IsOwnProfile: false,
	}
	for _, member := range p.Team {
		if member == actor.ID {
			ctx.IsTeamMember = true
			break
		}
	}
	for _, task := range p.Tasks {
		for _, assignee := range task.AssignedTo {
			if assignee == actor.ID {
				ctx.IsAssigned = true
			}
		}
	}
	return ctx
}
