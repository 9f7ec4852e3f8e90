package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	Id          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    Priority   `json:"priority"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
	OwnerId     string     `json:"ownerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    Priority
	DueDate     *time.Time
}

// TaskPatch carries only the fields a client sent. Nullable fields distinguish
// an omitted key from an explicit null.
type TaskPatch struct {
	Title       *string
	Description Nullable[string]
	Priority    *Priority
	Completed   *bool
	DueDate     Nullable[time.Time]
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.Description.Set && p.Priority == nil && p.Completed == nil && !p.DueDate.Set
}

type TaskPage struct {
	Tasks      []*Task `json:"tasks"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	TotalPages int     `json:"totalPages"`
	HasNext    bool    `json:"hasNext"`
	HasPrev    bool    `json:"hasPrev"`
}
