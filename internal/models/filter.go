package models

import "time"

type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
	SortByTitle     SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

type TaskFilter struct {
	Completed   *bool
	Priority    *Priority
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Search      string
	Page        int
	Limit       int
	SortBy      SortField
	SortOrder   SortOrder
}
