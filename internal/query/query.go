// Package query turns a task filter into a deterministic, paginated SQL view
// over one owner's tasks.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

var sortColumns = map[models.SortField]string{
	models.SortByCreatedAt: "created_at",
	models.SortByDueDate:   "due_date",
	models.SortByPriority:  "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END",
	models.SortByTitle:     "title",
}

// Normalize fills in defaults for paging and sorting.
func Normalize(f models.TaskFilter) models.TaskFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.SortBy == "" {
		f.SortBy = models.SortByCreatedAt
	}
	if f.SortOrder == "" {
		f.SortOrder = models.SortDesc
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

func Validate(f models.TaskFilter) error {
	if f.Priority != nil && !f.Priority.Valid() {
		return appErrors.Validation("priority must be low, medium, or high")
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		return appErrors.Validation("sortBy must be one of createdAt, dueDate, priority, title")
	}
	if f.SortOrder != models.SortAsc && f.SortOrder != models.SortDesc {
		return appErrors.Validation("sortOrder must be ASC or DESC")
	}
	if f.DueDateFrom != nil && f.DueDateTo != nil && f.DueDateFrom.After(*f.DueDateTo) {
		return appErrors.Validation("dueDateFrom must not be after dueDateTo")
	}
	return nil
}

// FromValues parses list query parameters. Unset parameters keep their defaults.
func FromValues(v url.Values) (models.TaskFilter, error) {
	var f models.TaskFilter

	if raw := v.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return f, appErrors.Validation("completed must be a boolean")
		}
		f.Completed = &completed
	}

	if raw := v.Get("priority"); raw != "" {
		priority := models.Priority(raw)
		f.Priority = &priority
	}

	var err error
	if f.DueDateFrom, err = parseTime(v.Get("dueDateFrom"), "dueDateFrom"); err != nil {
		return f, err
	}
	if f.DueDateTo, err = parseTime(v.Get("dueDateTo"), "dueDateTo"); err != nil {
		return f, err
	}

	f.Search = v.Get("search")

	if f.Page, err = parsePositive(v.Get("page"), "page"); err != nil {
		return f, err
	}
	if f.Limit, err = parsePositive(v.Get("limit"), "limit"); err != nil {
		return f, err
	}

	f.SortBy = models.SortField(v.Get("sortBy"))
	f.SortOrder = models.SortOrder(strings.ToUpper(v.Get("sortOrder")))

	f = Normalize(f)
	return f, Validate(f)
}

func parseTime(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, appErrors.Validation("%s must be an RFC3339 date", field)
	}
	return &t, nil
}

func parsePositive(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, appErrors.Validation("%s must be an integer >= 1", field)
	}
	return n, nil
}

// Statement is a parameterized WHERE/ORDER pair using $n placeholders.
type Statement struct {
	Where   string
	OrderBy string
	Args    []any
	Limit   int
	Offset  int
}

type builder struct {
	conds []string
	args  []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// Build expects a normalized filter.
func Build(ownerId string, f models.TaskFilter) Statement {
	b := &builder{}
	b.conds = append(b.conds, "owner_id = "+b.arg(ownerId))

	if f.Completed != nil {
		b.conds = append(b.conds, "completed = "+b.arg(*f.Completed))
	}
	if f.Priority != nil {
		b.conds = append(b.conds, "priority = "+b.arg(string(*f.Priority)))
	}
	if f.DueDateFrom != nil {
		b.conds = append(b.conds, "due_date >= "+b.arg(f.DueDateFrom.UTC()))
	}
	if f.DueDateTo != nil {
		b.conds = append(b.conds, "due_date <= "+b.arg(f.DueDateTo.UTC()))
	}
	if f.Search != "" {
		pattern := b.arg("%" + escapeLike(strings.ToLower(f.Search)) + "%")
		b.conds = append(b.conds, fmt.Sprintf(
			`(LOWER(title) LIKE %[1]s ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE %[1]s ESCAPE '\')`,
			pattern,
		))
	}

	return Statement{
		Where:   strings.Join(b.conds, " AND "),
		OrderBy: orderBy(f),
		Args:    b.args,
		Limit:   f.Limit,
		Offset:  (f.Page - 1) * f.Limit,
	}
}

func orderBy(f models.TaskFilter) string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[models.SortByCreatedAt]
	}
	direction := "DESC"
	if f.SortOrder == models.SortAsc {
		direction = "ASC"
	}

	var parts []string
	if f.SortBy == models.SortByDueDate {
		// tasks without a due date go last in both directions
		parts = append(parts, "CASE WHEN due_date IS NULL THEN 1 ELSE 0 END")
	}
	parts = append(parts, column+" "+direction, "id ASC")
	return strings.Join(parts, ", ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// NewPage wraps one page of results with counts over the whole filtered set.
func NewPage(tasks []*models.Task, total int, f models.TaskFilter) *models.TaskPage {
	if tasks == nil {
		tasks = []*models.Task{}
	}
	totalPages := int(math.Ceil(float64(total) / float64(f.Limit)))
	return &models.TaskPage{
		Tasks:      tasks,
		Total:      total,
		Page:       f.Page,
		TotalPages: totalPages,
		HasNext:    f.Page < totalPages,
		HasPrev:    f.Page > 1,
	}
}
