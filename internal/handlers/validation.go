package handlers

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Novip1906/tasks-realtime/internal/config"
	appErrors "github.com/Novip1906/tasks-realtime/internal/errors"
	"github.com/Novip1906/tasks-realtime/internal/models"
)

type createTaskRequest struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Priority    *models.Priority `json:"priority"`
	DueDate     *string          `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string                 `json:"title"`
	Description models.Nullable[string] `json:"description"`
	Priority    *models.Priority        `json:"priority"`
	Completed   *bool                   `json:"completed"`
	DueDate     models.Nullable[string] `json:"dueDate"`
}

func (req createTaskRequest) toInput(params config.Params) (models.CreateTaskInput, error) {
	var input models.CreateTaskInput

	title, err := validateTitle(req.Title, params.Title)
	if err != nil {
		return input, err
	}
	input.Title = title

	if req.Description != nil {
		if err := validateDescription(*req.Description, params.Description); err != nil {
			return input, err
		}
		input.Description = req.Description
	}

	if req.Priority != nil {
		if !req.Priority.Valid() {
			return input, appErrors.Validation("priority must be low, medium, or high")
		}
		input.Priority = *req.Priority
	}

	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return input, err
		}
		input.DueDate = &due
	}
	return input, nil
}

func (req updateTaskRequest) toPatch(params config.Params) (models.TaskPatch, error) {
	var patch models.TaskPatch

	if req.Title != nil {
		title, err := validateTitle(*req.Title, params.Title)
		if err != nil {
			return patch, err
		}
		patch.Title = &title
	}

	if req.Description.Set {
		if req.Description.Value != nil {
			if err := validateDescription(*req.Description.Value, params.Description); err != nil {
				return patch, err
			}
		}
		patch.Description = req.Description
	}

	if req.Priority != nil {
		if !req.Priority.Valid() {
			return patch, appErrors.Validation("priority must be low, medium, or high")
		}
		patch.Priority = req.Priority
	}

	patch.Completed = req.Completed

	if req.DueDate.Set {
		if req.DueDate.Value == nil {
			patch.DueDate = models.Null[time.Time]()
		} else {
			due, err := parseDueDate(*req.DueDate.Value)
			if err != nil {
				return patch, err
			}
			patch.DueDate = models.Some(due)
		}
	}
	return patch, nil
}

func validateTitle(raw string, limits config.MinMaxLen) (string, error) {
	title := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(title)
	if n < limits.Min {
		return "", appErrors.Validation("title must not be empty")
	}
	if n > limits.Max {
		return "", appErrors.Validation("title must not exceed %d characters", limits.Max)
	}
	return title, nil
}

func validateDescription(description string, limits config.MaxLen) error {
	if utf8.RuneCountInString(description) > limits.Max {
		return appErrors.Validation("description must not exceed %d characters", limits.Max)
	}
	return nil
}

func parseDueDate(raw string) (time.Time, error) {
	due, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appErrors.Validation("dueDate must be an RFC3339 date")
	}
	return due.UTC(), nil
}
