package models

import "time"

type EventKind string

const (
	EventTaskCreated   EventKind = "task.created"
	EventTaskUpdated   EventKind = "task.updated"
	EventTaskDeleted   EventKind = "task.deleted"
	EventTaskCompleted EventKind = "task.completed"
)

type Event struct {
	Kind       EventKind
	UserId     string
	TaskId     string
	Task       *Task
	OccurredAt time.Time
}

type DeletedPayload struct {
	Id string `json:"id"`
}

// Payload is what a connected owner receives for this event.
func (e Event) Payload() any {
	if e.Kind == EventTaskDeleted || e.Task == nil {
		return DeletedPayload{Id: e.TaskId}
	}
	return e.Task
}

// EventMessage is the record written to the task events topic.
type EventMessage struct {
	Type       string    `json:"type"`
	UserId     string    `json:"userId"`
	TaskId     string    `json:"taskId"`
	Task       *Task     `json:"task,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
