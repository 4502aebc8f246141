package dto

import (
	"time"

	"github.com/spec-kit/auth-service/internal/service"
)

// TaskRequest payload for creating or updating a task.
type TaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	Status      string     `json:"status"`
}

// Input converts the payload to service input.
func (r TaskRequest) Input() service.TaskInput {
	return service.TaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Deadline:    r.Deadline,
		Status:      r.Status,
	}
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      string     `json:"status"`
	AssignedTo  string     `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTaskResponse maps a task view.
func NewTaskResponse(view *service.TaskView) TaskResponse {
	return TaskResponse{
		ID:          view.ID,
		Title:       view.Title,
		Description: view.Description,
		Priority:    string(view.Priority),
		Deadline:    view.Deadline,
		Status:      view.Status,
		AssignedTo:  view.AssignedTo,
		CreatedAt:   view.CreatedAt,
		UpdatedAt:   view.UpdatedAt,
	}
}
