package domain

import "time"

// TaskPriority enumerates task urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Task is a personal work item owned by a single user.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Priority    TaskPriority
	Deadline    *time.Time
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
