package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

// TaskInput carries the editable task fields. Priority is matched
// case-insensitively; an empty priority means MEDIUM.
type TaskInput struct {
	Title       string
	Description string
	Priority    string
	Deadline    *time.Time
	Status      string
}

// TaskView is a task together with the email of its owner.
type TaskView struct {
	domain.Task
	AssignedTo string
}

// TaskService manages personal task lists.
type TaskService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	now   func() time.Time
}

// NewTaskService constructs the service. A nil clock means time.Now.
func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, now func() time.Time) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{tasks: tasks, users: users, now: now}
}

// Create stores a new task owned by the caller.
func (s *TaskService) Create(ctx context.Context, actor domain.Identity, input TaskInput) (*TaskView, error) {
	owner, err := s.owner(ctx, actor)
	if err != nil {
		return nil, err
	}
	task := &domain.Task{UserID: owner.ID}
	if err := s.apply(task, input); err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &TaskView{Task: *task, AssignedTo: owner.Email}, nil
}

// List returns the caller's tasks, or every task for an admin.
func (s *TaskService) List(ctx context.Context, actor domain.Identity) ([]TaskView, error) {
	var (
		tasks []domain.Task
		err   error
	)
	if actor.IsAdmin() {
		tasks, err = s.tasks.ListAll(ctx)
	} else {
		owner, ownerErr := s.owner(ctx, actor)
		if ownerErr != nil {
			return nil, ownerErr
		}
		tasks, err = s.tasks.ListByUser(ctx, owner.ID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	emails := map[string]string{}
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		email, ok := emails[task.UserID]
		if !ok {
			if user, err := s.users.GetByID(ctx, task.UserID); err == nil {
				email = user.Email
			}
			emails[task.UserID] = email
		}
		views = append(views, TaskView{Task: task, AssignedTo: email})
	}
	return views, nil
}

// Update replaces the editable fields of a task the caller owns.
func (s *TaskService) Update(ctx context.Context, actor domain.Identity, id string, input TaskInput) (*TaskView, error) {
	owner, task, err := s.ownedTask(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}
	if err := s.apply(task, input); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, taskLookupError(err, id)
	}
	return &TaskView{Task: *task, AssignedTo: owner.Email}, nil
}

// Delete removes a task the caller owns.
func (s *TaskService) Delete(ctx context.Context, actor domain.Identity, id string) error {
	if _, _, err := s.ownedTask(ctx, actor, id, "delete"); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return taskLookupError(err, id)
	}
	return nil
}

func (s *TaskService) ownedTask(ctx context.Context, actor domain.Identity, id, action string) (*domain.User, *domain.Task, error) {
	owner, err := s.owner(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, nil, taskLookupError(err, id)
	}
	if task.UserID != owner.ID {
		return nil, nil, apperrors.NewForbidden("you are not allowed to " + action + " this task")
	}
	return owner, task, nil
}

func (s *TaskService) owner(ctx context.Context, actor domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, actor.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("identity not found")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *TaskService) apply(task *domain.Task, input TaskInput) error {
	details := map[string]any{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		details["title"] = "title is required"
	}

	priority := domain.TaskPriorityMedium
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		switch p := domain.TaskPriority(strings.ToUpper(raw)); p {
		case domain.TaskPriorityLow, domain.TaskPriorityMedium, domain.TaskPriorityHigh:
			priority = p
		default:
			details["priority"] = "allowed values are LOW, MEDIUM, HIGH"
		}
	}

	if input.Deadline != nil && input.Deadline.Before(s.now()) {
		details["deadline"] = "deadline cannot be in the past"
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("invalid task", details)
	}

	task.Title = title
	task.Description = strings.TrimSpace(input.Description)
	task.Priority = priority
	task.Deadline = input.Deadline
	task.Status = strings.TrimSpace(input.Status)
	return nil
}

func taskLookupError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("task", map[string]any{"id": id})
	}
	return apperrors.NewInternalError(err)
}
