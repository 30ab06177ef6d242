package domain

import "time"

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// Open reports whether the task still needs work.
func (s TaskStatus) Open() bool {
	return s == TaskPending || s == TaskInProgress
}

// Task is a unit of work assigned by an admin to one client.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ClientID    string     `json:"client_id"`
	CreatedBy   string     `json:"created_by"`
	Deadline    time.Time  `json:"deadline"`
	Status      TaskStatus `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskPatch carries the fields an update may touch. Nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	ClientID    *string
	Deadline    *time.Time
	Status      *TaskStatus
}

// StatusOnly drops every field except Status. Clients may only move status.
func (p TaskPatch) StatusOnly() TaskPatch {
	return TaskPatch{Status: p.Status}
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.ClientID == nil && p.Deadline == nil && p.Status == nil
}
