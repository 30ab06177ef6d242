package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

type TaskHandler struct {
	tasks ports.TaskService
}

func NewTaskHandler(tasks ports.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	ClientID    string `json:"clientId" validate:"required"`
	Deadline    string `json:"deadline" validate:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
}

type updateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	ClientID    *string `json:"clientId"`
	Deadline    *string `json:"deadline"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
}

// statusOnly drops the fields a client may not change.
func (r *updateTaskRequest) statusOnly() {
	*r = updateTaskRequest{Status: r.Status}
}

// deadlineLayouts are the accepted deadline formats, most precise first.
var deadlineLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseDeadline accepts RFC 3339 or a bare date/time (read as UTC). A bare
// date means the end of that day.
func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range deadlineLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.Add(24*time.Hour - time.Second)
		}
		return t.UTC(), nil
	}
	return time.Time{}, invalidInput("deadline must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

// List returns tasks ordered by deadline.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        clientId  query     string  false  "Filter by client (admin only)"
// @Param        status    query     string  false  "Filter by status"
// @Success      200       {array}   domain.Task
// @Failure      400       {object}  api.errorResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.List(c.Request().Context(), actor, ports.ListTasksInput{
		ClientID: c.QueryParam("clientId"),
		Status:   domain.TaskStatus(c.QueryParam("status")),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Get returns one task.
//
// @Summary      Get task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Create assigns a task to a client.
//
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Router       /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), actor, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ClientID:    req.ClientID,
		Deadline:    deadline,
		Status:      domain.TaskStatus(req.Status),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Update changes a task. Clients can only change its status.
//
// @Summary      Update task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task ID"
// @Param        body  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  domain.Task
// @Failure      400   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	var mask func()
	if !actor.IsAdmin() {
		mask = req.statusOnly
	}
	if err := bindMaskValidate(c, &req, mask); err != nil {
		return err
	}

	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		ClientID:    req.ClientID,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		patch.Status = &status
	}
	if req.Deadline != nil {
		deadline, err := parseDeadline(*req.Deadline)
		if err != nil {
			return err
		}
		patch.Deadline = &deadline
	}

	task, err := h.tasks.Update(c.Request().Context(), actor, c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes a task; its documents stay but lose the link.
//
// @Summary      Delete task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "task deleted"})
}
