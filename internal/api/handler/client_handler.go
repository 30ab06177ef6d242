package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/backoffice-api/internal/core/ports"
)

type ClientHandler struct {
	clients ports.ClientService
}

func NewClientHandler(clients ports.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

type createClientRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Company  string `json:"company" validate:"omitempty,max=120"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type updateClientRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Company  *string `json:"company" validate:"omitempty,max=120"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

// selfService drops the fields only an admin may change.
func (r *updateClientRequest) selfService() {
	r.Email = nil
	r.Company = nil
}

// List returns every client for admins and the caller for clients.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      401  {object}  api.errorResponse
// @Router       /clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	clients, err := h.clients.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clients)
}

// Get returns one client.
//
// @Summary      Get client
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	client, err := h.clients.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// Create registers a client on behalf of an admin.
//
// @Summary      Create client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createClientRequest  true  "Client details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      409   {object}  api.errorResponse
// @Router       /clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req createClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	client, err := h.clients.Create(c.Request().Context(), actor, ports.CreateClientInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, client)
}

// Update changes a client's profile.
//
// @Summary      Update client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Client ID"
// @Param        body  body      updateClientRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  api.errorResponse
// @Failure      403   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req updateClientRequest
	var mask func()
	if !actor.IsAdmin() {
		mask = req.selfService
	}
	if err := bindMaskValidate(c, &req, mask); err != nil {
		return err
	}

	client, err := h.clients.Update(c.Request().Context(), actor, c.Param("id"), ports.UpdateClientInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Company:  req.Company,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// Delete removes a client with their tasks and documents.
//
// @Summary      Delete client
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  api.errorResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	if err := h.clients.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "client deleted"})
}
