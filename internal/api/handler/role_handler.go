package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shingo/auth-api/internal/core/ports"
)

type RoleHandler struct {
	roles ports.RoleService
}

func NewRoleHandler(roles ports.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

type createRoleRequest struct {
	Name    string `json:"name" validate:"required"`
	Service string `json:"service" validate:"required"`
}

// Create registers a new role.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        body  body      createRoleRequest  true  "New role"
// @Success      201   {object}  domain.Role
// @Failure      400   {object}  map[string]string
// @Router       /roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	role, err := h.roles.Create(c.Request().Context(), req.Name, req.Service)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, role)
}

// Delete removes a role. Permissions referencing the role keep their other
// accessors.
//
// @Summary      Delete a role
// @Tags         roles
// @Param        id  path  int  true  "Role id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /roles/{id} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.roles.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
