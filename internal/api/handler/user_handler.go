package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shingo/auth-api/internal/core/domain"
	"github.com/shingo/auth-api/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
	repo  ports.UserRepository
}

func NewUserHandler(users ports.UserService, repo ports.UserRepository) *UserHandler {
	return &UserHandler{users: users, repo: repo}
}

type createUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	ExtID    string   `json:"ext_id"`
	Services []string `json:"services" validate:"required,min=1"`
}

type patchUserRequest struct {
	ExtID     string   `json:"ext_id"`
	Email     *string  `json:"email" validate:"omitempty,email"`
	Password  *string  `json:"password" validate:"omitempty,min=8"`
	Services  []string `json:"services"`
	IsEnabled *bool    `json:"is_enabled"`
}

type roleOperationRequest struct {
	UserEmail string `json:"user_email" validate:"required,email"`
	RoleID    int64  `json:"role_id" validate:"required"`
}

// Create registers a new user account.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Create(c.Request().Context(), req.Email, req.Password, req.ExtID, req.Services)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Me returns the account of the authenticated caller.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	email, err := ctxEmail(c)
	if err != nil {
		return err
	}

	user, err := h.repo.FindByEmail(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Get fetches a user by numeric id, hydrated with roles and permissions.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := h.repo.FindByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// GetByExtID fetches a user by its external id, the alternate lookup key
// consuming services hold instead of the numeric id.
//
// @Summary      Get a user by external id
// @Tags         users
// @Produce      json
// @Param        ext_id  path      string  true  "External id"
// @Success      200     {object}  domain.User
// @Failure      404     {object}  map[string]string
// @Router       /users/ext/{ext_id} [get]
func (h *UserHandler) GetByExtID(c echo.Context) error {
	extID := c.Param("ext_id")
	if extID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing ext_id")
	}

	user, err := h.repo.FindByExtID(c.Request().Context(), extID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Patch applies a partial update to a user.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Param        id    path  int               true  "User id"
// @Param        body  body  patchUserRequest  true  "Fields to change"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [patch]
func (h *UserHandler) Patch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req patchUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.Update(c.Request().Context(), domain.UserPatch{
		ID:        id,
		ExtID:     req.ExtID,
		Email:     req.Email,
		Password:  req.Password,
		Services:  req.Services,
		IsEnabled: req.IsEnabled,
	}); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Delete removes a user account.
//
// @Summary      Delete a user
// @Tags         users
// @Param        id  path  int  true  "User id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// AddRole attaches a role to a user.
//
// @Summary      Add a role to a user
// @Tags         users
// @Accept       json
// @Param        body  body  roleOperationRequest  true  "User email and role id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /users/roles [post]
func (h *UserHandler) AddRole(c echo.Context) error {
	return h.roleOp(c, h.users.AddRole)
}

// RemoveRole detaches a role from a user.
//
// @Summary      Remove a role from a user
// @Tags         users
// @Accept       json
// @Param        body  body  roleOperationRequest  true  "User email and role id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /users/roles [delete]
func (h *UserHandler) RemoveRole(c echo.Context) error {
	return h.roleOp(c, h.users.RemoveRole)
}

func (h *UserHandler) roleOp(c echo.Context, op func(ctx context.Context, o domain.RoleOperation) error) error {
	var req roleOperationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := op(c.Request().Context(), domain.RoleOperation{
		UserEmail: req.UserEmail,
		RoleID:    req.RoleID,
	}); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// pathID parses the :id path segment shared by user and role routes.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
