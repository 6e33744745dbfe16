package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "user-registry/internal/application"
	"user-registry/internal/domain/entity"
	"user-registry/pkg/response"
	"user-registry/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Age   *int   `json:"age" binding:"omitempty,gte=0,lte=120"`
}

type updateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Email *string `json:"email" binding:"omitempty,email"`
	Age   *int    `json:"age" binding:"omitempty,gte=0,lte=120"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   *int   `json:"age,omitempty"`
}

func toUserResponse(u *entity.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Age: u.Age}
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.CreateUser(c.Request.Context(), userapp.CreateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrEmailExists) {
			response.Error[any](c, http.StatusConflict, "email already exists", nil)
			return
		}
		h.fail(c, err, "create user failed")
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user created", nil)
}

// List handles GET /users with limit/offset/order/order_by/where[...] params.
func (h *UserHandler) List(c *gin.Context) {
	params := userapp.ListParams{
		Limit:   c.Query("limit"),
		Offset:  c.Query("offset"),
		Order:   c.Query("order"),
		OrderBy: c.Query("order_by"),
		Where:   c.QueryMap("where"),
	}

	res, err := h.Svc.ListUsers(c.Request.Context(), params)
	if err != nil {
		var verr *userapp.ValidationError
		if errors.As(err, &verr) {
			response.Error[any](c, http.StatusBadRequest, "invalid query", verr.Fields)
			return
		}
		h.fail(c, err, "list users failed")
		return
	}

	data := make([]userResponse, 0, len(res.Data))
	for _, u := range res.Data {
		data = append(data, toUserResponse(u))
	}
	response.Success(c, http.StatusOK, data, "users", map[string]any{
		"total":  res.Total,
		"limit":  res.Limit,
		"offset": res.Offset,
	})
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	u, err := h.Svc.GetUserByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.fail(c, err, "get user failed")
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

// Update handles PATCH /users/:id with partial field merge.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.UpdateUser(c.Request.Context(), id, userapp.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, userapp.ErrEmailExists):
			response.Error[any](c, http.StatusConflict, "email already exists", nil)
		default:
			h.fail(c, err, "update user failed")
		}
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user updated", nil)
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	msg, err := h.Svc.DeleteUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.fail(c, err, "delete user failed")
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"message": msg}, "user deleted", nil)
}

// Search handles GET /users/search backed by Elasticsearch.
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	out, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.fail(c, err, "search users failed")
		return
	}
	response.Success(c, http.StatusOK, out, "search results", map[string]any{"count": len(out)})
}

func (h *UserHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error[any](c, http.StatusBadRequest, "invalid id", map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// fail maps unexpected errors (store/broker down, timeouts) to a transient
// 503 so callers know a retry may succeed.
func (h *UserHandler) fail(c *gin.Context, err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).Error(msg)
	}
	response.Error[any](c, http.StatusServiceUnavailable, "service temporarily unavailable", nil)
}
