package user

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ucplatform-backend/internal/service/user"
	"ucplatform-backend/pkg/response"
)

// Handler handles user management endpoints
type Handler struct {
	userService *user.Service
}

// NewHandler creates a new user handler
func NewHandler(userService *user.Service) *Handler {
	return &Handler{userService: userService}
}

func currentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet("user_id").(uuid.UUID)
	return id
}

// Me returns the authenticated user's profile
// GET /api/users/me
func (h *Handler) Me(c *gin.Context) {
	u, err := h.userService.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"user": u.ToResponse()})
}

// List returns all users with live presence
// GET /api/users
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.userService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"users": users})
}

// Get returns one user
// GET /api/users/:id
func (h *Handler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid user id")
		return
	}

	u, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"user": u.ToResponse()})
}

// UpdateProfileRequest carries optional profile mutations
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Extension   *string `json:"extension"`
}

// UpdateProfile modifies the authenticated user's own profile
// PUT /api/users/me
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	u, err := h.userService.UpdateProfile(c.Request.Context(), currentUserID(c), &user.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Extension:   req.Extension,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"user": u.ToResponse()})
}

// SetRoleRequest carries a role change
type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole changes a user's role. Admin only.
// PUT /api/admin/users/:id/role
func (h *Handler) SetRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid user id")
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	u, err := h.userService.SetRole(c.Request.Context(), c.GetString("role"), userID, req.Role)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"user": u.ToResponse()})
}

// SetActiveRequest carries an activation toggle
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetActive activates or deactivates an account. Admin only.
// PUT /api/admin/users/:id/active
func (h *Handler) SetActive(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid user id")
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	u, err := h.userService.SetActive(c.Request.Context(), c.GetString("role"), userID, *req.IsActive)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"user": u.ToResponse()})
}

// Delete removes an account. Admin only.
// DELETE /api/admin/users/:id
func (h *Handler) Delete(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid user id")
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), c.GetString("role"), userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// Online lists ids of all currently connected users
// GET /api/users/online
func (h *Handler) Online(c *gin.Context) {
	ids, err := h.userService.OnlineUsers(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"online": ids})
}

// OnlineCount returns how many users are currently online
// GET /api/users/online/count
func (h *Handler) OnlineCount(c *gin.Context) {
	count, err := h.userService.OnlineCount(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// UpdateStatusRequest carries a presence change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus publishes a presence status change
// PUT /api/users/me/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.userService.UpdateStatus(c.Request.Context(), currentUserID(c), req.Status); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"status": req.Status})
}
