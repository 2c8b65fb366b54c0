package auth

import (
	"github.com/gin-gonic/gin"

	"ucplatform-backend/internal/service/user"
	"ucplatform-backend/pkg/response"
)

// Handler handles authentication endpoints
type Handler struct {
	userService *user.Service
}

// NewHandler creates a new auth handler
func NewHandler(userService *user.Service) *Handler {
	return &Handler{userService: userService}
}

// RegisterRequest is the registration request body
type RegisterRequest struct {
	Username    string  `json:"username" binding:"required,min=3,max=30"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	FirstName   string  `json:"first_name" binding:"required"`
	LastName    string  `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Extension   *string `json:"extension"`
}

// LoginRequest is the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles user registration
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	created, err := h.userService.Register(c.Request.Context(), &user.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Extension:   req.Extension,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, gin.H{"user": created.ToResponse()})
}

// Login verifies credentials and returns a JWT
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	token, loggedIn, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"user":  loggedIn.ToResponse(),
	})
}
