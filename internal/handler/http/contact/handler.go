package contact

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ucplatform-backend/internal/service/contact"
	"ucplatform-backend/pkg/response"
)

// Handler handles contact book endpoints
type Handler struct {
	contactService *contact.Service
}

// NewHandler creates a new contact handler
func NewHandler(contactService *contact.Service) *Handler {
	return &Handler{contactService: contactService}
}

func currentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet("user_id").(uuid.UUID)
	return id
}

// CreateRequest is the new contact request body
type CreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	PhoneNumber string  `json:"phone_number" binding:"required"`
	Email       *string `json:"email"`
	Company     *string `json:"company"`
	Position    *string `json:"position"`
	Notes       *string `json:"notes"`
}

// Create adds a contact
// POST /api/contacts
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	created, err := h.contactService.Create(c.Request.Context(), currentUserID(c), &contact.CreateInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Company:     req.Company,
		Position:    req.Position,
		Notes:       req.Notes,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"contact": created})
}

// List returns the owner's contacts
// GET /api/contacts
func (h *Handler) List(c *gin.Context) {
	contacts, err := h.contactService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"contacts": contacts})
}

// Get returns one contact
// GET /api/contacts/:id
func (h *Handler) Get(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid contact id")
		return
	}

	found, err := h.contactService.Get(c.Request.Context(), contactID, currentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"contact": found})
}

// UpdateRequest carries optional contact mutations
type UpdateRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	Company     *string `json:"company"`
	Position    *string `json:"position"`
	Notes       *string `json:"notes"`
}

// Update modifies a contact
// PUT /api/contacts/:id
func (h *Handler) Update(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid contact id")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	updated, err := h.contactService.Update(c.Request.Context(), contactID, currentUserID(c), &contact.UpdateInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Company:     req.Company,
		Position:    req.Position,
		Notes:       req.Notes,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"contact": updated})
}

// Delete removes a contact
// DELETE /api/contacts/:id
func (h *Handler) Delete(c *gin.Context) {
	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid contact id")
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), contactID, currentUserID(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}
