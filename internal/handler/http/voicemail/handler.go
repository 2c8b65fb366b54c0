package voicemail

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ucplatform-backend/internal/service/voicemail"
	"ucplatform-backend/pkg/response"
)

// Handler handles voicemail endpoints
type Handler struct {
	voicemailService *voicemail.Service
}

// NewHandler creates a new voicemail handler
func NewHandler(voicemailService *voicemail.Service) *Handler {
	return &Handler{voicemailService: voicemailService}
}

func currentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet("user_id").(uuid.UUID)
	return id
}

// List returns the authenticated user's voicemail inbox
// GET /api/voicemails
func (h *Handler) List(c *gin.Context) {
	includeArchived := c.Query("archived") == "true"

	voicemails, err := h.voicemailService.List(c.Request.Context(), currentUserID(c), includeArchived)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"voicemails": voicemails})
}

// Get returns one voicemail with a playback URL and marks it read
// GET /api/voicemails/:id
func (h *Handler) Get(c *gin.Context) {
	voicemailID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid voicemail id")
		return
	}

	vm, err := h.voicemailService.Get(c.Request.Context(), voicemailID, currentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"voicemail": vm})
}

// Deposit accepts a multipart upload of a recording for a recipient
// POST /api/voicemails
func (h *Handler) Deposit(c *gin.Context) {
	recipientID, err := uuid.Parse(c.PostForm("recipient_id"))
	if err != nil {
		response.ValidationError(c, "invalid recipient_id")
		return
	}
	duration, _ := strconv.Atoi(c.PostForm("duration"))

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		response.ValidationError(c, "audio file required")
		return
	}
	defer file.Close()

	input := &voicemail.DepositInput{
		RecipientID: recipientID,
		Duration:    duration,
		Audio:       file,
		AudioSize:   header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}
	if number := c.PostForm("caller_number"); number != "" {
		input.CallerNumber = &number
	}
	if name := c.PostForm("caller_name"); name != "" {
		input.CallerName = &name
	}

	vm, err := h.voicemailService.Deposit(c.Request.Context(), input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"voicemail": vm})
}

// ArchiveRequest toggles archival
type ArchiveRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

// SetArchived archives or restores a voicemail
// PUT /api/voicemails/:id/archive
func (h *Handler) SetArchived(c *gin.Context) {
	voicemailID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid voicemail id")
		return
	}

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.voicemailService.SetArchived(c.Request.Context(), voicemailID, currentUserID(c), *req.Archived); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// Delete removes a voicemail and its recording
// DELETE /api/voicemails/:id
func (h *Handler) Delete(c *gin.Context) {
	voicemailID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid voicemail id")
		return
	}

	if err := h.voicemailService.Delete(c.Request.Context(), voicemailID, currentUserID(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}
