package chat

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ucplatform-backend/internal/service/chat"
	"ucplatform-backend/pkg/response"
)

// Handler handles chat and messaging endpoints
type Handler struct {
	chatService *chat.Service
}

// NewHandler creates a new chat handler
func NewHandler(chatService *chat.Service) *Handler {
	return &Handler{chatService: chatService}
}

func currentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet("user_id").(uuid.UUID)
	return id
}

// CreateRequest starts a new chat
type CreateRequest struct {
	Name         string      `json:"name"`
	Participants []uuid.UUID `json:"participants" binding:"required"`
}

// Create starts a direct or group chat
// POST /api/chats
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	created, err := h.chatService.CreateChat(c.Request.Context(), currentUserID(c), req.Name, req.Participants)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"chat": created})
}

// List returns the authenticated user's chats
// GET /api/chats
func (h *Handler) List(c *gin.Context) {
	chats, err := h.chatService.ListChats(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"chats": chats})
}

// Get returns one chat the user participates in
// GET /api/chats/:id
func (h *Handler) Get(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid chat id")
		return
	}

	found, err := h.chatService.GetChat(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"chat": found})
}

// Messages returns the latest messages of a chat, newest first
// GET /api/chats/:id/messages
func (h *Handler) Messages(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid chat id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.chatService.RecentMessages(c.Request.Context(), chatID, currentUserID(c), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"messages": messages})
}

// SendRequest carries a new message
type SendRequest struct {
	Content     string  `json:"content"`
	MessageType string  `json:"message_type"`
	FileURL     *string `json:"file_url"`
}

// Send stores a message and notifies the other participants
// POST /api/chats/:id/messages
func (h *Handler) Send(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid chat id")
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), chatID, currentUserID(c), req.Content, req.MessageType, req.FileURL)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"message": message})
}

// DeleteMessage removes a message the requester sent. The send time is
// required to address the row in the message store.
// DELETE /api/chats/:id/messages/:messageID?sent_at=<RFC3339>
func (h *Handler) DeleteMessage(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid chat id")
		return
	}
	messageID, err := uuid.Parse(c.Param("messageID"))
	if err != nil {
		response.ValidationError(c, "invalid message id")
		return
	}
	sentAt, err := time.Parse(time.RFC3339Nano, c.Query("sent_at"))
	if err != nil {
		response.ValidationError(c, "invalid sent_at")
		return
	}

	if err := h.chatService.DeleteMessage(c.Request.Context(), chatID, currentUserID(c), messageID, sentAt); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// AddParticipantRequest names the user to add
type AddParticipantRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// AddParticipant adds a user to a group chat
// POST /api/chats/:id/participants
func (h *Handler) AddParticipant(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid chat id")
		return
	}

	var req AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.chatService.AddParticipant(c.Request.Context(), chatID, currentUserID(c), req.UserID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// Leave removes the authenticated user from a chat
// DELETE /api/chats/:id/participants/me
func (h *Handler) Leave(c *gin.Context) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid chat id")
		return
	}

	if err := h.chatService.LeaveChat(c.Request.Context(), chatID, currentUserID(c)); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}
