package call

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ucplatform-backend/internal/service/call"
	"ucplatform-backend/pkg/response"
)

// Handler handles call record endpoints
type Handler struct {
	callService *call.Service
}

// NewHandler creates a new call handler
func NewHandler(callService *call.Service) *Handler {
	return &Handler{callService: callService}
}

func currentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet("user_id").(uuid.UUID)
	return id
}

// List returns the calls the authenticated user took part in
// GET /api/calls
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	calls, err := h.callService.UserCalls(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"calls": calls})
}

// Get returns one call record
// GET /api/calls/:id
func (h *Handler) Get(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid call id")
		return
	}

	record, err := h.callService.GetCall(c.Request.Context(), currentUserID(c), c.GetString("role"), callID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"call": record})
}

// ExternalCallRequest carries an outbound dial request
type ExternalCallRequest struct {
	DestinationNumber  string `json:"destination_number" binding:"required"`
	DestinationCountry string `json:"destination_country"`
	CallType           string `json:"call_type"`
}

// External places a call to an outside number through the active trunk
// POST /api/calls/external
func (h *Handler) External(c *gin.Context) {
	var req ExternalCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	record, err := h.callService.ExternalCall(c.Request.Context(), currentUserID(c),
		req.DestinationNumber, req.DestinationCountry, req.CallType)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"call": record})
}

// Rates returns the active international rate table
// GET /api/rates
func (h *Handler) Rates(c *gin.Context) {
	rates, err := h.callService.ListRates(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"rates": rates})
}

// Delete removes a call record. Admin only.
// DELETE /api/admin/calls/:id
func (h *Handler) Delete(c *gin.Context) {
	callID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid call id")
		return
	}

	if err := h.callService.DeleteCall(c.Request.Context(), c.GetString("role"), callID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, nil)
}

// Stats returns call totals per status. Admin only.
// GET /api/admin/calls/stats
func (h *Handler) Stats(c *gin.Context) {
	counts, err := h.callService.CountByStatus(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"counts": counts})
}

// Trunks lists configured SIP trunks. Admin only.
// GET /api/admin/trunks
func (h *Handler) Trunks(c *gin.Context) {
	trunks, err := h.callService.ListTrunks(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"trunks": trunks})
}

// TestTrunk runs a simulated connectivity check. Admin only.
// POST /api/admin/trunks/:id/test
func (h *Handler) TestTrunk(c *gin.Context) {
	trunkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid trunk id")
		return
	}

	result, err := h.callService.TestTrunk(c.Request.Context(), trunkID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, gin.H{"result": result})
}
