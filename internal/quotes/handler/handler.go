// Package handler exposes quote submission and status update endpoints.
package handler

import (
	"net/http"
	"time"

	"buildvive_backend/internal/quotes/service"
	"buildvive_backend/internal/quotes/transport"
	"buildvive_backend/platform/httpkit"
	"buildvive_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
)

// Handler handles quote HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// NewHandler creates a new quotes handler.
func NewHandler(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleSubmitQuote creates a pending quote.
// POST /api/v1/quote
func (h *Handler) HandleSubmitQuote(c *gin.Context) {
	var req transport.SubmitQuoteRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	q, err := h.service.Submit(c.Request.Context(), service.Submission{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		ProjectType: req.ProjectType,
		Services:    req.Services,
		Location:    req.Location,
		Size:        req.Size,
		Timeline:    req.Timeline,
		Budget:      req.Budget,
		Urgency:     req.Urgency,
		Comments:    req.Comments,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, transport.ToQuoteResponse(q))
}

// HandleUpdateQuote applies one status transition.
// PUT /api/v1/quote
func (h *Handler) HandleUpdateQuote(c *gin.Context) {
	var req transport.UpdateQuoteRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	switch req.Status {
	case "approved":
		approvedAt := time.Time{}
		if req.ApprovedAt != nil {
			approvedAt = *req.ApprovedAt
		}
		quote, approveErr := h.service.Approve(ctx, req.QuoteID, req.QuotationURL, approvedAt)
		if httpkit.HandleError(c, approveErr) {
			return
		}
		httpkit.OK(c, transport.ToQuoteResponse(quote))
		return
	case "rejected":
		quote, rejectErr := h.service.Reject(ctx, req.QuoteID, req.Notes)
		if httpkit.HandleError(c, rejectErr) {
			return
		}
		httpkit.OK(c, transport.ToQuoteResponse(quote))
		return
	case "pending":
		quote, reopenErr := h.service.RequestMoreInfo(ctx, req.QuoteID, req.Notes)
		if httpkit.HandleError(c, reopenErr) {
			return
		}
		httpkit.OK(c, transport.ToQuoteResponse(quote))
		return
	default:
		httpkit.Error(c, http.StatusBadRequest, "unknown status", nil)
	}
}

// HandleDeleteQuote removes a quote.
// DELETE /api/v1/quote
func (h *Handler) HandleDeleteQuote(c *gin.Context) {
	var req transport.DeleteQuoteRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	if httpkit.HandleError(c, h.service.Delete(c.Request.Context(), req.QuoteID)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// HandleListQuotes returns all quotes.
// GET /api/v1/admin/quotes
func (h *Handler) HandleListQuotes(c *gin.Context) {
	quotes, err := h.service.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, transport.ToQuoteResponse(q))
	}
	httpkit.OK(c, gin.H{"quotes": out, "count": len(out)})
}

// HandleGetQuote returns a single quote.
// GET /api/v1/admin/quotes/:quoteId
func (h *Handler) HandleGetQuote(c *gin.Context) {
	q, err := h.service.Get(c.Request.Context(), c.Param("quoteId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(q))
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return false
	}
	return true
}
