package api

import (
	"encoding/json"
	"net/http"

	"checkout-service/internal/checkout"
	"checkout-service/internal/models"

	"github.com/gin-gonic/gin"
)

type methodRequest struct {
	Method models.PaymentMethod `json:"method" binding:"required"`
}

type widgetResultRequest struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) session(c *gin.Context) (*checkout.Session, bool) {
	s, err := h.Sessions.Get(c.Param("id"), c.GetString(userIDKey))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) openSession(c *gin.Context) {
	userID := c.GetString(userIDKey)
	s, err := h.Sessions.Open(c.Request.Context(), userID, h.Orders.GatewayFor(userID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.View())
}

func (h *Handler) getSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// setPayer accepts partial payer details; completeness is only checked at
// submission.
func (h *Handler) setPayer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, err)
		return
	}
	var payer models.Payer
	if err := json.Unmarshal(raw, &payer); err != nil {
		badRequest(c, err)
		return
	}

	s.SetPayer(c.Request.Context(), payer)
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) selectMethod(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req methodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.SelectMethod(c.Request.Context(), req.Method); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) setSessionQuantity(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.SetQuantity(c.Request.Context(), req.ItemID, req.Size, *req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (h *Handler) submitSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	out, err := s.Submit(c.Request.Context())
	if err != nil {
		c.JSON(errorStatus(err), gin.H{
			"success": false,
			"message": err.Error(),
			"session": s.View(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"outcome": out,
		"session": s.View(),
	})
}

func (h *Handler) widgetResult(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req widgetResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s.WidgetResult(req.Success, req.Message)
	c.JSON(http.StatusOK, s.View())
}
