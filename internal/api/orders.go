package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"checkout-service/internal/models"

	"github.com/gin-gonic/gin"
)

// flexBool accepts both JSON booleans and their string form, as the
// verification page forwards query parameters verbatim.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseBool(strings.Trim(string(data), `"`))
	if err != nil {
		return fmt.Errorf("invalid boolean %s", data)
	}
	*b = flexBool(v)
	return nil
}

type verifyRequest struct {
	OrderID string   `json:"orderId" binding:"required"`
	Success flexBool `json:"success"`
}

type preferenceRequest struct {
	Items      []models.PreferenceItem `json:"items" binding:"required,min=1,dive"`
	PayerEmail string                  `json:"payerEmail"`
}

type cartItemRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Size     string `json:"size" binding:"required"`
	Quantity *int   `json:"quantity" binding:"required,min=0"`
}

func (h *Handler) placeCOD(c *gin.Context) {
	var payload models.OrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Orders.PlaceCOD(c.Request.Context(), c.GetString(userIDKey), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) placeStripe(c *gin.Context) {
	var payload models.OrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Orders.PlaceStripe(c.Request.Context(), c.GetString(userIDKey), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) verifyStripe(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.Orders.VerifyStripe(c.Request.Context(), c.GetString(userIDKey), req.OrderID, bool(req.Success))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) listUserOrders(c *gin.Context) {
	orders, err := h.Orders.ListUserOrders(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

func (h *Handler) trackOrder(c *gin.Context) {
	tracking, err := h.Orders.Tracking(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tracking)
}

func (h *Handler) createPreference(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.Payments.CreatePaymentSession(c.Request.Context(), req.Items, req.PayerEmail)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "preferenceId": id})
}

func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.Carts.GetCart(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cartData": cart})
}

func (h *Handler) updateCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(userIDKey)
	if err := h.Carts.SetCartItem(ctx, userID, req.ItemID, req.Size, *req.Quantity); err != nil {
		h.respondError(c, err)
		return
	}

	cart, err := h.Carts.GetCart(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart Updated", "cartData": cart})
}
