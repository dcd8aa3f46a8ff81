package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-app/internal/services"
)

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type payRequest struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount"`
}

func (h *PaymentHandler) Pay(c *gin.Context) {
	var body payRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.service.Pay(c.Request.Context(), body.BookingID, c.GetString("userId"), body.Amount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if result.Status != "success" {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
