package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"transit-ticketing/internal/auth"
	"transit-ticketing/internal/logger"
	"transit-ticketing/internal/models"
	"transit-ticketing/internal/money"
	"transit-ticketing/internal/payment"
	"transit-ticketing/internal/utils"
)

// PaymentHandler serves the payment endpoints as a gin group, mounted under
// the chi router that fronts the rest of the API.
type PaymentHandler struct {
	Payments *payment.Service
	Logger   *logger.Logger
}

func NewPaymentHandler(payments *payment.Service, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Logger: log}
}

// Router builds the gin engine for /api/v1/payments.
func (h *PaymentHandler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	e.POST("/bookings/:bookingId/process", h.ProcessPayment)
	e.GET("/:paymentId", h.GetPayment)
	e.POST("/:paymentId/refund", h.Refund)

	return e
}

func (h *PaymentHandler) actor(c *gin.Context) string {
	// The chi OIDC middleware runs before the mount, so the verified subject
	// is already on the request context; fall back to the raw token's claim
	// for internal callers.
	if userID := auth.UserID(c.Request.Context()); userID != "" {
		return userID
	}
	token, err := auth.ExtractTokenFromRequest(c.Request)
	if err != nil {
		return ""
	}
	userID, err := auth.ExtractUserIDFromJWT(token)
	if err != nil {
		return ""
	}
	return userID
}

func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	bookingID := c.Param("bookingId")
	userID := h.actor(c)

	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	p, err := h.Payments.ProcessPayment(c.Request.Context(), bookingID, userID, req.Method)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ProcessPayment: %v", err))
		c.JSON(statusFor(err), utils.ErrorResponse("Payment processing failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment processed", toPaymentResponse(p)))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID := c.Param("paymentId")

	p, err := h.Payments.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		c.JSON(statusFor(err), utils.ErrorResponse("Payment not found", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment found", toPaymentResponse(p)))
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	paymentID := c.Param("paymentId")
	userID := h.actor(c)

	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	if err := h.Payments.Refund(c.Request.Context(), paymentID, userID, req.Reason); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Refund: %v", err))
		c.JSON(statusFor(err), utils.ErrorResponse("Refund failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Refund processed", nil))
}

func toPaymentResponse(p *models.Payment) models.PaymentResponse {
	return models.PaymentResponse{
		PaymentID:     p.PaymentID,
		BookingID:     p.BookingID,
		Amount:        money.Format(p.Amount),
		Method:        p.Method,
		Status:        p.Status,
		TransactionID: p.TransactionID,
	}
}
