package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classbridge/classbridge-api/internal/service"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
	"github.com/classbridge/classbridge-api/pkg/response"
)

// PaymentHandler wires HTTP endpoints to the payment service.
type PaymentHandler struct {
	service *service.PaymentService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// List godoc
// @Summary List payments received by the caller
// @Description List the caller's payments, optionally restricted to a calendar month
// @Tags Payments
// @Produce json
// @Param period query string false "Calendar month filter (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	period := c.Query("period")

	var (
		payments interface{}
		err      error
	)
	if period != "" {
		payments, err = h.service.ListForCallerByPeriod(c.Request.Context(), claims.Email, period)
	} else {
		payments, err = h.service.ListForCaller(c.Request.Context(), claims.Email)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, payments, nil)
}

// Export godoc
// @Summary Download a payment statement
// @Description Render the caller's payments as a CSV or PDF statement
// @Tags Payments
// @Produce octet-stream
// @Param period query string false "Calendar month filter (YYYY-MM)"
// @Param format query string false "Statement format (csv or pdf)" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /payments/statement [get]
func (h *PaymentHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	format := service.StatementFormat(c.DefaultQuery("format", string(service.StatementCSV)))

	st, err := h.service.ExportStatement(c.Request.Context(), claims.Email, c.Query("period"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", st.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, st.ContentType, st.Content)
}
