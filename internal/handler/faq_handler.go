package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classbridge/classbridge-api/internal/service"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
	"github.com/classbridge/classbridge-api/pkg/response"
)

// FAQHandler wires HTTP endpoints to the FAQ service.
type FAQHandler struct {
	service *service.FAQService
}

// NewFAQHandler creates a new handler.
func NewFAQHandler(svc *service.FAQService) *FAQHandler {
	return &FAQHandler{service: svc}
}

// List godoc
// @Summary List FAQs of a class
// @Tags FAQs
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/faqs [get]
func (h *FAQHandler) List(c *gin.Context) {
	faqs, err := h.service.List(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, faqs, nil)
}

// Register godoc
// @Summary Add an FAQ to a class
// @Tags FAQs
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body service.FAQRequest true "FAQ payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{classId}/faqs [post]
func (h *FAQHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faq payload"))
		return
	}

	faq, err := h.service.Register(c.Request.Context(), claims.Email, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, faq)
}

// Update godoc
// @Summary Update an FAQ
// @Tags FAQs
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param faqId path string true "FAQ ID"
// @Param payload body service.FAQRequest true "FAQ payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/faqs/{faqId} [put]
func (h *FAQHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.FAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faq payload"))
		return
	}

	faq, err := h.service.Update(c.Request.Context(), claims.Email, c.Param("classId"), c.Param("faqId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, faq, nil)
}

// Delete godoc
// @Summary Delete an FAQ
// @Tags FAQs
// @Produce json
// @Param classId path string true "Class ID"
// @Param faqId path string true "FAQ ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/faqs/{faqId} [delete]
func (h *FAQHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.Email, c.Param("classId"), c.Param("faqId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
