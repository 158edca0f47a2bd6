package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classbridge/classbridge-api/internal/service"
	appErrors "github.com/classbridge/classbridge-api/pkg/errors"
	"github.com/classbridge/classbridge-api/pkg/response"
)

// TagHandler wires HTTP endpoints to the tag service.
type TagHandler struct {
	service *service.TagService
}

// NewTagHandler creates a new handler.
func NewTagHandler(svc *service.TagService) *TagHandler {
	return &TagHandler{service: svc}
}

// List godoc
// @Summary List tags of a class
// @Tags Tags
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/tags [get]
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.service.List(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tags, nil)
}

// Register godoc
// @Summary Attach a tag to a class
// @Tags Tags
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body service.TagRequest true "Tag payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{classId}/tags [post]
func (h *TagHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tag payload"))
		return
	}

	tag, err := h.service.Register(c.Request.Context(), claims.Email, c.Param("classId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, tag)
}

// Rename godoc
// @Summary Rename a tag
// @Tags Tags
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param tagId path string true "Tag ID"
// @Param payload body service.TagRequest true "Tag payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/tags/{tagId} [put]
func (h *TagHandler) Rename(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tag payload"))
		return
	}

	tag, err := h.service.Rename(c.Request.Context(), claims.Email, c.Param("classId"), c.Param("tagId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, tag, nil)
}

// Delete godoc
// @Summary Detach a tag from a class
// @Tags Tags
// @Produce json
// @Param classId path string true "Class ID"
// @Param tagId path string true "Tag ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/tags/{tagId} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.Email, c.Param("classId"), c.Param("tagId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
