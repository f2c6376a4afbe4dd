package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"familytree_go/internal/model"
	"familytree_go/internal/service"
)

// UploadHandler accepts member photos and returns the stored URL.
type UploadHandler struct {
	upload *service.UploadService
}

// NewUploadHandler creates the handler.
func NewUploadHandler(upload *service.UploadService) *UploadHandler {
	return &UploadHandler{upload: upload}
}

// Upload stores one image from the `photo` form field.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		respondError(c, model.NewError(model.ErrUpload, "photo file is required", err))
		return
	}
	url, err := h.upload.UploadFile(file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
