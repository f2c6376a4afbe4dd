package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"familytree_go/internal/model"
)

var allowedImageTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadService stores member photos on local disk and hands back the URL
// the document keeps in photoUrl. It is the blob-store boundary; nothing
// else depends on where the bytes live.
type UploadService struct {
	uploadDir string
	maxSize   int64
}

// NewUploadService creates the upload directory if needed.
func NewUploadService(uploadDir string, maxSize int64) (*UploadService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %v", err)
	}
	return &UploadService{uploadDir: uploadDir, maxSize: maxSize}, nil
}

// UploadFile validates and stores one image, returning its URL.
func (s *UploadService) UploadFile(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageTypes[ext] {
		return "", model.NewError(model.ErrUpload, "unsupported image type", nil)
	}
	if file.Size > s.maxSize {
		return "", model.NewError(model.ErrUpload, fmt.Sprintf("image exceeds %d bytes", s.maxSize), nil)
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	dst, err := os.Create(filepath.Join(s.uploadDir, filename))
	if err != nil {
		return "", model.NewError(model.ErrUpload, "failed to create file", err)
	}
	defer dst.Close()

	src, err := file.Open()
	if err != nil {
		return "", model.NewError(model.ErrUpload, "failed to open upload", err)
	}
	defer src.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", model.NewError(model.ErrUpload, "failed to write file", err)
	}
	return s.FileURL(filename), nil
}

// DeleteFile removes a previously uploaded file by URL.
func (s *UploadService) DeleteFile(url string) error {
	filename := filepath.Base(url)
	return os.Remove(filepath.Join(s.uploadDir, filename))
}

// FileURL maps a stored filename to its public URL.
func (s *UploadService) FileURL(filename string) string {
	return fmt.Sprintf("/uploads/%s", filename)
}

// Dir returns the directory served as static files.
func (s *UploadService) Dir() string {
	return s.uploadDir
}
