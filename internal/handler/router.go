// Package handler wires the HTTP surface: REST endpoints for members and
// layout, auth, photo upload, the websocket realtime feed and metrics.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"familytree_go/internal/middleware"
	"familytree_go/internal/model"
	"familytree_go/internal/service"
)

// NewRouter assembles the gin engine.
func NewRouter(
	auth *service.AuthService,
	family *service.FamilyService,
	upload *service.UploadService,
	loadTimeout time.Duration,
	logger *zap.Logger,
) *gin.Engine {
	registerValidators()

	r := gin.Default()

	r.Static("/uploads", upload.Dir())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := NewAuthHandler(auth)
	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/auth/guest", authHandler.Guest)

	memberHandler := NewMemberHandler(family, logger)
	uploadHandler := NewUploadHandler(upload)
	wsHandler := NewWSHandler(family, loadTimeout, logger)

	api := r.Group("/api", middleware.AuthMiddleware(auth))
	{
		api.GET("/members", memberHandler.List)
		api.GET("/members/:id", memberHandler.Detail)
		api.POST("/members", memberHandler.Save)
		api.DELETE("/members/:id", memberHandler.Delete)
		api.GET("/tree/rows", memberHandler.Rows)
		api.POST("/tree/connectors", memberHandler.Connectors)
		api.POST("/upload", uploadHandler.Upload)
		api.GET("/ws", wsHandler.Serve)
	}

	return r
}

// registerValidators adds the isodate rule used by the member payload
// binding tags.
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.Parse(model.DateLayout, s)
		return err == nil
	})
}

// respondError maps a classified application error to an HTTP status.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch model.CodeOf(err) {
	case model.ErrValidation:
		status = http.StatusBadRequest
	case model.ErrNotFound:
		status = http.StatusNotFound
	case model.ErrAuthentication:
		status = http.StatusUnauthorized
	case model.ErrTimeout:
		status = http.StatusGatewayTimeout
	case model.ErrPersistence, model.ErrUpload:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
