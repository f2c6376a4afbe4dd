package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"familytree_go/internal/middleware"
	"familytree_go/internal/model"
	"familytree_go/internal/service"
	"familytree_go/internal/tree"
)

// MemberHandler serves member CRUD and the generational layout.
type MemberHandler struct {
	family *service.FamilyService
	logger *zap.Logger
}

// NewMemberHandler creates the handler.
func NewMemberHandler(family *service.FamilyService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{family: family, logger: logger}
}

// List returns the user's full member set.
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.family.Members(c.Request.Context(), middleware.UID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Detail returns one member plus the read-time derivations: siblings and
// age.
func (h *MemberHandler) Detail(c *gin.Context) {
	uid := middleware.UID(c)
	member, err := h.family.Member(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	members, err := h.family.Members(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"member":   member,
		"siblings": tree.Siblings(members, *member),
	}
	if age, ok := member.AgeAt(time.Now()); ok {
		resp["age"] = age
	}
	c.JSON(http.StatusOK, resp)
}

// Save creates or updates one member. The payload is the fully specified
// desired state; the service patches companions to keep relationships
// symmetric.
func (h *MemberHandler) Save(c *gin.Context) {
	var rec model.Member
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.family.Save(c.Request.Context(), middleware.UID(c), rec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": saved})
}

// Delete removes one member and every reference to it.
func (h *MemberHandler) Delete(c *gin.Context) {
	if err := h.family.Delete(c.Request.Context(), middleware.UID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Rows returns the generational layout of the current member set.
func (h *MemberHandler) Rows(c *gin.Context) {
	members, err := h.family.Members(c.Request.Context(), middleware.UID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": tree.ComputeRows(members)})
}

type connectorsRequest struct {
	Positions map[string]tree.Position `json:"positions" binding:"required"`
}

// Connectors computes connector line segments from measured card positions.
// The position map may be partial while the page is still settling; groups
// without complete measurements get no lines this pass.
func (h *MemberHandler) Connectors(c *gin.Context) {
	var req connectorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	members, err := h.family.Members(c.Request.Context(), middleware.UID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	segments := tree.ComputeConnectors(members, req.Positions)
	c.JSON(http.StatusOK, gin.H{"segments": segments})
}
