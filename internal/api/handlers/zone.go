package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/models"
)

// CreateZone 创建围栏
func (h *Handler) CreateZone(c *gin.Context) {
	var zone models.Zone
	if err := c.ShouldBindJSON(&zone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validateZone(&zone); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := h.zoneRepo.Create(c.Request.Context(), &zone); err != nil {
		h.logger.Error("Failed to create zone", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create zone"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": zone})
}

// ListZones 获取围栏列表
func (h *Handler) ListZones(c *gin.Context) {
	zones, err := h.zoneRepo.ListActive(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list zones", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list zones"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": zones})
}

// GetZone 获取围栏详情
func (h *Handler) GetZone(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zone ID"})
		return
	}

	zone, err := h.zoneRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Zone not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": zone})
}

// UpdateZone 更新围栏
// 只影响之后摄入的事件，历史解析结果不回算
func (h *Handler) UpdateZone(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zone ID"})
		return
	}

	var zone models.Zone
	if err := c.ShouldBindJSON(&zone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	zone.ID = id
	if msg := validateZone(&zone); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if err := h.zoneRepo.Update(c.Request.Context(), &zone); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Zone not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": zone})
}

// DeleteZone 删除围栏
func (h *Handler) DeleteZone(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zone ID"})
		return
	}

	if err := h.zoneRepo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Zone not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Zone deleted", "zone_id": id})
}

func validateZone(z *models.Zone) string {
	if z.Name == "" {
		return "Name is required"
	}
	if z.RadiusM <= 0 {
		return "Radius must be positive"
	}
	if z.Latitude < -90 || z.Latitude > 90 || z.Longitude < -180 || z.Longitude > 180 {
		return "Coordinate out of range"
	}
	return ""
}
