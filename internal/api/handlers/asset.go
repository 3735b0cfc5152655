package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/models"
)

// CreateAsset 登记资产
func (h *Handler) CreateAsset(c *gin.Context) {
	var asset models.Asset
	if err := c.ShouldBindJSON(&asset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if asset.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}
	if asset.OdometerUnit != "" &&
		asset.OdometerUnit != models.OdometerUnitMile &&
		asset.OdometerUnit != models.OdometerUnitKilometer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Odometer unit must be mi or km"})
		return
	}

	if err := h.assetRepo.Create(c.Request.Context(), &asset); err != nil {
		h.logger.Error("Failed to create asset", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create asset"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": asset})
}

// ListAssets 获取资产列表
func (h *Handler) ListAssets(c *gin.Context) {
	assets, err := h.assetRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list assets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list assets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": assets})
}

// GetAsset 获取资产详情
func (h *Handler) GetAsset(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	asset, err := h.assetRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": asset})
}

// GetAssetState 获取资产"最新已知状态"投影
func (h *Handler) GetAssetState(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	st, err := h.projectionRepo.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load asset state", zap.Error(err), zap.Int64("asset_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load asset state"})
		return
	}
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset state not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": st})
}

// ListAssetStates 获取全量投影（车队总览）
func (h *Handler) ListAssetStates(c *gin.Context) {
	states, err := h.projectionRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list asset states", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list asset states"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": states})
}
