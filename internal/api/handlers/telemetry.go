package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/engine"
	"github.com/langchou/fleetgazer/internal/models"
)

// IngestFuel 摄入加注事件
// POST /api/assets/:id/fuel
// 重复提交返回 409，事件不可变，无任何派生副作用
func (h *Handler) IngestFuel(c *gin.Context) {
	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	var ev models.FuelEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev.AssetID = assetID

	flags, err := h.telemetry.IngestFuel(c.Request.Context(), &ev)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrDuplicateEvent):
		c.JSON(http.StatusConflict, gin.H{"error": "Duplicate fuel event"})
		return
	case errors.Is(err, engine.ErrInvalidUnit), errors.Is(err, engine.ErrMissingRequiredField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		h.logger.Error("Failed to ingest fuel event", zap.Error(err), zap.Int64("asset_id", assetID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest fuel event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":      ev,
		"anomalies": flags,
	})
}

// IngestLocation 摄入单条位置事件
// POST /api/locations
func (h *Handler) IngestLocation(c *gin.Context) {
	var ev models.LocationEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transitions, err := h.telemetry.IngestLocation(c.Request.Context(), &ev)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrDuplicateEvent):
		c.JSON(http.StatusConflict, gin.H{"error": "Duplicate location event"})
		return
	case errors.Is(err, engine.ErrMissingRequiredField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		h.logger.Error("Failed to ingest location event", zap.Error(err), zap.Int64("asset_id", ev.AssetID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest location event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":        ev,
		"transitions": transitions,
	})
}

// IngestLocationBatch 批量摄入位置事件
// POST /api/locations/batch
// 整批只在超出上限时拒绝，单事件失败在逐事件报告中体现
func (h *Handler) IngestLocationBatch(c *gin.Context) {
	var events []*models.LocationEvent
	if err := c.ShouldBindJSON(&events); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.telemetry.IngestLocationBatch(c.Request.Context(), events)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ListFuelEvents 获取加注历史
func (h *Handler) ListFuelEvents(c *gin.Context) {
	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	limit, offset := pageParams(c)
	events, err := h.fuelRepo.ListByAsset(c.Request.Context(), assetID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list fuel events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list fuel events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

// DeleteFuelEvent 操作员显式删除加注记录
// DELETE /api/fuel/:id
// 已依赖该记录计算的后续派生字段不做级联重算
func (h *Handler) DeleteFuelEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid fuel event ID"})
		return
	}

	if err := h.fuelRepo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fuel event not found"})
		return
	}

	h.logger.Info("Fuel event deleted via API", zap.Int64("fuel_event_id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Fuel event deleted", "fuel_event_id": id})
}

// ListLocationEvents 获取位置历史
func (h *Handler) ListLocationEvents(c *gin.Context) {
	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	limit, offset := pageParams(c)
	events, err := h.locationRepo.ListByAsset(c.Request.Context(), assetID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list location events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list location events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

// ListTransitions 获取围栏穿越历史
func (h *Handler) ListTransitions(c *gin.Context) {
	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	limit, offset := pageParams(c)
	transitions, err := h.transitionRepo.ListByAsset(c.Request.Context(), assetID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list transitions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transitions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": transitions})
}

// ListAnomalies 获取异常标记
func (h *Handler) ListAnomalies(c *gin.Context) {
	assetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	limit, offset := pageParams(c)
	flags, err := h.anomalyRepo.ListByAsset(c.Request.Context(), assetID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list anomalies", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list anomalies"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": flags})
}

// AcknowledgeAnomaly 确认异常标记
// POST /api/anomalies/:id/ack
func (h *Handler) AcknowledgeAnomaly(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid anomaly ID"})
		return
	}

	if err := h.anomalyRepo.Acknowledge(c.Request.Context(), id, time.Now()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Anomaly not found or already acknowledged"})
		return
	}

	h.logger.Info("Anomaly acknowledged via API", zap.Int64("anomaly_id", id))
	c.JSON(http.StatusOK, gin.H{
		"message":    "Anomaly acknowledged",
		"anomaly_id": id,
	})
}
