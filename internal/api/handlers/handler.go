package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/repository"
	"github.com/langchou/fleetgazer/internal/service"
	"github.com/langchou/fleetgazer/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger         *zap.Logger
	assetRepo      *repository.AssetRepository
	fuelRepo       *repository.FuelRepository
	locationRepo   *repository.LocationRepository
	zoneRepo       *repository.ZoneRepository
	transitionRepo *repository.TransitionRepository
	anomalyRepo    *repository.AnomalyRepository
	projectionRepo *repository.ProjectionRepository
	telemetry      *service.TelemetryService
	wsHub          *ws.Hub
	upgrader       websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	assetRepo *repository.AssetRepository,
	fuelRepo *repository.FuelRepository,
	locationRepo *repository.LocationRepository,
	zoneRepo *repository.ZoneRepository,
	transitionRepo *repository.TransitionRepository,
	anomalyRepo *repository.AnomalyRepository,
	projectionRepo *repository.ProjectionRepository,
	telemetry *service.TelemetryService,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:         logger,
		assetRepo:      assetRepo,
		fuelRepo:       fuelRepo,
		locationRepo:   locationRepo,
		zoneRepo:       zoneRepo,
		transitionRepo: transitionRepo,
		anomalyRepo:    anomalyRepo,
		projectionRepo: projectionRepo,
		telemetry:      telemetry,
		wsHub:          wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 资产
		api.POST("/assets", h.CreateAsset)
		api.GET("/assets", h.ListAssets)
		api.GET("/assets/:id", h.GetAsset)
		api.GET("/assets/:id/state", h.GetAssetState)
		api.GET("/states", h.ListAssetStates)

		// 遥测摄入
		api.POST("/assets/:id/fuel", h.IngestFuel)
		api.POST("/locations", h.IngestLocation)
		api.POST("/locations/batch", h.IngestLocationBatch)

		// 历史
		api.GET("/assets/:id/fuel", h.ListFuelEvents)
		api.DELETE("/fuel/:id", h.DeleteFuelEvent)
		api.GET("/assets/:id/locations", h.ListLocationEvents)
		api.GET("/assets/:id/transitions", h.ListTransitions)
		api.GET("/assets/:id/anomalies", h.ListAnomalies)
		api.POST("/anomalies/:id/ack", h.AcknowledgeAnomaly)

		// 围栏
		api.POST("/zones", h.CreateZone)
		api.GET("/zones", h.ListZones)
		api.GET("/zones/:id", h.GetZone)
		api.PUT("/zones/:id", h.UpdateZone)
		api.DELETE("/zones/:id", h.DeleteZone)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}

// pageParams 解析分页参数
func pageParams(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage
}
