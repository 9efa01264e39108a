package routers

import (
	"sync"

	"github.com/gin-gonic/gin"

	"search-server/internal/app/controllers"
	v1 "search-server/internal/app/controllers/v1"
	"search-server/internal/app/services"
)

var apiOnce sync.Once
var g *gin.Engine

// SetUp 需在 services.Init 之后调用
func SetUp() *gin.Engine {
	apiOnce.Do(func() {
		g = New(services.Metaso, services.Tools, services.SearchRecord, services.RateLimiter)
	})

	return g
}

// New 按给定服务组装路由
func New(searcher v1.Searcher, toolbox *services.Toolbox, history services.ISearchRecord, limiter services.Limiter) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	// 跨域中间件
	engine.Use(corsMiddleware())

	engine.GET("/health", controllers.Health)

	toolController := v1.NewToolController(toolbox)
	engine.GET("/tools", toolController.ListTools)
	engine.POST("/tools/call", toolController.CallTool)

	searchController := v1.NewSearchController(searcher, limiter)
	searchGroup := engine.Group("/search")
	{
		searchGroup.POST("", searchController.Search)
		searchGroup.GET("/stream", searchController.Stream)
	}

	historyController := v1.NewHistoryController(history)
	historyGroup := engine.Group("/history")
	{
		historyGroup.GET("", historyController.ListHistory)
		historyGroup.GET("/:id", historyController.GetHistory)
	}

	return engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}
