package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz_web/internal/api/handlers"
	"quiz_web/internal/middleware"
	"quiz_web/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	setHandler := handlers.NewStudySetHandler(services.StudySet)
	summaryHandler := handlers.NewSummaryHandler(services.Summary)
	wsHandler := handlers.NewWebSocketHandler(services.Registry, services.StudySet)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 題目集相關
		sets := authorized.Group("/sets")
		{
			sets.GET("", setHandler.ListSets)   // 獲取題目集列表
			sets.POST("", setHandler.CreateSet) // 建立題目集
			sets.GET("/:id", setHandler.GetSet) // 獲取題目集內容
		}

		// 完賽紀錄查詢
		games := authorized.Group("/games")
		{
			games.GET("", summaryHandler.ListSummaries)       // 最近的遊戲摘要
			games.GET("/:roomId", summaryHandler.GetSummary)  // 單場遊戲摘要
		}

		// 測驗房間的 WebSocket 連接點
		authorized.GET("/ws", wsHandler.HandleWebSocket)
	}
}
