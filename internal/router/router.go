package router

import (
	"github.com/barakahchain/charity-platform/internal/config"
	"github.com/barakahchain/charity-platform/internal/handler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, ledger handler.LedgerReader, engine handler.Reconciler, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "charity-platform",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 项目相关路由
		projectHandler := handler.NewProjectHandler(db)
		milestoneHandler := handler.NewMilestoneHandler(db)
		projects := v1.Group("/projects")
		{
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)
			projects.GET("/:id/donations", projectHandler.GetProjectDonations)
			projects.GET("/:id/donations/stats", projectHandler.GetDonationStats)
			projects.GET("/:id/stats", projectHandler.GetProjectStats)
			projects.GET("/:id/milestones", milestoneHandler.GetProjectMilestones)
		}

		// 里程碑链下工作流
		milestones := v1.Group("/milestones")
		{
			milestones.POST("/:id/evidence", milestoneHandler.SubmitEvidence)
			milestones.POST("/:id/verify", milestoneHandler.VerifyMilestone)
			milestones.POST("/:id/reject", milestoneHandler.RejectMilestone)
		}

		// 手动触发对账
		syncHandler := handler.NewSyncHandler(ledger, engine)
		v1.POST("/sync/:address", syncHandler.SyncProject)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
