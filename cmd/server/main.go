package main

import (
	"log"

	"github.com/barakahchain/charity-platform/internal/chain"
	"github.com/barakahchain/charity-platform/internal/config"
	"github.com/barakahchain/charity-platform/internal/database"
	"github.com/barakahchain/charity-platform/internal/ipfs"
	"github.com/barakahchain/charity-platform/internal/logger"
	"github.com/barakahchain/charity-platform/internal/reconcile"
	"github.com/barakahchain/charity-platform/internal/router"
	"github.com/barakahchain/charity-platform/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			log.Fatalf("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化链上客户端
	chainClient, err := chain.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize chain client: %v", err)
	}

	// 初始化IPFS客户端
	ipfsClient := ipfs.New(cfg.Ipfs)

	// 构造对账引擎
	engine := reconcile.NewEngine(db, ipfsClient)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, chainClient, engine, cfg)

	// 启动定时任务
	manager := task.Start(db, chainClient, engine, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
