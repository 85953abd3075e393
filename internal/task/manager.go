package task

import (
	"context"

	"github.com/barakahchain/charity-platform/internal/chain"
	"github.com/barakahchain/charity-platform/internal/config"
	"github.com/barakahchain/charity-platform/internal/logger"
	"github.com/barakahchain/charity-platform/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// LedgerReader 链上状态读取协作方
type LedgerReader interface {
	ReadProjectSnapshot(ctx context.Context, address string) (*chain.ProjectSnapshot, error)
	ReadDonationEvents(ctx context.Context, address string) ([]chain.DonationEvent, error)
}

// Reconciler 对账引擎入口
type Reconciler interface {
	Reconcile(ctx context.Context, address string, snapshot *chain.ProjectSnapshot, donations []chain.DonationEvent) (*model.ProjectModel, error)
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	ledger    LedgerReader
	engine    Reconciler
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, ledger LedgerReader, engine Reconciler, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		ledger:    ledger,
		engine:    engine,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, ledger LedgerReader, engine Reconciler, cfg *config.Config) *Manager {
	manager := NewManager(db, ledger, engine, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	// 注册全量对账扫描任务
	m.RegisterSyncSweepJob()
}

// RegisterSyncSweepJob 注册全量对账扫描任务
func (m *Manager) RegisterSyncSweepJob() {
	job := NewSyncSweepJob(m.db, m.ledger, m.engine, m.config)

	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
