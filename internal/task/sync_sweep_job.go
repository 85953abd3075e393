package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/barakahchain/charity-platform/internal/config"
	"github.com/barakahchain/charity-platform/internal/logger"
	"github.com/barakahchain/charity-platform/internal/logic"
	"github.com/barakahchain/charity-platform/internal/reconcile"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// SyncSweepJob 全量对账扫描任务
// 定期把所有已知合约重新对账一遍，是失败子步骤的自愈通道，
// 过期项目的状态翻转也在这里随派生规则重算落库
type SyncSweepJob struct {
	db           *gorm.DB
	ledger       LedgerReader
	engine       Reconciler
	config       *config.Config
	projectLogic *logic.ProjectLogic
}

// NewSyncSweepJob 创建全量对账扫描任务
func NewSyncSweepJob(db *gorm.DB, ledger LedgerReader, engine Reconciler, cfg *config.Config) *SyncSweepJob {
	return &SyncSweepJob{
		db:           db,
		ledger:       ledger,
		engine:       engine,
		config:       cfg,
		projectLogic: logic.NewProjectLogic(db),
	}
}

// GetName 获取任务名称
func (j *SyncSweepJob) GetName() string {
	return "sync_sweep"
}

// GetSchedule 获取调度配置
func (j *SyncSweepJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Sync.Interval) * time.Second)
}

// Execute 执行任务
func (j *SyncSweepJob) Execute() {
	logger.Info("Starting sync sweep")

	addresses, err := j.projectLogic.ListContractAddresses()
	if err != nil {
		logger.Error("Failed to list contract addresses: %v", err)
		return
	}
	if len(addresses) == 0 {
		logger.Info("Sync sweep completed, no contracts to sync")
		return
	}

	workers := j.config.Sync.Workers
	if workers <= 0 {
		workers = 4
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		logger.Error("Failed to create sweep pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, failed := 0, 0

	for _, address := range addresses {
		addr := address
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if err := j.syncOne(addr); err != nil {
				logger.Warn("Sweep sync failed for %s: %v", addr, err)
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit sweep task for %s: %v", addr, err)
		}
	}

	wg.Wait()
	logger.Info("Sync sweep completed: %d succeeded, %d failed", succeeded, failed)
}

// syncOne 对账单个合约
func (j *SyncSweepJob) syncOne(address string) error {
	ctx := context.Background()

	snapshot, err := j.ledger.ReadProjectSnapshot(ctx, address)
	if err != nil {
		return fmt.Errorf("%w: %v", reconcile.ErrLedgerRead, err)
	}

	donations, err := j.ledger.ReadDonationEvents(ctx, address)
	if err != nil {
		return fmt.Errorf("%w: %v", reconcile.ErrLedgerRead, err)
	}

	_, err = j.engine.Reconcile(ctx, address, snapshot, donations)
	return err
}
