package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barakahchain/charity-platform/internal/chain"
	"github.com/barakahchain/charity-platform/internal/ipfs"
	"github.com/barakahchain/charity-platform/internal/logger"
	"github.com/barakahchain/charity-platform/internal/model"
	"gorm.io/gorm"
)

// MetadataStore 链下元数据读取，尽力而为的协作方
type MetadataStore interface {
	Fetch(ctx context.Context, cid string) (*ipfs.ProjectMetadata, error)
}

// Engine 链上到数据库的对账引擎
// 入口是幂等的 Reconcile：同一快照重复执行收敛到同一最终状态。
// 实例随进程启动构造，锁表的生命周期跟随实例
type Engine struct {
	db       *gorm.DB
	locks    *LockManager
	resolver *EntityResolver
	metadata MetadataStore
}

func NewEngine(db *gorm.DB, metadata MetadataStore) *Engine {
	return &Engine{
		db:       db,
		locks:    NewLockManager(),
		resolver: NewEntityResolver(db),
		metadata: metadata,
	}
}

// Reconcile 对账一个托管合约
// 同一地址并发调用只执行一次，其余调用方共享这次的结果。
// 持有者一旦开始执行就与触发请求的取消解耦，写到一半比写晚更糟
func (e *Engine) Reconcile(ctx context.Context, contractAddress string, snapshot *chain.ProjectSnapshot, donations []chain.DonationEvent) (project *model.ProjectModel, err error) {
	canonical := CanonicalAddress(contractAddress)
	if canonical == "" {
		return nil, fmt.Errorf("%w: 合约地址为空", ErrValidation)
	}

	flight, leader := e.locks.Acquire(canonical)
	if !leader {
		return flight.WaitCtx(ctx)
	}

	// 所有退出路径都释放租约；panic转为错误发布，
	// 否则等待者会把 (nil, nil) 当成成功结果
	defer func() {
		if r := recover(); r != nil {
			project, err = nil, fmt.Errorf("对账过程异常: %v", r)
		}
		e.locks.Release(canonical, flight, project, err)
	}()

	project, err = e.run(context.WithoutCancel(ctx), canonical, snapshot, donations)
	return project, err
}

// run 持有锁之后的完整对账流程
func (e *Engine) run(ctx context.Context, canonical string, snapshot *chain.ProjectSnapshot, donations []chain.DonationEvent) (*model.ProjectModel, error) {
	if err := ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}

	// 元数据失败只降级展示字段
	metadata := e.fetchMetadata(ctx, canonical, snapshot.MetaCid)

	// 参与方身份解析
	charityId, err := e.resolver.Resolve(snapshot.Charity, model.UserRoleCharity)
	if err != nil {
		return nil, err
	}

	var builderId *int64
	builderWallet := CanonicalAddress(snapshot.Builder)
	if builderWallet == "" || builderWallet == zeroAddress {
		// 执行方未设置时里程碑受益地址回退到机构钱包
		builderWallet = CanonicalAddress(snapshot.Charity)
	} else {
		id, err := e.resolver.Resolve(snapshot.Builder, model.UserRoleBuilder)
		if err != nil {
			return nil, err
		}
		builderId = &id
	}

	canonicalProject := Normalize(canonical, snapshot, metadata, time.Now())

	persisted, err := e.upsertProject(canonical, canonicalProject, charityId, builderId)
	if err != nil {
		return nil, err
	}

	// 子同步失败不回滚项目行，靠下一次幂等重试自愈
	if err := e.syncMilestones(persisted.Id, snapshot.Milestones, metadata, builderWallet); err != nil {
		return nil, fmt.Errorf("同步里程碑失败: %w", err)
	}

	inserted, err := e.syncDonations(persisted.Id, donations)
	if err != nil {
		return nil, fmt.Errorf("同步捐赠记录失败: %w", err)
	}
	if inserted > 0 {
		logger.Info("Ingested %d new donations for contract %s", inserted, canonical)
	}

	// 返回带里程碑的完整持久化记录
	var result model.ProjectModel
	if err := e.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).First(&result, persisted.Id).Error; err != nil {
		return nil, fmt.Errorf("读取项目失败: %w", err)
	}

	return &result, nil
}

// fetchMetadata 尽力而为地取链下元数据
func (e *Engine) fetchMetadata(ctx context.Context, canonical, cid string) *ipfs.ProjectMetadata {
	if e.metadata == nil || cid == "" {
		return nil
	}
	metadata, err := e.metadata.Fetch(ctx, cid)
	if err != nil {
		logger.Warn("Metadata fetch failed for contract %s cid %s: %v", canonical, cid, err)
		return nil
	}
	return metadata
}

// upsertProject 按合约地址幂等落库项目
func (e *Engine) upsertProject(canonical string, cp *CanonicalProject, charityId int64, builderId *int64) (*model.ProjectModel, error) {
	var existing model.ProjectModel
	err := e.db.Where("contract_address = ?", canonical).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		project := model.ProjectModel{
			Title:            cp.Title,
			Description:      cp.Description,
			MetaCid:          cp.MetaCid,
			CharityId:        charityId,
			BuilderId:        builderId,
			WalletAddress:    cp.WalletAddress,
			ContractTemplate: "milestone-escrow",
			TotalAmount:      cp.TotalAmount,
			FundedBalance:    cp.FundedBalance,
			Status:           cp.Status,
			ContractAddress:  canonical,
			Deadline:         cp.Deadline,
			DeadlineEnabled:  cp.DeadlineEnabled,
		}
		createErr := e.db.Create(&project).Error
		if createErr == nil {
			return &project, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("创建项目失败: %w", createErr)
		}
		// 并发插入撞自然键，回到更新路径
		if err := e.db.Where("contract_address = ?", canonical).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("项目约束冲突后查询失败: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	// paused 是管理员状态，只有链上completed能覆盖它
	status := cp.Status
	if existing.Status == model.ProjectStatusPaused && status != model.ProjectStatusCompleted {
		status = model.ProjectStatusPaused
	}

	updates := map[string]interface{}{
		"title":            cp.Title,
		"description":      cp.Description,
		"meta_cid":         cp.MetaCid,
		"charity_id":       charityId,
		"builder_id":       builderId,
		"wallet_address":   cp.WalletAddress,
		"total_amount":     cp.TotalAmount,
		"funded_balance":   cp.FundedBalance,
		"status":           status,
		"deadline":         cp.Deadline,
		"deadline_enabled": cp.DeadlineEnabled,
	}
	if err := e.db.Model(&existing).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("更新项目失败: %w", err)
	}

	return &existing, nil
}
