package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/barakahchain/charity-platform/internal/chain"
	"github.com/barakahchain/charity-platform/internal/ipfs"
	"github.com/barakahchain/charity-platform/internal/model"
	"gorm.io/gorm"
)

// syncMilestones 对齐链上里程碑数组和库内里程碑行
// 身份键是 (project_id, order_index)，不按金额匹配：两个里程碑金额可能相同。
// 链上数据只权威决定 amount 和 released=true 时的 paid 状态，
// 链下工作流状态(pending→submitted→verified)绝不被回退
func (e *Engine) syncMilestones(projectId int64, states []chain.MilestoneState, metadata *ipfs.ProjectMetadata, builderWallet string) error {
	for i, state := range states {
		var existing model.MilestoneModel
		err := e.db.Where("project_id = ? AND order_index = ?", projectId, i).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			created, createErr := e.createMilestone(projectId, i, state, metadata, builderWallet)
			if createErr != nil {
				return createErr
			}
			if created {
				continue
			}
			// 并发插入撞 (project_id, order_index)，改走更新路径
			if err := e.db.Where("project_id = ? AND order_index = ?", projectId, i).First(&existing).Error; err != nil {
				return fmt.Errorf("里程碑约束冲突后查询失败: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("查询里程碑失败: %w", err)
		}

		if err := e.updateMilestone(&existing, state); err != nil {
			return err
		}
	}

	return nil
}

// createMilestone 插入新里程碑行，返回是否插入成功
func (e *Engine) createMilestone(projectId int64, index int, state chain.MilestoneState, metadata *ipfs.ProjectMetadata, builderWallet string) (bool, error) {
	status := model.MilestoneStatusPending
	var verifiedAt *time.Time
	if state.Released {
		// 首次观察就已放款，直接落paid
		status = model.MilestoneStatusPaid
		now := time.Now()
		verifiedAt = &now
	}

	milestone := model.MilestoneModel{
		ProjectId:          projectId,
		OrderIndex:         index,
		Description:        milestoneDescription(metadata, index),
		Amount:             WeiToDecimal(state.Amount),
		BeneficiaryAddress: milestoneBeneficiary(metadata, index, builderWallet),
		Status:             status,
		VerifiedAt:         verifiedAt,
	}

	err := e.db.Create(&milestone).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	return false, fmt.Errorf("创建里程碑失败: %w", err)
}

// updateMilestone 只更新链上权威决定的字段
func (e *Engine) updateMilestone(existing *model.MilestoneModel, state chain.MilestoneState) error {
	updates := map[string]interface{}{}

	amount := WeiToDecimal(state.Amount)
	if existing.Amount != amount {
		updates["amount"] = amount
	}

	// released 翻转为true时推进到paid；反向永不发生，
	// 链上还没观察到放款不代表链下verified/submitted要回退
	if state.Released && existing.Status != model.MilestoneStatusPaid {
		updates["status"] = model.MilestoneStatusPaid
		if existing.VerifiedAt == nil {
			now := time.Now()
			updates["verified_at"] = &now
		}
	}

	if len(updates) == 0 {
		return nil
	}

	if err := e.db.Model(existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新里程碑失败: %w", err)
	}
	return nil
}
