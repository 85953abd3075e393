package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/barakahchain/charity-platform/internal/model"
	"gorm.io/gorm"
)

// MilestoneLogic 里程碑链下工作流
// 状态只向前推进 pending→submitted→verified→paid，或横向到rejected，
// paid 由同步引擎根据链上released写入，这里永远到不了
type MilestoneLogic struct {
	db *gorm.DB
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB) *MilestoneLogic {
	return &MilestoneLogic{db: db}
}

// GetProjectMilestones 获取项目里程碑
func (m *MilestoneLogic) GetProjectMilestones(projectId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := m.db.Where("project_id = ?", projectId).
		Order("order_index ASC").
		Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("获取里程碑列表失败: %w", err)
	}

	return milestones, nil
}

// SubmitEvidence 提交里程碑完成证明
func (m *MilestoneLogic) SubmitEvidence(id int64, evidenceCid string) error {
	if evidenceCid == "" {
		return errors.New("证明CID不能为空")
	}

	milestone, err := m.getMilestone(id)
	if err != nil {
		return err
	}

	// rejected 之后允许重新提交
	if milestone.Status != model.MilestoneStatusPending && milestone.Status != model.MilestoneStatusRejected {
		return fmt.Errorf("里程碑当前状态 %s 不允许提交证明", milestone.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       model.MilestoneStatusSubmitted,
		"evidence_cid": evidenceCid,
		"submitted_at": &now,
	}

	if err := m.db.Model(milestone).Updates(updates).Error; err != nil {
		return fmt.Errorf("提交证明失败: %w", err)
	}
	return nil
}

// VerifyMilestone 审核通过里程碑
func (m *MilestoneLogic) VerifyMilestone(id int64, verifierId int64) error {
	milestone, err := m.getMilestone(id)
	if err != nil {
		return err
	}

	if milestone.Status != model.MilestoneStatusSubmitted {
		return fmt.Errorf("里程碑当前状态 %s 不允许审核", milestone.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      model.MilestoneStatusVerified,
		"verified_at": &now,
		"verifier_id": &verifierId,
	}

	if err := m.db.Model(milestone).Updates(updates).Error; err != nil {
		return fmt.Errorf("审核里程碑失败: %w", err)
	}
	return nil
}

// RejectMilestone 拒绝里程碑
func (m *MilestoneLogic) RejectMilestone(id int64, verifierId int64) error {
	milestone, err := m.getMilestone(id)
	if err != nil {
		return err
	}

	if milestone.Status != model.MilestoneStatusSubmitted {
		return fmt.Errorf("里程碑当前状态 %s 不允许拒绝", milestone.Status)
	}

	updates := map[string]interface{}{
		"status":      model.MilestoneStatusRejected,
		"verifier_id": &verifierId,
	}

	if err := m.db.Model(milestone).Updates(updates).Error; err != nil {
		return fmt.Errorf("拒绝里程碑失败: %w", err)
	}
	return nil
}

// getMilestone 按ID取里程碑
func (m *MilestoneLogic) getMilestone(id int64) (*model.MilestoneModel, error) {
	var milestone model.MilestoneModel
	if err := m.db.First(&milestone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("里程碑不存在")
		}
		return nil, fmt.Errorf("查询里程碑失败: %w", err)
	}
	return &milestone, nil
}
