package logic

import (
	"errors"
	"fmt"

	"github.com/barakahchain/charity-platform/internal/model"
	"github.com/barakahchain/charity-platform/internal/reconcile"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// GetProjects 获取项目列表
func (p *ProjectLogic) GetProjects(status string, page, pageSize int) ([]model.ProjectModel, int64, error) {
	var projects []model.ProjectModel
	var total int64

	query := p.db.Model(&model.ProjectModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目列表失败: %w", err)
	}

	return projects, total, nil
}

// GetProject 获取项目详情
func (p *ProjectLogic) GetProject(id int64) (*model.ProjectModel, error) {
	var project model.ProjectModel
	if err := p.db.Preload("Milestones", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("项目不存在")
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}

	return &project, nil
}

// GetProjectByAddress 按合约地址获取项目
func (p *ProjectLogic) GetProjectByAddress(contractAddress string) (*model.ProjectModel, error) {
	var project model.ProjectModel
	canonical := reconcile.CanonicalAddress(contractAddress)
	if err := p.db.Where("contract_address = ?", canonical).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("项目不存在")
		}
		return nil, fmt.Errorf("获取项目失败: %w", err)
	}

	return &project, nil
}

// ListContractAddresses 列出所有项目的合约地址，供定时扫描使用
func (p *ProjectLogic) ListContractAddresses() ([]string, error) {
	var addresses []string
	if err := p.db.Model(&model.ProjectModel{}).
		Order("id ASC").
		Pluck("contract_address", &addresses).Error; err != nil {
		return nil, fmt.Errorf("获取合约地址列表失败: %w", err)
	}
	return addresses, nil
}

// GetProjectStats 获取项目统计信息
func (p *ProjectLogic) GetProjectStats(id int64) (map[string]interface{}, error) {
	var stats struct {
		ProjectId     int64   `json:"project_id"`
		FundedBalance float64 `json:"funded_balance"`
		TotalAmount   float64 `json:"total_amount"`
		Status        string  `json:"status"`
		DonorCount    int64   `json:"donor_count"`
		DonationCount int64   `json:"donation_count"`
	}

	err := p.db.Raw(`
		SELECT
			p.id as project_id,
			p.funded_balance,
			p.total_amount,
			p.status,
			COALESCE(donor_stats.donor_count, 0) as donor_count,
			COALESCE(donation_stats.donation_count, 0) as donation_count
		FROM project p
		LEFT JOIN (
			SELECT
				project_id,
				COUNT(DISTINCT donor_wallet_address) as donor_count
			FROM donation
			WHERE project_id = ?
			GROUP BY project_id
		) donor_stats ON p.id = donor_stats.project_id
		LEFT JOIN (
			SELECT
				project_id,
				COUNT(*) as donation_count
			FROM donation
			WHERE project_id = ?
			GROUP BY project_id
		) donation_stats ON p.id = donation_stats.project_id
		WHERE p.id = ?
	`, id, id, id).Scan(&stats).Error

	if err != nil {
		return nil, fmt.Errorf("获取项目统计信息失败: %w", err)
	}

	if stats.ProjectId == 0 {
		return nil, errors.New("项目不存在")
	}

	// 计算筹款进度
	fundedPercentage := float64(0)
	if stats.TotalAmount > 0 {
		fundedPercentage = stats.FundedBalance / stats.TotalAmount * 100
	}

	return map[string]interface{}{
		"project_id":        stats.ProjectId,
		"funded_balance":    stats.FundedBalance,
		"total_amount":      stats.TotalAmount,
		"funded_percentage": fundedPercentage,
		"donor_count":       stats.DonorCount,
		"donation_count":    stats.DonationCount,
		"status":            stats.Status,
	}, nil
}

// DeleteProject 管理员级联删除项目及其里程碑和捐赠记录，不留孤儿行
func (p *ProjectLogic) DeleteProject(id int64) error {
	var project model.ProjectModel
	if err := p.db.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("项目不存在")
		}
		return fmt.Errorf("查询项目失败: %w", err)
	}

	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.MilestoneModel{}).Error; err != nil {
			return fmt.Errorf("删除里程碑失败: %w", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&model.DonationModel{}).Error; err != nil {
			return fmt.Errorf("删除捐赠记录失败: %w", err)
		}
		if err := tx.Delete(&model.ProjectModel{}, id).Error; err != nil {
			return fmt.Errorf("删除项目失败: %w", err)
		}
		return nil
	})
}
