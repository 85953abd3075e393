package logic

import (
	"fmt"

	"github.com/barakahchain/charity-platform/internal/model"
	"gorm.io/gorm"
)

// DonationLogic 捐赠记录业务逻辑
type DonationLogic struct {
	db *gorm.DB
}

// NewDonationLogic 创建捐赠记录业务逻辑
func NewDonationLogic(db *gorm.DB) *DonationLogic {
	return &DonationLogic{db: db}
}

// GetProjectDonations 获取项目捐赠记录
func (d *DonationLogic) GetProjectDonations(projectId int64, page, pageSize int) ([]model.DonationModel, int64, error) {
	var donations []model.DonationModel
	var total int64

	if err := d.db.Model(&model.DonationModel{}).Where("project_id = ?", projectId).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取捐赠总数失败: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := d.db.Where("project_id = ?", projectId).
		Offset(offset).
		Limit(pageSize).
		Order("block_num DESC, created_at DESC").
		Find(&donations).Error; err != nil {
		return nil, 0, fmt.Errorf("获取捐赠记录失败: %w", err)
	}

	return donations, total, nil
}

// GetDonationStats 获取项目捐赠统计信息
func (d *DonationLogic) GetDonationStats(projectId int64) (map[string]interface{}, error) {
	var stats struct {
		TotalDonations int64   `json:"total_donations"`
		TotalAmount    float64 `json:"total_amount"`
		UniqueDonors   int64   `json:"unique_donors"`
		AverageAmount  float64 `json:"average_amount"`
	}

	// 总捐赠记录数
	if err := d.db.Model(&model.DonationModel{}).Where("project_id = ?", projectId).Count(&stats.TotalDonations).Error; err != nil {
		return nil, fmt.Errorf("获取总捐赠记录数失败: %w", err)
	}

	// 总捐赠金额
	if err := d.db.Model(&model.DonationModel{}).Where("project_id = ?", projectId).Select("COALESCE(SUM(amount), 0)").Scan(&stats.TotalAmount).Error; err != nil {
		return nil, fmt.Errorf("获取总捐赠金额失败: %w", err)
	}

	// 唯一捐赠者数量
	if err := d.db.Model(&model.DonationModel{}).Where("project_id = ?", projectId).Select("COUNT(DISTINCT donor_wallet_address)").Scan(&stats.UniqueDonors).Error; err != nil {
		return nil, fmt.Errorf("获取唯一捐赠者数量失败: %w", err)
	}

	// 平均捐赠金额
	if stats.TotalDonations > 0 {
		stats.AverageAmount = stats.TotalAmount / float64(stats.TotalDonations)
	}

	return map[string]interface{}{
		"total_donations": stats.TotalDonations,
		"total_amount":    stats.TotalAmount,
		"unique_donors":   stats.UniqueDonors,
		"average_amount":  stats.AverageAmount,
	}, nil
}
