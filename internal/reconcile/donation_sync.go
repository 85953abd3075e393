package reconcile

import (
	"errors"
	"fmt"

	"github.com/barakahchain/charity-platform/internal/chain"
	"github.com/barakahchain/charity-platform/internal/logger"
	"github.com/barakahchain/charity-platform/internal/model"
	"gorm.io/gorm"
)

// syncDonations 把新的Donated事件追加为捐赠行，返回本次插入数量
// tx_hash 是幂等键：事件流里的重复、乱序、重投递都不产生第二次入账
func (e *Engine) syncDonations(projectId int64, events []chain.DonationEvent) (int, error) {
	inserted := 0

	for _, event := range events {
		if event.TxHash == "" {
			return inserted, fmt.Errorf("%w: 捐赠事件缺少交易哈希", ErrValidation)
		}

		var count int64
		if err := e.db.Model(&model.DonationModel{}).Where("tx_hash = ?", event.TxHash).Count(&count).Error; err != nil {
			return inserted, fmt.Errorf("查询捐赠记录失败: %w", err)
		}
		if count > 0 {
			continue
		}

		donorWallet := CanonicalAddress(event.Donor)

		// 捐赠者身份解析失败不丢事件，donor_id留空等下次扫描补全
		var donorId *int64
		if id, err := e.resolver.Resolve(event.Donor, model.UserRoleDonor); err != nil {
			if errors.Is(err, ErrIdentityConflict) {
				return inserted, err
			}
			logger.Warn("Donor resolution failed for %s: %v", donorWallet, err)
		} else {
			donorId = &id
		}

		donation := model.DonationModel{
			ProjectId:          projectId,
			DonorId:            donorId,
			DonorWalletAddress: donorWallet,
			Amount:             WeiToDecimal(event.Amount),
			TxHash:             event.TxHash,
			BlockNum:           event.BlockNum,
		}

		if err := e.db.Create(&donation).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 并发方已入账同一笔交易
				continue
			}
			return inserted, fmt.Errorf("创建捐赠记录失败: %w", err)
		}
		inserted++
	}

	return inserted, nil
}
