package reconcile

import (
	"fmt"
	"math/big"
	"time"

	"github.com/barakahchain/charity-platform/internal/chain"
	"github.com/barakahchain/charity-platform/internal/ipfs"
	"github.com/barakahchain/charity-platform/internal/model"
)

// zeroAddress 零地址，表示合约里该参与方未设置
const zeroAddress = "0x0000000000000000000000000000000000000000"

// CanonicalProject 快照归一化后的项目规范形态
type CanonicalProject struct {
	Title           string
	Description     string
	MetaCid         string
	WalletAddress   string
	TotalAmount     float64
	FundedBalance   float64
	Status          model.ProjectStatus
	Deadline        *time.Time
	DeadlineEnabled bool
}

// WeiToDecimal 链上定点整数转十进制金额，除以10^18
func WeiToDecimal(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f := new(big.Float).SetInt(v)
	f.Quo(f, big.NewFloat(1e18))
	out, _ := f.Float64()
	return out
}

// ValidateSnapshot 快照入库前的合法性检查
func ValidateSnapshot(snapshot *chain.ProjectSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: 快照为空", ErrValidation)
	}
	if snapshot.Goal == nil || snapshot.Goal.Sign() < 0 {
		return fmt.Errorf("%w: 目标金额缺失或为负", ErrValidation)
	}
	if snapshot.TotalDonated != nil && snapshot.TotalDonated.Sign() < 0 {
		return fmt.Errorf("%w: 已捐金额为负", ErrValidation)
	}
	// 截止时间是unix秒，超出int64会溢出成负时间戳
	if snapshot.Deadline != nil && (snapshot.Deadline.Sign() < 0 || !snapshot.Deadline.IsInt64()) {
		return fmt.Errorf("%w: 截止时间超出有效范围", ErrValidation)
	}
	if CanonicalAddress(snapshot.Charity) == "" || CanonicalAddress(snapshot.Charity) == zeroAddress {
		return fmt.Errorf("%w: 慈善机构地址缺失", ErrValidation)
	}

	// 里程碑金额之和不能超过目标金额
	sum := new(big.Int)
	for i, m := range snapshot.Milestones {
		if m.Amount == nil || m.Amount.Sign() < 0 {
			return fmt.Errorf("%w: 第%d个里程碑金额缺失或为负", ErrValidation, i)
		}
		sum.Add(sum, m.Amount)
	}
	if len(snapshot.Milestones) > 0 && sum.Cmp(snapshot.Goal) > 0 {
		return fmt.Errorf("%w: 里程碑金额之和超过目标金额", ErrValidation)
	}

	return nil
}

// Normalize 把链上快照和链下元数据合成项目规范形态，纯函数
// 元数据缺失只降级展示字段，绝不阻塞项目落库
func Normalize(contractAddress string, snapshot *chain.ProjectSnapshot, metadata *ipfs.ProjectMetadata, now time.Time) *CanonicalProject {
	canonical := CanonicalAddress(contractAddress)

	project := &CanonicalProject{
		MetaCid:         snapshot.MetaCid,
		WalletAddress:   CanonicalAddress(snapshot.Charity),
		TotalAmount:     WeiToDecimal(snapshot.Goal),
		FundedBalance:   WeiToDecimal(snapshot.TotalDonated),
		DeadlineEnabled: snapshot.DeadlineEnabled,
	}

	if snapshot.Deadline != nil && snapshot.Deadline.Sign() > 0 {
		deadline := time.Unix(snapshot.Deadline.Int64(), 0).UTC()
		project.Deadline = &deadline
	}

	project.Status = deriveStatus(snapshot.Completed, snapshot.DeadlineEnabled, project.Deadline, now)

	// 展示字段优先取元数据，缺失时用地址生成占位
	if metadata != nil && metadata.Title != "" {
		project.Title = metadata.Title
	} else {
		project.Title = placeholderTitle(canonical)
	}
	if metadata != nil {
		project.Description = metadata.Description
	}

	return project
}

// deriveStatus 派生项目状态
// completed 优先，其次 deadlineEnabled 且已过期，否则进行中
func deriveStatus(completed, deadlineEnabled bool, deadline *time.Time, now time.Time) model.ProjectStatus {
	if completed {
		return model.ProjectStatusCompleted
	}
	if deadlineEnabled && deadline != nil && now.After(*deadline) {
		return model.ProjectStatusExpired
	}
	return model.ProjectStatusActive
}

// placeholderTitle 元数据不可用时的占位标题
func placeholderTitle(canonical string) string {
	short := canonical
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("On-Chain Project %s", short)
}

// milestoneDescription 里程碑描述按位置取元数据，缺失时生成占位
func milestoneDescription(metadata *ipfs.ProjectMetadata, index int) string {
	if metadata != nil && index < len(metadata.Milestones) {
		m := metadata.Milestones[index]
		if m.Description != "" {
			return m.Description
		}
		if m.Title != "" {
			return m.Title
		}
	}
	return fmt.Sprintf("Milestone %d", index+1)
}

// milestoneBeneficiary 里程碑受益地址优先取元数据，回退到项目执行方钱包
func milestoneBeneficiary(metadata *ipfs.ProjectMetadata, index int, builderWallet string) string {
	if metadata != nil && index < len(metadata.Milestones) && metadata.Milestones[index].Beneficiary != "" {
		return CanonicalAddress(metadata.Milestones[index].Beneficiary)
	}
	return builderWallet
}
