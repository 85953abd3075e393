package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/barakahchain/charity-platform/internal/model"
	"gorm.io/gorm"
)

// maxResolveAttempts 合成邮箱冲突的重试上限，超过则抛出身份冲突
const maxResolveAttempts = 10

// EntityResolver 钱包地址到平台用户的身份解析
// 首次观察到的地址自动建档，数据库唯一约束是并发下的最终裁决
type EntityResolver struct {
	db *gorm.DB
}

func NewEntityResolver(db *gorm.DB) *EntityResolver {
	return &EntityResolver{db: db}
}

// CanonicalAddress 地址归一化为小写，作为全系统的查找键
func CanonicalAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Resolve 把钱包地址解析为用户ID
// 查找顺序：钱包地址 → 合成邮箱 → 新建用户+钱包。
// 同一地址的并发首次解析依赖唯一约束兜底：插入撞约束时回到钱包查找重试，
// 重试耗尽才作为 ErrIdentityConflict 上抛
func (r *EntityResolver) Resolve(address string, role model.UserRole) (int64, error) {
	canonical := CanonicalAddress(address)
	if canonical == "" {
		return 0, fmt.Errorf("%w: 钱包地址为空", ErrValidation)
	}

	// 热路径：地址已有钱包记录
	if userId, ok, err := r.lookupWallet(canonical); err != nil {
		return 0, err
	} else if ok {
		return userId, nil
	}

	// 用户已存在但尚未关联这个钱包
	prefix := addressPrefix(canonical)
	baseEmail := syntheticEmail(prefix, role, 0)

	var user model.UserModel
	err := r.db.Where("email = ?", baseEmail).First(&user).Error
	if err == nil {
		return r.attachWallet(user.Id, canonical)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("查询用户失败: %w", err)
	}

	// 首次观察：建用户+钱包，邮箱撞唯一约束时换数字后缀重试
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		email := syntheticEmail(prefix, role, attempt)
		userId, err := r.createUserWithWallet(canonical, email, role)
		if err == nil {
			return userId, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("创建用户失败: %w", err)
		}

		// 约束冲突可能来自并发解析同一地址，先回到钱包查找
		if userId, ok, lookupErr := r.lookupWallet(canonical); lookupErr != nil {
			return 0, lookupErr
		} else if ok {
			return userId, nil
		}
	}

	return 0, fmt.Errorf("%w: 地址 %s 重试 %d 次后仍无法建档", ErrIdentityConflict, canonical, maxResolveAttempts)
}

// lookupWallet 按归一化地址查钱包
func (r *EntityResolver) lookupWallet(canonical string) (int64, bool, error) {
	var wallet model.WalletModel
	err := r.db.Where("address = ?", canonical).First(&wallet).Error
	if err == nil {
		return wallet.UserId, true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("查询钱包失败: %w", err)
}

// attachWallet 给已有用户补建钱包记录
func (r *EntityResolver) attachWallet(userId int64, canonical string) (int64, error) {
	wallet := model.WalletModel{
		UserId:  userId,
		Address: canonical,
		Status:  model.WalletStatusActive,
	}
	err := r.db.Create(&wallet).Error
	if err == nil {
		return userId, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发方已经建好，以库里那行为准
		if existingId, ok, lookupErr := r.lookupWallet(canonical); lookupErr == nil && ok {
			return existingId, nil
		}
		return 0, fmt.Errorf("%w: 地址 %s 钱包约束冲突后查无记录", ErrIdentityConflict, canonical)
	}
	return 0, fmt.Errorf("创建钱包失败: %w", err)
}

// createUserWithWallet 一个事务里建用户和主钱包
func (r *EntityResolver) createUserWithWallet(canonical, email string, role model.UserRole) (int64, error) {
	var userId int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		user := model.UserModel{
			Name:      "0x" + addressPrefix(canonical),
			Email:     email,
			Role:      role,
			KycStatus: model.KycStatusNone,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		wallet := model.WalletModel{
			UserId:    user.Id,
			Address:   canonical,
			IsPrimary: true,
			Status:    model.WalletStatusActive,
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}

		userId = user.Id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userId, nil
}

// addressPrefix 取地址去掉0x后的前8个字符
func addressPrefix(canonical string) string {
	trimmed := strings.TrimPrefix(canonical, "0x")
	if len(trimmed) > 8 {
		return trimmed[:8]
	}
	return trimmed
}

// syntheticEmail 地址派生的确定性合成邮箱，attempt>0 时追加数字后缀
func syntheticEmail(prefix string, role model.UserRole, attempt int) string {
	if attempt == 0 {
		return fmt.Sprintf("%s@onchain.%s", prefix, role)
	}
	return fmt.Sprintf("%s%d@onchain.%s", prefix, attempt, role)
}
