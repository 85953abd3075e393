package model

import (
	"time"
)

// UserModel 平台用户
// 既包括注册用户，也包括同步引擎按链上地址自动建档的影子用户，
// email 全局唯一，自动建档的用户使用地址派生的合成邮箱
type UserModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name  string   `json:"name" gorm:"not null"`
	Email string   `json:"email" gorm:"uniqueIndex;not null"`
	Role  UserRole `json:"role" gorm:"default:'donor'"`

	// 认证状态
	KycStatus KycStatus `json:"kyc_status" gorm:"default:'none'"`

	// 关联
	Wallets []WalletModel `json:"wallets,omitempty" gorm:"foreignKey:UserId"`
}

// UserRole 用户角色
type UserRole string

const (
	UserRoleDonor    UserRole = "donor"    // 捐赠者
	UserRoleCharity  UserRole = "charity"  // 慈善机构
	UserRoleBuilder  UserRole = "builder"  // 项目执行方
	UserRoleVerifier UserRole = "verifier" // 里程碑审核方
	UserRoleAdmin    UserRole = "admin"    // 平台管理员
	UserRoleSsb      UserRole = "ssb"      // 沙里亚监督委员会
)

// KycStatus KYC认证状态
type KycStatus string

const (
	KycStatusNone     KycStatus = "none"     // 未认证
	KycStatusPending  KycStatus = "pending"  // 审核中
	KycStatusVerified KycStatus = "verified" // 已认证
	KycStatusRejected KycStatus = "rejected" // 已拒绝
)

// TableName 自定义表名
func (UserModel) TableName() string {
	return "user"
}
