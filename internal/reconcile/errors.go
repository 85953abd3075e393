package reconcile

import (
	"errors"
)

// 引擎错误类型，调用方用 errors.Is 区分
var (
	// ErrLedgerRead 链上数据不可达，调用方可重试
	ErrLedgerRead = errors.New("链上数据读取失败")

	// ErrIdentityConflict 钱包地址约束冲突重试后仍无法解决，
	// 说明一个钱包对应一个用户的核心不变量被破坏，必须向上抛出
	ErrIdentityConflict = errors.New("钱包身份冲突")

	// ErrValidation 快照数据不合法，拒绝写入
	ErrValidation = errors.New("快照数据校验失败")

	// ErrLockWait 等待同步锁本身失败
	ErrLockWait = errors.New("等待同步锁失败")
)
