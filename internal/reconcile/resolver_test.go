package reconcile

import (
	"strings"
	"sync"
	"testing"

	"github.com/barakahchain/charity-platform/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const donorAddress = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

func TestResolveCreatesUserAndWallet(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	userId, err := r.Resolve(donorAddress, model.UserRoleDonor)
	require.NoError(t, err)
	require.NotZero(t, userId)

	var user model.UserModel
	require.NoError(t, db.First(&user, userId).Error)
	assert.Equal(t, "ab5801a7@onchain.donor", user.Email)
	assert.Equal(t, model.UserRoleDonor, user.Role)
	assert.Equal(t, model.KycStatusNone, user.KycStatus)

	var wallet model.WalletModel
	require.NoError(t, db.Where("user_id = ?", userId).First(&wallet).Error)
	assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", wallet.Address)
	assert.True(t, wallet.IsPrimary)
	assert.Equal(t, model.WalletStatusActive, wallet.Status)
}

func TestResolveRepeatIsStable(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	first, err := r.Resolve(donorAddress, model.UserRoleDonor)
	require.NoError(t, err)

	// 重复解析以及大小写变体都命中同一个用户
	second, err := r.Resolve(donorAddress, model.UserRoleDonor)
	require.NoError(t, err)
	third, err := r.Resolve("0x"+strings.ToUpper(donorAddress[2:]), model.UserRoleDonor)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)

	var userCount, walletCount int64
	db.Model(&model.UserModel{}).Count(&userCount)
	db.Model(&model.WalletModel{}).Count(&walletCount)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), walletCount)
}

func TestResolveAttachesWalletToExistingUser(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	// 用户先于钱包建档的场景
	existing := model.UserModel{
		Name:  "Amanah Charity",
		Email: "ab5801a7@onchain.charity",
		Role:  model.UserRoleCharity,
	}
	require.NoError(t, db.Create(&existing).Error)

	userId, err := r.Resolve(donorAddress, model.UserRoleCharity)
	require.NoError(t, err)
	assert.Equal(t, existing.Id, userId)

	var wallet model.WalletModel
	require.NoError(t, db.Where("user_id = ?", userId).First(&wallet).Error)
	assert.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", wallet.Address)

	var userCount int64
	db.Model(&model.UserModel{}).Count(&userCount)
	assert.Equal(t, int64(1), userCount)
}

func TestResolveRevokedWalletKeepsIdentity(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	userId, err := r.Resolve(donorAddress, model.UserRoleDonor)
	require.NoError(t, err)

	// 钱包被标记撤销后身份映射不变，地址仍解析到原用户
	require.NoError(t, db.Model(&model.WalletModel{}).
		Where("user_id = ?", userId).
		Update("status", model.WalletStatusRevoked).Error)

	again, err := r.Resolve(donorAddress, model.UserRoleDonor)
	require.NoError(t, err)
	assert.Equal(t, userId, again)

	var userCount int64
	db.Model(&model.UserModel{}).Count(&userCount)
	assert.Equal(t, int64(1), userCount)
}

func TestResolveConcurrentSameAddress(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	const callers = 8
	ids := make([]int64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = r.Resolve(donorAddress, model.UserRoleDonor)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	// 不变量：一个地址在系统里只产生一个用户和一个钱包
	var userCount, walletCount int64
	db.Model(&model.UserModel{}).Count(&userCount)
	db.Model(&model.WalletModel{}).Count(&walletCount)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), walletCount)
}

func TestResolveDifferentRolesSeparateUsers(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	donorId, err := r.Resolve(donorAddress, model.UserRoleDonor)
	require.NoError(t, err)

	// 同一地址再以其他角色出现时走钱包热路径，不再建新用户
	charityId, err := r.Resolve(donorAddress, model.UserRoleCharity)
	require.NoError(t, err)
	assert.Equal(t, donorId, charityId)
}

func TestResolveSuffixRetryThenSucceeds(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	// 前两次用户插入强制撞唯一约束，第三次放行
	failures := 2
	var attempted []string
	err := db.Callback().Create().Before("gorm:create").Register("force_dup_user", func(tx *gorm.DB) {
		u, ok := tx.Statement.Dest.(*model.UserModel)
		if !ok {
			return
		}
		attempted = append(attempted, u.Email)
		if failures > 0 {
			failures--
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	})
	require.NoError(t, err)

	userId, err := r.Resolve(donorAddress, model.UserRoleDonor)
	require.NoError(t, err)

	// 撞约束时数字后缀顺次递增
	assert.Equal(t, []string{
		"ab5801a7@onchain.donor",
		"ab5801a71@onchain.donor",
		"ab5801a72@onchain.donor",
	}, attempted)

	var user model.UserModel
	require.NoError(t, db.First(&user, userId).Error)
	assert.Equal(t, "ab5801a72@onchain.donor", user.Email)
}

func TestResolveRetryExhaustionIsConflict(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	// 每次用户插入都撞约束，耗尽重试必须上抛身份冲突而不是死循环
	attempts := 0
	err := db.Callback().Create().Before("gorm:create").Register("force_dup_user", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*model.UserModel); ok {
			attempts++
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	})
	require.NoError(t, err)

	_, err = r.Resolve(donorAddress, model.UserRoleDonor)
	assert.ErrorIs(t, err, ErrIdentityConflict)
	assert.Equal(t, 10, attempts)
}

func TestResolveEmptyAddress(t *testing.T) {
	db := newTestDB(t)
	r := NewEntityResolver(db)

	_, err := r.Resolve("", model.UserRoleDonor)
	assert.ErrorIs(t, err, ErrValidation)
}
