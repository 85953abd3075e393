package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/barakahchain/charity-platform/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockManagerLeaderAndWaiter(t *testing.T) {
	m := NewLockManager()

	flight, leader := m.Acquire("0xabc")
	require.True(t, leader)

	// 同一地址第二个调用方成为等待者
	second, leader2 := m.Acquire("0xabc")
	require.False(t, leader2)
	require.Same(t, flight, second)

	project := &model.ProjectModel{Id: 7}
	m.Release("0xabc", flight, project, nil)

	got, err := second.Wait()
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Id)
	assert.Equal(t, 0, m.InFlight())
}

func TestLockManagerSharesError(t *testing.T) {
	m := NewLockManager()

	flight, leader := m.Acquire("0xabc")
	require.True(t, leader)

	waiter, _ := m.Acquire("0xabc")

	failure := errors.New("boom")
	m.Release("0xabc", flight, nil, failure)

	_, err := waiter.Wait()
	assert.ErrorIs(t, err, failure)
}

func TestLockManagerWaiterCancellation(t *testing.T) {
	m := NewLockManager()

	flight, leader := m.Acquire("0xabc")
	require.True(t, leader)

	waiter, _ := m.Acquire("0xabc")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 等待者退出不影响持有者，锁仍然在途
	_, err := waiter.WaitCtx(ctx)
	assert.ErrorIs(t, err, ErrLockWait)
	assert.Equal(t, 1, m.InFlight())

	m.Release("0xabc", flight, &model.ProjectModel{Id: 3}, nil)
	got, err := waiter.Wait()
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Id)
}

func TestLockManagerDifferentAddressesIndependent(t *testing.T) {
	m := NewLockManager()

	_, leaderA := m.Acquire("0xaaa")
	_, leaderB := m.Acquire("0xbbb")

	assert.True(t, leaderA)
	assert.True(t, leaderB)
	assert.Equal(t, 2, m.InFlight())
}

func TestLockManagerReleaseAllowsNextLeader(t *testing.T) {
	m := NewLockManager()

	flight, leader := m.Acquire("0xabc")
	require.True(t, leader)
	m.Release("0xabc", flight, nil, nil)

	// 释放后同一地址可以开始新的一轮
	_, leader = m.Acquire("0xabc")
	assert.True(t, leader)
}

func TestLockManagerConcurrentAcquire(t *testing.T) {
	m := NewLockManager()

	const callers = 32
	var leaders atomic.Int32
	var wg sync.WaitGroup

	results := make([]*model.ProjectModel, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			flight, leader := m.Acquire("0xabc")
			if leader {
				leaders.Add(1)
				time.Sleep(50 * time.Millisecond)
				m.Release("0xabc", flight, &model.ProjectModel{Id: 42}, nil)
				results[i] = &model.ProjectModel{Id: 42}
				return
			}
			results[i], errs[i] = flight.Wait()
		}(i)
	}
	wg.Wait()

	// 一段时间内只有一个持有者，其余全部拿到同一结果
	assert.Equal(t, int32(1), leaders.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, int64(42), results[i].Id)
	}
	assert.Equal(t, 0, m.InFlight())
}
