package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/barakahchain/charity-platform/internal/model"
)

// Flight 一次进行中的对账
// 持有者执行完整流程，等待者在done上阻塞并共享同一份结果
type Flight struct {
	done    chan struct{}
	project *model.ProjectModel
	err     error
}

// Wait 阻塞至持有者完成，返回与持有者相同的结果
func (f *Flight) Wait() (*model.ProjectModel, error) {
	<-f.done
	return f.project, f.err
}

// WaitCtx 带取消的等待
// 等待者放弃不影响持有者，在途的对账照常完成落库
func (f *Flight) WaitCtx(ctx context.Context) (*model.ProjectModel, error) {
	select {
	case <-f.done:
		return f.project, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrLockWait, ctx.Err())
	}
}

// LockManager 按合约地址互斥的单飞锁
// 同一地址同时只允许一次对账在途，后到的调用方不排队也不重复执行，
// 只等待在途那次的结果。进程内map实现，接口上可替换为带TTL的分布式租约
type LockManager struct {
	mu       sync.Mutex
	inflight map[string]*Flight
}

func NewLockManager() *LockManager {
	return &LockManager{
		inflight: make(map[string]*Flight),
	}
}

// Acquire 尝试获取地址锁
// 返回true时调用方是持有者，必须在所有退出路径上调用Release，
// 泄漏租约会永久卡死该地址之后的全部同步；
// 返回false时调用方是等待者，只能在Flight上Wait
func (m *LockManager) Acquire(address string) (*Flight, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.inflight[address]; ok {
		return f, false
	}

	f := &Flight{done: make(chan struct{})}
	m.inflight[address] = f
	return f, true
}

// Release 发布结果并释放地址锁
// 先从map摘除再关闭done，新来的调用方要么看到结果要么成为新持有者
func (m *LockManager) Release(address string, f *Flight, project *model.ProjectModel, err error) {
	m.mu.Lock()
	delete(m.inflight, address)
	m.mu.Unlock()

	f.project = project
	f.err = err
	close(f.done)
}

// InFlight 当前在途的对账数量
func (m *LockManager) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight)
}
