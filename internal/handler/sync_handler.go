package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/barakahchain/charity-platform/internal/chain"
	"github.com/barakahchain/charity-platform/internal/logger"
	"github.com/barakahchain/charity-platform/internal/model"
	"github.com/barakahchain/charity-platform/internal/reconcile"
	"github.com/gin-gonic/gin"
)

// LedgerReader 链上状态读取协作方
type LedgerReader interface {
	ReadProjectSnapshot(ctx context.Context, address string) (*chain.ProjectSnapshot, error)
	ReadDonationEvents(ctx context.Context, address string) ([]chain.DonationEvent, error)
}

// Reconciler 对账引擎入口
type Reconciler interface {
	Reconcile(ctx context.Context, address string, snapshot *chain.ProjectSnapshot, donations []chain.DonationEvent) (*model.ProjectModel, error)
}

type SyncHandler struct {
	ledger LedgerReader
	engine Reconciler
}

func NewSyncHandler(ledger LedgerReader, engine Reconciler) *SyncHandler {
	return &SyncHandler{
		ledger: ledger,
		engine: engine,
	}
}

// SyncProject 手动触发一次合约对账
// 读链失败对调用方是可重试错误，引擎本身不做链级重试
func (h *SyncHandler) SyncProject(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "合约地址不能为空"})
		return
	}

	ctx := c.Request.Context()

	snapshot, err := h.ledger.ReadProjectSnapshot(ctx, address)
	if err != nil {
		logger.Error("Snapshot read failed for %s: %v", address, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "链上数据读取失败，请稍后重试"})
		return
	}

	donations, err := h.ledger.ReadDonationEvents(ctx, address)
	if err != nil {
		logger.Error("Donation events read failed for %s: %v", address, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "链上事件读取失败，请稍后重试"})
		return
	}

	project, err := h.engine.Reconcile(ctx, address, snapshot, donations)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, reconcile.ErrIdentityConflict):
			// 核心不变量被破坏，必须大声失败
			logger.Error("Identity conflict during sync of %s: %v", address, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "同步完成",
		"project": project,
	})
}
