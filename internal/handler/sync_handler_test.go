package handler

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/barakahchain/charity-platform/internal/chain"
	"github.com/barakahchain/charity-platform/internal/model"
	"github.com/barakahchain/charity-platform/internal/reconcile"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	snapshot *chain.ProjectSnapshot
	events   []chain.DonationEvent
	err      error
}

func (f *fakeLedger) ReadProjectSnapshot(ctx context.Context, address string) (*chain.ProjectSnapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeLedger) ReadDonationEvents(ctx context.Context, address string) ([]chain.DonationEvent, error) {
	return f.events, f.err
}

type fakeEngine struct {
	project *model.ProjectModel
	err     error
}

func (f *fakeEngine) Reconcile(ctx context.Context, address string, snapshot *chain.ProjectSnapshot, donations []chain.DonationEvent) (*model.ProjectModel, error) {
	return f.project, f.err
}

func newSyncRouter(ledger LedgerReader, engine Reconciler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSyncHandler(ledger, engine)
	r.POST("/sync/:address", h.SyncProject)
	return r
}

func TestSyncProjectSuccess(t *testing.T) {
	ledger := &fakeLedger{snapshot: &chain.ProjectSnapshot{Goal: big.NewInt(1)}}
	engine := &fakeEngine{project: &model.ProjectModel{Id: 1, Title: "Water Well"}}
	router := newSyncRouter(ledger, engine)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "/sync/0xCAFE", nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"project"`)
	assert.Contains(t, w.Body.String(), "Water Well")
}

func TestSyncProjectLedgerFailureIsRetryable(t *testing.T) {
	ledger := &fakeLedger{err: errors.New("rpc unreachable")}
	router := newSyncRouter(ledger, &fakeEngine{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/sync/0xCAFE", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestSyncProjectValidationFailure(t *testing.T) {
	ledger := &fakeLedger{snapshot: &chain.ProjectSnapshot{}}
	engine := &fakeEngine{err: reconcile.ErrValidation}
	router := newSyncRouter(ledger, engine)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/sync/0xCAFE", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncProjectIdentityConflictSurfaces(t *testing.T) {
	ledger := &fakeLedger{snapshot: &chain.ProjectSnapshot{}}
	engine := &fakeEngine{err: reconcile.ErrIdentityConflict}
	router := newSyncRouter(ledger, engine)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/sync/0xCAFE", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
