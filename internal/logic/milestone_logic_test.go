package logic

import (
	"testing"

	"github.com/barakahchain/charity-platform/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitEvidence(t *testing.T) {
	db := newTestDB(t)
	m := NewMilestoneLogic(db)
	project := seedProject(t, db, "0xaaa1")
	milestone := seedMilestone(t, db, project.Id, 0, model.MilestoneStatusPending)

	require.NoError(t, m.SubmitEvidence(milestone.Id, "QmEvidence"))

	var got model.MilestoneModel
	require.NoError(t, db.First(&got, milestone.Id).Error)
	assert.Equal(t, model.MilestoneStatusSubmitted, got.Status)
	assert.Equal(t, "QmEvidence", got.EvidenceCid)
	assert.NotNil(t, got.SubmittedAt)
}

func TestSubmitEvidenceRequiresCid(t *testing.T) {
	db := newTestDB(t)
	m := NewMilestoneLogic(db)
	project := seedProject(t, db, "0xaaa2")
	milestone := seedMilestone(t, db, project.Id, 0, model.MilestoneStatusPending)

	assert.Error(t, m.SubmitEvidence(milestone.Id, ""))
}

func TestSubmitEvidenceAfterReject(t *testing.T) {
	db := newTestDB(t)
	m := NewMilestoneLogic(db)
	project := seedProject(t, db, "0xaaa3")
	milestone := seedMilestone(t, db, project.Id, 0, model.MilestoneStatusRejected)

	// 被拒绝后允许重新提交
	require.NoError(t, m.SubmitEvidence(milestone.Id, "QmSecondTry"))

	var got model.MilestoneModel
	require.NoError(t, db.First(&got, milestone.Id).Error)
	assert.Equal(t, model.MilestoneStatusSubmitted, got.Status)
}

func TestVerifyRequiresSubmitted(t *testing.T) {
	db := newTestDB(t)
	m := NewMilestoneLogic(db)
	project := seedProject(t, db, "0xaaa4")

	pending := seedMilestone(t, db, project.Id, 0, model.MilestoneStatusPending)
	assert.Error(t, m.VerifyMilestone(pending.Id, 99))

	submitted := seedMilestone(t, db, project.Id, 1, model.MilestoneStatusSubmitted)
	require.NoError(t, m.VerifyMilestone(submitted.Id, 99))

	var got model.MilestoneModel
	require.NoError(t, db.First(&got, submitted.Id).Error)
	assert.Equal(t, model.MilestoneStatusVerified, got.Status)
	require.NotNil(t, got.VerifierId)
	assert.Equal(t, int64(99), *got.VerifierId)
	assert.NotNil(t, got.VerifiedAt)
}

func TestWorkflowNeverMovesBackward(t *testing.T) {
	db := newTestDB(t)
	m := NewMilestoneLogic(db)
	project := seedProject(t, db, "0xaaa5")

	// verified 和 paid 都不接受再提交或再审核
	verified := seedMilestone(t, db, project.Id, 0, model.MilestoneStatusVerified)
	assert.Error(t, m.SubmitEvidence(verified.Id, "QmLate"))
	assert.Error(t, m.VerifyMilestone(verified.Id, 99))

	paid := seedMilestone(t, db, project.Id, 1, model.MilestoneStatusPaid)
	assert.Error(t, m.SubmitEvidence(paid.Id, "QmLate"))
	assert.Error(t, m.RejectMilestone(paid.Id, 99))
}

func TestRejectMilestone(t *testing.T) {
	db := newTestDB(t)
	m := NewMilestoneLogic(db)
	project := seedProject(t, db, "0xaaa6")
	milestone := seedMilestone(t, db, project.Id, 0, model.MilestoneStatusSubmitted)

	require.NoError(t, m.RejectMilestone(milestone.Id, 99))

	var got model.MilestoneModel
	require.NoError(t, db.First(&got, milestone.Id).Error)
	assert.Equal(t, model.MilestoneStatusRejected, got.Status)
}
