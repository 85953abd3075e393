package handler

// SubmitEvidenceRequest 提交里程碑证明请求
type SubmitEvidenceRequest struct {
	EvidenceCid string `json:"evidence_cid" binding:"required"`
}

// ReviewMilestoneRequest 审核里程碑请求
type ReviewMilestoneRequest struct {
	VerifierId int64 `json:"verifier_id" binding:"required"`
}
