package chain

import (
	"math/big"
)

// MilestoneState 链上里程碑三元组中的 (amount, released)，位置即 orderIndex
type MilestoneState struct {
	Amount   *big.Int `json:"amount"`
	Released bool     `json:"released"`
}

// ProjectSnapshot 托管合约公开状态的一次性读取结果，作为对账输入
type ProjectSnapshot struct {
	Goal            *big.Int         `json:"goal"`
	Deadline        *big.Int         `json:"deadline"` // unix秒，0表示未设置
	Completed       bool             `json:"completed"`
	Charity         string           `json:"charity"`
	Builder         string           `json:"builder"`
	TotalDonated    *big.Int         `json:"total_donated"`
	DeadlineEnabled bool             `json:"deadline_enabled"`
	MetaCid         string           `json:"meta_cid"`
	Milestones      []MilestoneState `json:"milestones"`
}

// DonationEvent 合约Donated事件
type DonationEvent struct {
	Donor    string   `json:"donor"`
	Amount   *big.Int `json:"amount"`
	TxHash   string   `json:"tx_hash"`
	BlockNum uint64   `json:"block_num"`
}
