package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/barakahchain/charity-platform/internal/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// 托管合约ABI定义（简化版）
const escrowABI = `[
	{"constant": true, "inputs": [], "name": "goal", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "deadline", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "completed", "outputs": [{"name": "", "type": "bool"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "charity", "outputs": [{"name": "", "type": "address"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "builder", "outputs": [{"name": "", "type": "address"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "totalDonated", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "deadlineEnabled", "outputs": [{"name": "", "type": "bool"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "metaCid", "outputs": [{"name": "", "type": "string"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "milestoneCount", "outputs": [{"name": "", "type": "uint256"}], "type": "function"},
	{"constant": true, "inputs": [{"name": "index", "type": "uint256"}], "name": "getMilestone", "outputs": [{"name": "amount", "type": "uint256"}, {"name": "released", "type": "bool"}], "type": "function"},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "donor", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "Donated",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "index", "type": "uint256"},
			{"indexed": false, "name": "amount", "type": "uint256"}
		],
		"name": "MilestoneReleased",
		"type": "event"
	}
]`

// Client 托管合约读取客户端
type Client struct {
	client        *ethclient.Client
	escrowABI     abi.ABI
	startBlock    uint64
	confirmations int
	chainId       int64
}

func Init(cfg config.ChainConfig) (*Client, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 解析ABI
	parsedABI, err := abi.JSON(strings.NewReader(escrowABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow ABI: %w", err)
	}

	return &Client{
		client:        client,
		escrowABI:     parsedABI,
		startBlock:    cfg.StartBlock,
		confirmations: cfg.Confirmations,
		chainId:       cfg.ChainId,
	}, nil
}

// ReadProjectSnapshot 读取托管合约的完整公开状态
func (c *Client) ReadProjectSnapshot(ctx context.Context, address string) (*ProjectSnapshot, error) {
	contractAddr := common.HexToAddress(address)

	snapshot := &ProjectSnapshot{}

	var err error
	if snapshot.Goal, err = c.callUint256(ctx, contractAddr, "goal"); err != nil {
		return nil, err
	}
	if snapshot.Deadline, err = c.callUint256(ctx, contractAddr, "deadline"); err != nil {
		return nil, err
	}
	if snapshot.Completed, err = c.callBool(ctx, contractAddr, "completed"); err != nil {
		return nil, err
	}
	if snapshot.Charity, err = c.callAddress(ctx, contractAddr, "charity"); err != nil {
		return nil, err
	}
	if snapshot.Builder, err = c.callAddress(ctx, contractAddr, "builder"); err != nil {
		return nil, err
	}
	if snapshot.TotalDonated, err = c.callUint256(ctx, contractAddr, "totalDonated"); err != nil {
		return nil, err
	}
	if snapshot.DeadlineEnabled, err = c.callBool(ctx, contractAddr, "deadlineEnabled"); err != nil {
		return nil, err
	}
	if snapshot.MetaCid, err = c.callString(ctx, contractAddr, "metaCid"); err != nil {
		return nil, err
	}

	count, err := c.callUint256(ctx, contractAddr, "milestoneCount")
	if err != nil {
		return nil, err
	}

	for i := int64(0); i < count.Int64(); i++ {
		milestone, err := c.readMilestone(ctx, contractAddr, i)
		if err != nil {
			return nil, err
		}
		snapshot.Milestones = append(snapshot.Milestones, *milestone)
	}

	return snapshot, nil
}

// ReadDonationEvents 读取合约的全部Donated事件
func (c *Client) ReadDonationEvents(ctx context.Context, address string) ([]DonationEvent, error) {
	contractAddr := common.HexToAddress(address)
	donatedEvent := c.escrowABI.Events["Donated"]

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(c.startBlock),
		Addresses: []common.Address{contractAddr},
		Topics:    [][]common.Hash{{donatedEvent.ID}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter donation logs: %w", err)
	}

	events := make([]DonationEvent, 0, len(logs))
	for _, log := range logs {
		if len(log.Topics) < 2 {
			continue
		}

		amount := new(big.Int)
		if len(log.Data) > 0 {
			values, err := c.escrowABI.Unpack("Donated", log.Data)
			if err != nil || len(values) == 0 {
				continue
			}
			if v, ok := values[0].(*big.Int); ok {
				amount = v
			}
		}

		events = append(events, DonationEvent{
			Donor:    common.BytesToAddress(log.Topics[1].Bytes()).Hex(),
			Amount:   amount,
			TxHash:   log.TxHash.Hex(),
			BlockNum: log.BlockNumber,
		})
	}

	return events, nil
}

// GetLatestBlock 获取最新区块号
func (c *Client) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

// readMilestone 读取单个里程碑 (amount, released)
func (c *Client) readMilestone(ctx context.Context, addr common.Address, index int64) (*MilestoneState, error) {
	values, err := c.call(ctx, addr, "getMilestone", big.NewInt(index))
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("unexpected getMilestone output length: %d", len(values))
	}

	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getMilestone amount type")
	}
	released, ok := values[1].(bool)
	if !ok {
		return nil, fmt.Errorf("unexpected getMilestone released type")
	}

	return &MilestoneState{Amount: amount, Released: released}, nil
}

// call 调用合约只读方法并解包返回值
func (c *Client) call(ctx context.Context, addr common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.escrowABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	result, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call %s failed: %w", method, err)
	}

	values, err := c.escrowABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s output: %w", method, err)
	}

	return values, nil
}

func (c *Client) callUint256(ctx context.Context, addr common.Address, method string) (*big.Int, error) {
	values, err := c.call(ctx, addr, method)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty output from %s", method)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type", method)
	}
	return v, nil
}

func (c *Client) callBool(ctx context.Context, addr common.Address, method string) (bool, error) {
	values, err := c.call(ctx, addr, method)
	if err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, fmt.Errorf("empty output from %s", method)
	}
	v, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected %s output type", method)
	}
	return v, nil
}

func (c *Client) callAddress(ctx context.Context, addr common.Address, method string) (string, error) {
	values, err := c.call(ctx, addr, method)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("empty output from %s", method)
	}
	v, ok := values[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("unexpected %s output type", method)
	}
	return v.Hex(), nil
}

func (c *Client) callString(ctx context.Context, addr common.Address, method string) (string, error) {
	values, err := c.call(ctx, addr, method)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("empty output from %s", method)
	}
	v, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s output type", method)
	}
	return v, nil
}
