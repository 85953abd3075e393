package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/barakahchain/charity-platform/internal/config"
)

// ErrNotFound 元数据不存在
var ErrNotFound = errors.New("元数据不存在")

// MilestoneMetadata 链下里程碑元数据，按数组位置对应链上里程碑
type MilestoneMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Beneficiary string `json:"beneficiary"`
}

// ProjectMetadata 链下项目元数据
type ProjectMetadata struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Milestones  []MilestoneMetadata `json:"milestones"`
}

// Client IPFS元数据客户端
// 读取走网关，上传走节点API，所有读取都是尽力而为
type Client struct {
	gateway    string
	apiUrl     string
	httpClient *http.Client
}

func New(cfg config.IpfsConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		gateway:    strings.TrimRight(cfg.Gateway, "/"),
		apiUrl:     strings.TrimRight(cfg.ApiUrl, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch 按CID获取项目元数据
func (c *Client) Fetch(ctx context.Context, cid string) (*ProjectMetadata, error) {
	if cid == "" {
		return nil, ErrNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gateway+"/"+cid, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata %s: %w", cid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata gateway returned %d for %s", resp.StatusCode, cid)
	}

	var metadata ProjectMetadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata %s: %w", cid, err)
	}

	return &metadata, nil
}

// Put 上传数据，返回CID
func (c *Client) Put(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "metadata.json")
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiUrl+"/api/v0/add", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ipfs api returned %d: %s", resp.StatusCode, string(raw))
	}

	var result struct {
		Hash string `json:"Hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.Hash == "" {
		return "", errors.New("ipfs api returned empty hash")
	}

	return result.Hash, nil
}
