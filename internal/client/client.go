package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

var (
	// ErrTransport 请求未能完成（连接失败、超时等）
	ErrTransport = errors.New("search service unreachable")
	// ErrUnexpectedStatus 服务返回非 2xx 状态码
	ErrUnexpectedStatus = errors.New("unexpected search response status")
	// ErrMalformedResponse 响应体不是题目数组
	ErrMalformedResponse = errors.New("malformed search response")
)

// Client 搜索服务客户端
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New 创建客户端，timeout 限制单次请求的总耗时
func New(endpoint string, timeout time.Duration) *Client {
	return NewWithHTTPClient(endpoint, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient 使用自定义 http.Client 创建客户端
func NewWithHTTPClient(endpoint string, hc *http.Client) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: hc,
	}
}

// Endpoint 返回搜索地址
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Search 以 JSON 形式 POST 搜索请求，返回服务端给出的顺序
func (c *Client) Search(ctx context.Context, req engine.SearchRequest) ([]engine.Problem, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("%w: %d, body: %s", ErrUnexpectedStatus, resp.StatusCode, string(data))
	}

	var results []engine.Problem
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	// 数组之后只允许空白
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after JSON array", ErrMalformedResponse)
	}
	// "null" 能被解码但不是数组
	if results == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedResponse)
	}

	return results, nil
}
