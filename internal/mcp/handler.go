package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cliffyan/go-problem-search/internal/config"
	"github.com/cliffyan/go-problem-search/internal/engine"
)

const (
	MCPVersion = "2024-11-05"
)

// Catalogue 工具调用所需的检索能力，由 engine.Manager 实现
type Catalogue interface {
	Search(ctx context.Context, req engine.SearchRequest) ([]engine.Problem, error)
	Problems() []engine.Problem
}

// Handler MCP 请求处理器
type Handler struct {
	config    *config.Config
	catalogue Catalogue
}

// NewHandler 创建 MCP 处理器
func NewHandler(cfg *config.Config, catalogue Catalogue) *Handler {
	return &Handler{
		config:    cfg,
		catalogue: catalogue,
	}
}

// HandleRequest 处理 MCP JSON-RPC 请求，处理过程中的 panic 转为 internal error
func (h *Handler) HandleRequest(ctx context.Context, req JSONRPCRequest) (resp JSONRPCResponse) {
	log.Printf("📥 MCP Request: method=%s, id=%v", req.Method, req.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ MCP panic in %s: %v", req.Method, r)
			resp = JSONRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &RPCError{Code: CodeInternalError, Message: fmt.Sprintf("internal error: %v", r)},
			}
		}
	}()

	var result any
	var rpcErr *RPCError

	switch req.Method {
	case "initialize":
		result = h.handleInitialize()
	case "notifications/initialized":
		// 通知类型，不需要返回结果
		return JSONRPCResponse{}
	case "ping":
		result = struct{}{}
	case "tools/list":
		result = ListToolsResult{Tools: GetTools(h.config)}
	case "tools/call":
		result, rpcErr = h.handleToolsCall(ctx, req.Params)
	case "resources/list":
		result = ListResourcesResult{Resources: []any{}}
	case "prompts/list":
		result = ListPromptsResult{Prompts: []any{}}
	default:
		rpcErr = &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("unknown method: %s", req.Method)}
	}

	if rpcErr != nil {
		log.Printf("❌ MCP Error: %s", rpcErr.Message)
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   rpcErr,
		}
	}

	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

// handleInitialize 处理初始化请求
func (h *Handler) handleInitialize() InitializeResult {
	return InitializeResult{
		ProtocolVersion: MCPVersion,
		Capabilities: Capability{
			Tools: ToolCapability{ListChanged: false},
		},
		ServerInfo: ServerInfo{
			Name:    h.config.MCP.ServerName,
			Version: h.config.MCP.ServerVersion,
		},
	}
}

// handleToolsCall 处理工具调用请求
func (h *Handler) handleToolsCall(ctx context.Context, params json.RawMessage) (*CallToolResult, *RPCError) {
	var callParams CallToolParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}

	log.Printf("🔧 Tool call: name=%s, args=%s", callParams.Name, string(callParams.Arguments))

	switch callParams.Name {
	case h.config.MCP.Tools.SearchName:
		return h.handleSearch(ctx, callParams.Arguments), nil
	case h.config.MCP.Tools.StatsName:
		return h.handleStats(), nil
	default:
		return textResult(fmt.Sprintf("Unknown tool: %s", callParams.Name), true), nil
	}
}

// handleSearch 处理搜索工具
func (h *Handler) handleSearch(ctx context.Context, args json.RawMessage) *CallToolResult {
	var req engine.SearchRequest
	if len(args) > 0 {
		if err := json.Unmarshal(args, &req); err != nil {
			return textResult(fmt.Sprintf("invalid arguments: %v", err), true)
		}
	}
	if req.Query == "" {
		return textResult("query is required", true)
	}

	results, err := h.catalogue.Search(ctx, req)
	if err != nil {
		return textResult(fmt.Sprintf("Search failed: %v", err), true)
	}

	return jsonResult(results)
}

// handleStats 处理统计工具
func (h *Handler) handleStats() *CallToolResult {
	return jsonResult(engine.Summarize(h.catalogue.Problems()))
}

func jsonResult(v any) *CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return textResult(fmt.Sprintf("Failed to format results: %v", err), true)
	}
	return textResult(string(data), false)
}

func textResult(text string, isError bool) *CallToolResult {
	return &CallToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
		IsError: isError,
	}
}
