package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/cliffyan/go-problem-search/internal/client"
	"github.com/cliffyan/go-problem-search/internal/config"
	"github.com/cliffyan/go-problem-search/internal/engine"
	"github.com/cliffyan/go-problem-search/internal/mcp"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// maxSearchBody /search 请求体上限
const maxSearchBody = 64 << 10

// Server 题目搜索 HTTP 服务器
type Server struct {
	config        *config.Config
	engineManager *engine.Manager
	mcpHandler    *mcp.Handler
	searcher      client.Searcher
	sessions      map[string]*Session
	sessionsMu    sync.RWMutex
}

// Session 会话信息
type Session struct {
	ID        string
	CreatedAt time.Time
}

// New 创建新的服务器实例，页面通过 client.endpoint 调用搜索接口
func New(cfg *config.Config, em *engine.Manager) *Server {
	return NewWithSearcher(cfg, em, client.New(cfg.Client.Endpoint, cfg.Client.Timeout))
}

// NewWithSearcher 使用指定的搜索客户端创建服务器
func NewWithSearcher(cfg *config.Config, em *engine.Manager, searcher client.Searcher) *Server {
	return &Server{
		config:        cfg,
		engineManager: em,
		mcpHandler:    mcp.NewHandler(cfg, em),
		searcher:      searcher,
		sessions:      make(map[string]*Session),
	}
}

// Handler 构建带中间件的路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// 搜索接口
	mux.HandleFunc("/search", s.handleSearch)

	// 搜索页面
	mux.HandleFunc("/{$}", s.handlePage)

	// MCP 端点
	mux.HandleFunc("/mcp", s.handleMCP)

	// SSE 端点（兼容旧客户端）
	mux.HandleFunc("/sse", s.handleSSE)

	// 健康检查
	mux.HandleFunc("/health", s.handleHealth)

	var handler http.Handler = requestID(mux)
	if s.config.IsEnableCORS() {
		origin := s.config.GetCORSOrigin()
		c := cors.New(cors.Options{
			AllowedOrigins:   []string{origin},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "mcp-session-id", RequestIDHeader},
			ExposedHeaders:   []string{RequestIDHeader, "mcp-session-id"},
			AllowCredentials: origin != "*",
		})
		handler = c.Handler(handler)
	}
	return handler
}

// Start 启动 HTTP 服务器，ctx 取消后优雅关闭
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.GetHost(), s.config.GetPort())
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 Starting problem search server on %s", addr)
	log.Printf("🔍 Search endpoint: http://%s/search", addr)
	log.Printf("📄 Search page: http://%s/", addr)
	log.Printf("📡 MCP endpoint: http://%s/mcp", addr)
	log.Printf("❤️ Health check: http://%s/health", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestID 为每个请求设置 X-Request-ID
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// handleSearch 处理 POST /search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSearchBody)

	var req engine.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	results, err := s.engineManager.Search(r.Context(), req)
	if err != nil {
		log.Printf("❌ Search failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("🔍 query=%q difficulty=%q language=%q -> %d results", req.Query, req.Difficulty, req.Language, len(results))
	writeJSON(w, http.StatusOK, results)
}

// handleMCP 处理 MCP 请求
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleMCPPost(w, r)
	case http.MethodGet:
		s.handleMCPGet(w, r)
	case http.MethodDelete:
		s.handleMCPDelete(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMCPPost 处理 MCP POST 请求
func (s *Server) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	var req mcp.JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, mcp.JSONRPCResponse{
			JSONRPC: "2.0",
			Error:   &mcp.RPCError{Code: mcp.CodeParseError, Message: "Parse error: " + err.Error()},
		})
		return
	}

	// 初始化请求且没有会话时创建新会话
	sessionID := r.Header.Get("mcp-session-id")
	if req.Method == "initialize" && sessionID == "" {
		sessionID = s.openSession()
		w.Header().Set("mcp-session-id", sessionID)
		log.Printf("📝 Created new session: %s", sessionID)
	}

	resp := s.mcpHandler.HandleRequest(r.Context(), req)

	// 通知类型返回 204
	if req.Method == "notifications/initialized" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleMCPGet 处理 MCP GET 请求（SSE 流）
func (s *Server) handleMCPGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("mcp-session-id")
	if sessionID == "" {
		http.Error(w, "Missing session ID", http.StatusBadRequest)
		return
	}
	if !s.hasSession(sessionID) {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	s.stream(w, r, `{"uri": "/mcp"}`)
}

// handleMCPDelete 处理 MCP DELETE 请求（关闭会话）
func (s *Server) handleMCPDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("mcp-session-id")
	if sessionID == "" {
		http.Error(w, "Missing session ID", http.StatusBadRequest)
		return
	}

	s.closeSession(sessionID)
	log.Printf("🗑️ Deleted session: %s", sessionID)
	w.WriteHeader(http.StatusOK)
}

// handleSSE 处理 SSE 端点（兼容旧客户端）
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := s.openSession()
	defer s.closeSession(sessionID)

	log.Printf("📡 SSE connection established: %s", sessionID)
	s.stream(w, r, fmt.Sprintf(`{"uri": "/mcp", "sessionId": %q}`, sessionID))
	log.Printf("📡 SSE connection closed: %s", sessionID)
}

// stream 发送 endpoint 事件并保持连接直到客户端断开
func (s *Server) stream(w http.ResponseWriter, r *http.Request, endpoint string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpoint)
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) openSession() string {
	id := uuid.New().String()
	s.sessionsMu.Lock()
	s.sessions[id] = &Session{ID: id, CreatedAt: time.Now()}
	s.sessionsMu.Unlock()
	return id
}

func (s *Server) hasSession(id string) bool {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

func (s *Server) closeSession(id string) {
	s.sessionsMu.Lock()
	delete(s.sessions, id)
	s.sessionsMu.Unlock()
}

// handleHealth 健康检查端点
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"service":  s.config.MCP.ServerName,
		"version":  s.config.MCP.ServerVersion,
		"problems": s.engineManager.Count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
