// internal/mcp/server.go
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"github.com/example/checkout-adapter/services/api-gateway/handlers"
)

const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "checkout"

	maxMessageBytes = 1 << 20
)

// JSON-RPC error codes used by MCP.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// numbers stay json.Number so amounts and ids are never rounded through float64
var codec = sonic.Config{UseNumber: true}.Froze()

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type CallToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Server speaks MCP over newline-delimited stdio or single-response HTTP
// POSTs. Both transports share Handle.
type Server struct {
	tools   *ToolHandler
	version string
}

func NewServer(d handlers.Deps, version string) *Server {
	return &Server{tools: NewToolHandler(d), version: version}
}

// Handle processes one JSON-RPC message. Notifications yield a nil response.
func (s *Server) Handle(ctx context.Context, raw []byte) *Response {
	var req Request
	if err := codec.Unmarshal(raw, &req); err != nil {
		return errorResponse(nil, codeParseError, "Parse error")
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, codeInvalidRequest, "Invalid request")
	}

	switch req.Method {
	case "initialize":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      ServerInfo{Name: ServerName, Version: s.version},
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
		}}
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: struct{}{}}
	case "tools/list":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: ListToolsResult{Tools: toolDefinitions()}}
	case "tools/call":
		return s.handleCallTool(ctx, &req)
	}
	if req.ID == nil {
		// notifications/initialized and other notifications
		return nil
	}
	return errorResponse(req.ID, codeMethodNotFound, "Method not found")
}

func (s *Server) handleCallTool(ctx context.Context, req *Request) *Response {
	var params CallToolParams
	if err := codec.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params")
	}

	result, err := s.tools.Handle(ctx, params.Name, params.Arguments)
	if errors.Is(err, errUnknownTool) {
		return errorResponse(req.ID, codeInvalidParams, err.Error()+": "+params.Name)
	}
	if err != nil {
		logrus.WithError(err).WithField("tool", params.Name).Info("tool call failed")
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: CallToolResult{
			Content: []ToolContent{{Type: "text", Text: toolError(err)}},
			IsError: true,
		}}
	}

	text, err := codec.MarshalToString(result)
	if err != nil {
		return errorResponse(req.ID, codeInvalidParams, "encode tool result")
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: CallToolResult{
		Content: []ToolContent{{Type: "text", Text: text}},
	}}
}

// Run serves newline-delimited JSON-RPC until EOF or ctx is done.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReaderSize(in, 64<<10)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if resp := s.Handle(ctx, line); resp != nil {
				if werr := writeLine(out, resp); werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// ServeHTTP answers one JSON-RPC message per POST.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		writeHTTP(w, errorResponse(nil, codeParseError, "Parse error"))
		return
	}
	resp := s.Handle(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeHTTP(w, resp)
}

func writeHTTP(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = codec.NewEncoder(w).Encode(resp)
}

func writeLine(w io.Writer, resp *Response) error {
	data, err := codec.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func errorResponse(id any, code int, msg string) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: msg}}
}
