package mcp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor/writers"

	"github.com/bobmcallan/venice-mcp/internal/common"
	"github.com/bobmcallan/venice-mcp/internal/config"
	"github.com/bobmcallan/venice-mcp/internal/media"
	"github.com/bobmcallan/venice-mcp/internal/venice"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// --- Helpers ---

// bufferWriter collects log events in memory.
type bufferWriter struct{ bytes.Buffer }

func (w *bufferWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w *bufferWriter) GetFilePath() string                   { return "" }
func (w *bufferWriter) Close() error                          { return nil }

func testConfig(baseURL string) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Venice.BaseURL = baseURL
	cfg.Venice.APIKey = "test-key"
	return cfg
}

func testDeps(t *testing.T, baseURL string) deps {
	t.Helper()
	return deps{
		client: venice.NewClient(config.VeniceConfig{BaseURL: baseURL, APIKey: "test-key"}, common.NewSilentLogger()),
		media:  media.NewMaterializer(t.TempDir()),
		logger: common.NewSilentLogger(),
	}
}

func findContract(t *testing.T, name string) Contract {
	t.Helper()
	for _, ct := range Catalog() {
		if ct.Name == name {
			return ct
		}
	}
	t.Fatalf("contract %s not found", name)
	return Contract{}
}

// toolHandler builds the validated handler for the named contract.
func toolHandler(t *testing.T, d deps, name string) mcpserver.ToolHandlerFunc {
	t.Helper()
	ct := findContract(t, name)
	v, err := newArgValidator(BuildMCPTool(ct))
	if err != nil {
		t.Fatalf("failed to compile schema for %s: %v", name, err)
	}
	return ContractHandler(d, ct, v)
}

func callTool(t *testing.T, handler mcpserver.ToolHandlerFunc, args map[string]interface{}) *mcpgo.CallToolResult {
	t.Helper()
	request := mcpgo.CallToolRequest{}
	request.Params.Arguments = args
	result, err := handler(nil, request)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a result, got nil")
	}
	return result
}

func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("Expected at least one content block")
	}
	text, ok := result.Content[0].(mcpgo.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

// jsonServer returns a mock Venice API that always answers with body.
func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// recordedRequest captures what a mock server received.
type recordedRequest struct {
	Method  string
	Path    string
	Query   string
	Body    map[string]interface{}
	Calls   int
	Methods []string // every method seen, in order
}

// recordingServer returns a mock Venice API that records the last request.
func recordingServer(t *testing.T, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Calls++
		rec.Methods = append(rec.Methods, r.Method)
		rec.Method = r.Method
		rec.Path = r.URL.EscapedPath()
		rec.Query = r.URL.RawQuery
		rec.Body = nil
		json.NewDecoder(r.Body).Decode(&rec.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

// listTools calls tools/list on the MCPServer and returns the tools.
func listTools(t *testing.T, s *mcpserver.MCPServer) []mcpgo.Tool {
	t.Helper()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	result := s.HandleMessage(t.Context(), msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolsResult mcpgo.ListToolsResult
	if err := json.Unmarshal(resultJSON, &toolsResult); err != nil {
		t.Fatalf("failed to unmarshal ListToolsResult: %v", err)
	}
	return toolsResult.Tools
}
