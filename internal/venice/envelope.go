package venice

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Extractor turns a successful response body into a result envelope.
// Implementations must tolerate malformed or unexpectedly shaped bodies.
type Extractor func(body []byte) *mcp.CallToolResult

// TextResult creates a successful MCP result with a single text block.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// ErrorResult creates an MCP error result.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// Normalize converts a raw response into exactly one result envelope.
// Failures become "Error: <message>"; successes are handed to extract.
func Normalize(resp *Response, extract Extractor) *mcp.CallToolResult {
	if !resp.OK() {
		return ErrorResult("Error: " + ErrorMessage(resp))
	}
	return extract(resp.Body)
}

// ErrorMessage extracts error.message from a failed response body, falling
// back to the status line reason phrase.
func ErrorMessage(resp *Response) string {
	var errResp struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(resp.Body, &errResp) == nil && errResp.Error != nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return statusText(resp)
}

// statusText returns the reason phrase of the status line ("Not Found" for "404 Not Found").
func statusText(resp *Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason != "" {
		return reason
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "HTTP " + strconv.Itoa(resp.StatusCode)
}
