package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/venice-mcp/internal/media"
	"github.com/bobmcallan/venice-mcp/internal/venice"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxCharacterDescription is the number of characters kept from a character description.
const maxCharacterDescription = 100

// dataEnvelope is the {"data": ...} wrapper used by most Venice responses.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// decodeData unmarshals the "data" member of body into v and reports success.
func decodeData(body []byte, v interface{}) bool {
	var env dataEnvelope
	if json.Unmarshal(body, &env) != nil || len(env.Data) == 0 {
		return false
	}
	return json.Unmarshal(env.Data, v) == nil
}

// marshalCompact encodes v without HTML escaping so paths and URLs stay readable.
func marshalCompact(v interface{}) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatChat(_ *Call, body []byte) *mcp.CallToolResult {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if json.Unmarshal(body, &resp) != nil || len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return venice.TextResult("No response")
	}
	return venice.TextResult(resp.Choices[0].Message.Content)
}

// imageOutcome is the JSON text returned by venice_generate_image.
type imageOutcome struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

func formatImage(call *Call, body []byte) *mcp.CallToolResult {
	var images []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	}
	decodeData(body, &images)

	if len(images) > 0 && images[0].B64JSON != "" {
		if call.Media == nil {
			return venice.ErrorResult(marshalCompact(imageOutcome{Error: "image output directory is not configured"}))
		}
		path, err := call.Media.SaveImage(images[0].B64JSON)
		if err != nil {
			return venice.ErrorResult(marshalCompact(imageOutcome{Error: err.Error()}))
		}
		uri := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(marshalCompact(imageOutcome{Success: true, Path: path})),
				mcp.NewResourceLink(uri, filepath.Base(path), "Generated image", "image/png"),
			},
		}
	}
	if len(images) > 0 && images[0].URL != "" {
		return venice.TextResult(marshalCompact(imageOutcome{Success: true, URL: images[0].URL}))
	}
	return venice.ErrorResult(marshalCompact(imageOutcome{Error: "No image data returned"}))
}

func formatUpscale(_ *Call, body []byte) *mcp.CallToolResult {
	var data struct {
		URL string `json:"url"`
	}
	if decodeData(body, &data) && data.URL != "" {
		return venice.TextResult("Upscaled: " + data.URL)
	}
	return venice.TextResult("Image upscaled")
}

func formatSpeech(_ *Call, body []byte) *mcp.CallToolResult {
	return venice.TextResult(media.AudioPreview(body))
}

func formatEmbeddings(_ *Call, body []byte) *mcp.CallToolResult {
	var items []struct {
		Embedding []json.RawMessage `json:"embedding"`
	}
	decodeData(body, &items)
	dims := 0
	if len(items) > 0 {
		dims = len(items[0].Embedding)
	}
	return venice.TextResult(fmt.Sprintf("Generated %d embedding(s), dimensions: %d", len(items), dims))
}

func formatModels(call *Call, body []byte) *mcp.CallToolResult {
	var models []struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Object string `json:"object"`
	}
	decodeData(body, &models)

	filter := call.Args.String("type")
	var sb strings.Builder
	count := 0
	for _, m := range models {
		if filter != "" && filter != "all" && m.Type != filter && !strings.Contains(m.Object, filter) {
			continue
		}
		kind := m.Type
		if kind == "" {
			kind = m.Object
		}
		if kind == "" {
			kind = "unknown"
		}
		if count > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s (%s)", m.ID, kind)
		count++
	}
	return venice.TextResult(fmt.Sprintf("Available models (%d):\n%s", count, sb.String()))
}

func formatCharacters(call *Call, body []byte) *mcp.CallToolResult {
	var chars []struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	decodeData(body, &chars)

	limit := max(call.Args.Int("limit", 20), 0)
	if len(chars) > limit {
		chars = chars[:limit]
	}

	lines := make([]string, 0, len(chars))
	for _, c := range chars {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", c.Name, c.Slug, truncateRunes(c.Description, maxCharacterDescription)))
	}
	return venice.TextResult(fmt.Sprintf("Available characters (showing %d):\n%s\n\nNote: Use the slug to interact with a specific character.",
		len(chars), strings.Join(lines, "\n")))
}

// truncateRunes keeps the first n runes of s and appends "..." when anything was cut.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func formatImageStyles(_ *Call, body []byte) *mcp.CallToolResult {
	var raw []json.RawMessage
	decodeData(body, &raw)

	names := make([]string, 0, len(raw))
	for _, item := range raw {
		var name string
		if json.Unmarshal(item, &name) != nil {
			var obj struct {
				Name string `json:"name"`
				ID   string `json:"id"`
			}
			json.Unmarshal(item, &obj)
			name = obj.Name
			if name == "" {
				name = obj.ID
			}
		}
		names = append(names, "- "+name)
	}
	return venice.TextResult(fmt.Sprintf("Available image styles (%d):\n%s", len(names), strings.Join(names, "\n")))
}

func formatAPIKeys(_ *Call, body []byte) *mcp.CallToolResult {
	var keys []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Description  string `json:"description"`
		CreatedAt    string `json:"createdAt"`
		CreatedSnake string `json:"created_at"`
	}
	decodeData(body, &keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		name := firstNonEmpty(k.Name, k.Description, "Unnamed")
		created := firstNonEmpty(k.CreatedAt, k.CreatedSnake, "?")
		if i := strings.Index(created, "T"); i >= 0 {
			created = created[:i]
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) - created: %s", name, k.ID, created))
	}
	return venice.TextResult(fmt.Sprintf("API Keys (%d):\n%s", len(keys), strings.Join(lines, "\n")))
}

func formatCreatedAPIKey(call *Call, body []byte) *mcp.CallToolResult {
	var key struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		APIKey      string `json:"apiKey"`
		Key         string `json:"key"`
	}
	decodeData(body, &key)

	return venice.TextResult(fmt.Sprintf("Created API key \"%s\"\nID: %s\nSecret: %s\n\n⚠️ Save this secret - it won't be shown again!",
		firstNonEmpty(key.Description, call.Args.String("description")),
		firstNonEmpty(key.ID, "N/A"),
		firstNonEmpty(key.APIKey, key.Key, "N/A")))
}

// formatData pretty-prints the "data" member, keeping the remote key order.
func formatData(_ *Call, body []byte) *mcp.CallToolResult {
	var env dataEnvelope
	if json.Unmarshal(body, &env) != nil || len(env.Data) == 0 {
		return venice.TextResult("null")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, env.Data, "", "  "); err != nil {
		return venice.TextResult(string(env.Data))
	}
	return venice.TextResult(out.String())
}

func formatDeleted(call *Call, _ []byte) *mcp.CallToolResult {
	return venice.TextResult("✓ Deleted API key: " + call.Args.String("key_id"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
