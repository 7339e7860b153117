package mcp

import (
	"fmt"
	"net/http"
	"strings"
)

// Param locations.
const (
	InBody  = "body"
	InQuery = "query"
	InPath  = "path"
	InLocal = "local" // consumed by the extractor, never sent
)

// Param types. TypeStringOrArray accepts a string or a list of strings.
const (
	TypeString        = "string"
	TypeNumber        = "number"
	TypeBoolean       = "boolean"
	TypeArray         = "array"
	TypeObject        = "object"
	TypeStringOrArray = "string_or_array"
)

// Contract declares one Venice tool: its input schema, how arguments map onto
// the HTTP request and how a successful response becomes a tool result.
type Contract struct {
	Name        string
	Description string
	Method      string
	Path        string // may contain {param} placeholders for path params
	Params      []Param

	// Fixed body fields sent on every call.
	Fixed map[string]interface{}

	// Compose adds body fields derived from several arguments.
	Compose func(args Args, body map[string]interface{})

	// Format turns a 2xx response body into the tool result.
	Format Formatter
}

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     interface{}
	Enum        []string
	Pattern     string
	Minimum     *float64 // number params only
	In          string
	Wire        string                 // body field name when it differs from Name
	Properties  map[string]interface{} // object params only
}

func floatPtr(f float64) *float64 { return &f }

// WireName returns the field name used on the wire.
func (p Param) WireName() string {
	if p.Wire != "" {
		return p.Wire
	}
	return p.Name
}

// Catalog returns the full Venice tool table.
func Catalog() []Contract {
	return []Contract{
		{
			Name:        "venice_chat",
			Description: "Send a message to a Venice AI language model and get a response",
			Method:      http.MethodPost,
			Path:        "/chat/completions",
			Params: []Param{
				{Name: "model", Type: TypeString, Description: "Model ID (e.g., llama-3.3-70b, deepseek-r1-llama-70b)", Default: "llama-3.3-70b", In: InBody},
				{Name: "message", Type: TypeString, Description: "The message to send", Required: true, In: InLocal},
				{Name: "system_prompt", Type: TypeString, Description: "Optional system prompt", In: InLocal},
				{Name: "temperature", Type: TypeNumber, Description: "Sampling temperature (0-2)", Default: 0.7, In: InBody},
				{Name: "max_tokens", Type: TypeNumber, Description: "Maximum tokens to generate", Default: 2048, In: InBody},
			},
			Compose: composeChatMessages,
			Format:  formatChat,
		},
		{
			Name:        "venice_generate_image",
			Description: "Generate an image from a text prompt using Venice AI. Returns the path of the saved PNG file.",
			Method:      http.MethodPost,
			Path:        "/images/generations",
			Params: []Param{
				{Name: "prompt", Type: TypeString, Description: "Description of the image to generate", Required: true, In: InBody},
				{Name: "model", Type: TypeString, Description: "Image model (e.g., fluently-xl, flux-dev)", Default: "fluently-xl", In: InBody},
				{Name: "size", Type: TypeString, Description: "Image size as WIDTHxHEIGHT (e.g., 512x512, 1024x1024, 1792x1024)", Default: "1024x1024", Pattern: `^\d+x\d+$`, In: InBody},
				{Name: "style_preset", Type: TypeString, Description: "Style preset name (use venice_list_image_styles to see options)", In: InBody},
				{Name: "negative_prompt", Type: TypeString, Description: "What to avoid in the image", In: InBody},
			},
			Fixed:  map[string]interface{}{"n": 1, "response_format": "b64_json"},
			Format: formatImage,
		},
		{
			Name:        "venice_upscale_image",
			Description: "Upscale an image using Venice AI",
			Method:      http.MethodPost,
			Path:        "/images/upscale",
			Params: []Param{
				{Name: "image", Type: TypeString, Description: "Base64-encoded image or URL", Required: true, In: InBody},
				{Name: "scale", Type: TypeNumber, Description: "Upscale factor (2 or 4)", Default: 2, In: InBody},
			},
			Format: formatUpscale,
		},
		{
			Name:        "venice_text_to_speech",
			Description: "Convert text to speech audio using Venice AI",
			Method:      http.MethodPost,
			Path:        "/audio/speech",
			Params: []Param{
				{Name: "text", Type: TypeString, Description: "Text to convert to speech", Required: true, In: InBody, Wire: "input"},
				{Name: "model", Type: TypeString, Description: "TTS model", Default: "tts-kokoro", In: InBody},
				{Name: "voice", Type: TypeString, Description: "Voice ID (e.g., af_sky, af_bella, am_adam)", Default: "af_sky", In: InBody},
			},
			Format: formatSpeech,
		},
		{
			Name:        "venice_create_embeddings",
			Description: "Generate text embeddings using Venice AI",
			Method:      http.MethodPost,
			Path:        "/embeddings",
			Params: []Param{
				{Name: "input", Type: TypeStringOrArray, Description: "Text or array of texts to embed", Required: true, In: InBody},
				{Name: "model", Type: TypeString, Description: "Embedding model", Default: "text-embedding-ada-002", In: InBody},
			},
			Format: formatEmbeddings,
		},
		{
			Name:        "venice_list_models",
			Description: "List available Venice AI models",
			Method:      http.MethodGet,
			Path:        "/models",
			Params: []Param{
				{Name: "type", Type: TypeString, Description: "Filter by model type", Default: "all", Enum: []string{"text", "image", "code", "embedding", "all"}, In: InQuery},
			},
			Format: formatModels,
		},
		{
			Name:        "venice_list_characters",
			Description: "List available AI characters for roleplay and conversation",
			Method:      http.MethodGet,
			Path:        "/characters",
			Params: []Param{
				{Name: "limit", Type: TypeNumber, Description: "Number of characters to return", Default: 20, Minimum: floatPtr(0), In: InLocal},
			},
			Format: formatCharacters,
		},
		{
			Name:        "venice_list_image_styles",
			Description: "List available image style presets",
			Method:      http.MethodGet,
			Path:        "/images/styles",
			Format:      formatImageStyles,
		},
		{
			Name:        "venice_list_api_keys",
			Description: "List all API keys for the account",
			Method:      http.MethodGet,
			Path:        "/api_keys",
			Format:      formatAPIKeys,
		},
		{
			Name:        "venice_create_api_key",
			Description: "Create a new API key",
			Method:      http.MethodPost,
			Path:        "/api_keys",
			Params: []Param{
				{Name: "description", Type: TypeString, Description: "Description for the API key", Required: true, In: InBody},
				{Name: "apiKeyType", Type: TypeString, Description: "Key type: ADMIN or INFERENCE", Default: "INFERENCE", Enum: []string{"ADMIN", "INFERENCE"}, In: InBody},
				{Name: "consumptionLimit", Type: TypeObject, Description: "Optional spending limits", In: InBody, Properties: map[string]interface{}{
					"usd":  map[string]interface{}{"type": "number", "description": "USD limit"},
					"diem": map[string]interface{}{"type": "number", "description": "Diem limit"},
					"vcu":  map[string]interface{}{"type": "number", "description": "VCU limit"},
				}},
				{Name: "expiresAt", Type: TypeString, Description: "Optional expiration date (ISO 8601)", In: InBody},
			},
			Format: formatCreatedAPIKey,
		},
		{
			Name:        "venice_retrieve_api_key",
			Description: "Get details for a specific API key",
			Method:      http.MethodGet,
			Path:        "/api_keys/{key_id}",
			Params: []Param{
				{Name: "key_id", Type: TypeString, Description: "The API key ID", Required: true, In: InPath},
			},
			Format: formatData,
		},
		{
			Name:        "venice_delete_api_key",
			Description: "Delete an API key",
			Method:      http.MethodDelete,
			Path:        "/api_keys/{key_id}",
			Params: []Param{
				{Name: "key_id", Type: TypeString, Description: "The API key ID to delete", Required: true, In: InPath},
			},
			Format: formatDeleted,
		},
		{
			Name:        "venice_get_rate_limits",
			Description: "Get current rate limits and usage for your API key",
			Method:      http.MethodGet,
			Path:        "/api_keys/rate_limits",
			Format:      formatData,
		},
		{
			Name:        "venice_get_rate_limit_logs",
			Description: "Get rate limit logs showing recent API usage",
			Method:      http.MethodGet,
			Path:        "/api_keys/rate_limits/logs",
			Format:      formatData,
		},
	}
}

// composeChatMessages builds the messages array from message and system_prompt.
func composeChatMessages(args Args, body map[string]interface{}) {
	messages := make([]map[string]string, 0, 2)
	if sp := args.String("system_prompt"); sp != "" {
		messages = append(messages, map[string]string{"role": "system", "content": sp})
	}
	messages = append(messages, map[string]string{"role": "user", "content": args.String("message")})
	body["messages"] = messages
}

// allowedMethods is the whitelist of HTTP methods for contracts.
var allowedMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
}

// ValidateContract checks a single contract entry for structural problems.
func ValidateContract(ct Contract) error {
	if ct.Name == "" {
		return fmt.Errorf("contract has empty name")
	}
	if !allowedMethods[ct.Method] {
		return fmt.Errorf("contract %q has unsupported method %q", ct.Name, ct.Method)
	}
	if !strings.HasPrefix(ct.Path, "/") {
		return fmt.Errorf("contract %q has invalid path %q (must start with /)", ct.Name, ct.Path)
	}
	if strings.Contains(ct.Path, "..") {
		return fmt.Errorf("contract %q has invalid path %q (contains ..)", ct.Name, ct.Path)
	}
	if ct.Format == nil {
		return fmt.Errorf("contract %q has no formatter", ct.Name)
	}
	seen := make(map[string]bool, len(ct.Params))
	for _, p := range ct.Params {
		if seen[p.Name] {
			return fmt.Errorf("contract %q has duplicate param %q", ct.Name, p.Name)
		}
		seen[p.Name] = true
		switch p.In {
		case InBody, InQuery, InLocal:
		case InPath:
			if !strings.Contains(ct.Path, "{"+p.Name+"}") {
				return fmt.Errorf("contract %q path %q has no placeholder for %q", ct.Name, ct.Path, p.Name)
			}
		default:
			return fmt.Errorf("contract %q param %q has invalid location %q", ct.Name, p.Name, p.In)
		}
	}
	return nil
}
