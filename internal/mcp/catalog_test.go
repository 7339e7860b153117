package mcp

import (
	"net/http"
	"strings"
	"testing"
)

func TestCatalog_AllContractsValid(t *testing.T) {
	for _, ct := range Catalog() {
		if err := ValidateContract(ct); err != nil {
			t.Errorf("contract %s invalid: %v", ct.Name, err)
		}
	}
}

func TestCatalog_ToolNames(t *testing.T) {
	expected := []string{
		"venice_chat",
		"venice_generate_image",
		"venice_upscale_image",
		"venice_text_to_speech",
		"venice_create_embeddings",
		"venice_list_models",
		"venice_list_characters",
		"venice_list_image_styles",
		"venice_list_api_keys",
		"venice_create_api_key",
		"venice_retrieve_api_key",
		"venice_delete_api_key",
		"venice_get_rate_limits",
		"venice_get_rate_limit_logs",
	}
	catalog := Catalog()
	if len(catalog) != len(expected) {
		t.Fatalf("Expected %d contracts, got %d", len(expected), len(catalog))
	}
	for i, name := range expected {
		if catalog[i].Name != name {
			t.Errorf("Expected contract %d to be %s, got %s", i, name, catalog[i].Name)
		}
	}
}

func TestCatalog_MethodsAndPaths(t *testing.T) {
	tests := map[string]struct{ method, path string }{
		"venice_chat":                {http.MethodPost, "/chat/completions"},
		"venice_generate_image":      {http.MethodPost, "/images/generations"},
		"venice_upscale_image":       {http.MethodPost, "/images/upscale"},
		"venice_text_to_speech":      {http.MethodPost, "/audio/speech"},
		"venice_create_embeddings":   {http.MethodPost, "/embeddings"},
		"venice_list_models":         {http.MethodGet, "/models"},
		"venice_list_characters":     {http.MethodGet, "/characters"},
		"venice_list_image_styles":   {http.MethodGet, "/images/styles"},
		"venice_list_api_keys":       {http.MethodGet, "/api_keys"},
		"venice_create_api_key":      {http.MethodPost, "/api_keys"},
		"venice_retrieve_api_key":    {http.MethodGet, "/api_keys/{key_id}"},
		"venice_delete_api_key":      {http.MethodDelete, "/api_keys/{key_id}"},
		"venice_get_rate_limits":     {http.MethodGet, "/api_keys/rate_limits"},
		"venice_get_rate_limit_logs": {http.MethodGet, "/api_keys/rate_limits/logs"},
	}
	for name, want := range tests {
		ct := findContract(t, name)
		if ct.Method != want.method {
			t.Errorf("%s: expected method %s, got %s", name, want.method, ct.Method)
		}
		if ct.Path != want.path {
			t.Errorf("%s: expected path %s, got %s", name, want.path, ct.Path)
		}
	}
}

func TestCatalog_Defaults(t *testing.T) {
	tests := []struct {
		tool, param string
		want        interface{}
	}{
		{"venice_chat", "model", "llama-3.3-70b"},
		{"venice_chat", "temperature", 0.7},
		{"venice_chat", "max_tokens", 2048},
		{"venice_generate_image", "model", "fluently-xl"},
		{"venice_generate_image", "size", "1024x1024"},
		{"venice_upscale_image", "scale", 2},
		{"venice_text_to_speech", "model", "tts-kokoro"},
		{"venice_text_to_speech", "voice", "af_sky"},
		{"venice_create_embeddings", "model", "text-embedding-ada-002"},
		{"venice_list_models", "type", "all"},
		{"venice_list_characters", "limit", 20},
		{"venice_create_api_key", "apiKeyType", "INFERENCE"},
	}
	for _, tt := range tests {
		ct := findContract(t, tt.tool)
		found := false
		for _, p := range ct.Params {
			if p.Name == tt.param {
				found = true
				if p.Default != tt.want {
					t.Errorf("%s.%s: expected default %v, got %v", tt.tool, tt.param, tt.want, p.Default)
				}
				if p.Required {
					t.Errorf("%s.%s: a defaulted param should not be required", tt.tool, tt.param)
				}
			}
		}
		if !found {
			t.Errorf("%s: missing param %s", tt.tool, tt.param)
		}
	}
}

func TestCatalog_GenerateImageHasNoWidthOrHeight(t *testing.T) {
	ct := findContract(t, "venice_generate_image")
	for _, p := range ct.Params {
		if p.Name == "width" || p.Name == "height" || p.WireName() == "width" || p.WireName() == "height" {
			t.Errorf("generate_image must not declare %s", p.Name)
		}
	}
	if ct.Fixed["response_format"] != "b64_json" {
		t.Errorf("Expected response_format b64_json, got %v", ct.Fixed["response_format"])
	}
	if ct.Fixed["n"] != 1 {
		t.Errorf("Expected n=1, got %v", ct.Fixed["n"])
	}
}

func TestCatalog_TextToSpeechSendsInput(t *testing.T) {
	ct := findContract(t, "venice_text_to_speech")
	for _, p := range ct.Params {
		if p.Name == "text" && p.WireName() != "input" {
			t.Errorf("Expected text to be sent as input, got %s", p.WireName())
		}
	}
}

func TestCatalog_DescriptionsPresent(t *testing.T) {
	for _, ct := range Catalog() {
		if ct.Description == "" {
			t.Errorf("contract %s has no description", ct.Name)
		}
		for _, p := range ct.Params {
			if p.Description == "" {
				t.Errorf("contract %s param %s has no description", ct.Name, p.Name)
			}
		}
	}
}

func TestValidateContract_Errors(t *testing.T) {
	valid := Contract{Name: "x", Method: http.MethodGet, Path: "/x", Format: formatData}

	tests := []struct {
		name   string
		mutate func(ct *Contract)
		want   string
	}{
		{"empty name", func(ct *Contract) { ct.Name = "" }, "empty name"},
		{"bad method", func(ct *Contract) { ct.Method = "TRACE" }, "unsupported method"},
		{"relative path", func(ct *Contract) { ct.Path = "x" }, "must start with /"},
		{"traversal", func(ct *Contract) { ct.Path = "/a/../b" }, "contains .."},
		{"no formatter", func(ct *Contract) { ct.Format = nil }, "no formatter"},
		{"path param without placeholder", func(ct *Contract) {
			ct.Params = []Param{{Name: "id", Type: TypeString, In: InPath}}
		}, "no placeholder"},
		{"bad location", func(ct *Contract) {
			ct.Params = []Param{{Name: "id", Type: TypeString, In: "header"}}
		}, "invalid location"},
		{"duplicate param", func(ct *Contract) {
			ct.Params = []Param{{Name: "a", In: InBody}, {Name: "a", In: InBody}}
		}, "duplicate param"},
	}

	if err := ValidateContract(valid); err != nil {
		t.Fatalf("Expected valid contract, got %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := valid
			tt.mutate(&ct)
			err := ValidateContract(ct)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestParam_WireName(t *testing.T) {
	if got := (Param{Name: "text", Wire: "input"}).WireName(); got != "input" {
		t.Errorf("Expected input, got %s", got)
	}
	if got := (Param{Name: "model"}).WireName(); got != "model" {
		t.Errorf("Expected model, got %s", got)
	}
}
