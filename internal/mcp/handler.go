package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/venice-mcp/internal/common"
	"github.com/bobmcallan/venice-mcp/internal/media"
	"github.com/bobmcallan/venice-mcp/internal/venice"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Args holds tool arguments after defaults are applied.
type Args map[string]interface{}

// String returns the string value of key, or "" when absent or not a string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the integer value of key, or def when absent or not numeric.
// Values outside the int range saturate at math.MaxInt or math.MinInt.
func (a Args) Int(key string, def int) int {
	f, ok := toFloat(a[key])
	switch {
	case !ok || math.IsNaN(f):
		return def
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Call is what a Formatter sees besides the response body.
type Call struct {
	Args  Args
	Media *media.Materializer
}

// Formatter converts a successful response body into a tool result.
// It must tolerate any body shape without panicking.
type Formatter func(call *Call, body []byte) *mcp.CallToolResult

// RequestSpec is the HTTP request derived from a contract and its arguments.
type RequestSpec struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]interface{}
}

// ResolveArgs copies raw and fills in declared defaults for absent params.
func ResolveArgs(ct Contract, raw map[string]interface{}) Args {
	args := make(Args, len(raw)+len(ct.Params))
	for k, v := range raw {
		args[k] = v
	}
	for _, p := range ct.Params {
		if _, ok := args[p.Name]; !ok && p.Default != nil {
			args[p.Name] = p.Default
		}
	}
	return args
}

// BuildRequest maps resolved arguments onto method, path, query and body.
// Absent params are not sent. An empty string is sent for required params
// and params with a default; optional params without a default that are
// set to "" are dropped. Path params must be non-empty.
func BuildRequest(ct Contract, args Args) (RequestSpec, error) {
	spec := RequestSpec{Method: ct.Method, Path: ct.Path}
	body := map[string]interface{}{}
	query := url.Values{}

	for _, p := range ct.Params {
		val, ok := args[p.Name]
		if !ok || val == nil {
			if p.Required {
				return spec, fmt.Errorf("%s parameter is required", p.Name)
			}
			continue
		}
		if val == "" {
			if p.In == InPath {
				return spec, fmt.Errorf("%s parameter must not be empty", p.Name)
			}
			if !p.Required && p.Default == nil {
				continue
			}
		}
		switch p.In {
		case InPath:
			spec.Path = strings.ReplaceAll(spec.Path, "{"+p.Name+"}", url.PathEscape(fmt.Sprint(val)))
		case InQuery:
			query.Set(p.WireName(), fmt.Sprint(val))
		case InBody:
			body[p.WireName()] = val
		}
	}
	for k, v := range ct.Fixed {
		body[k] = v
	}
	if ct.Compose != nil {
		ct.Compose(args, body)
	}

	if len(query) > 0 {
		spec.Query = query
	}
	if ct.Method != http.MethodGet && ct.Method != http.MethodDelete {
		spec.Body = body
	}
	return spec, nil
}

// deps bundles what every contract handler needs.
type deps struct {
	client *venice.Client
	media  *media.Materializer
	logger *common.Logger
}

// ContractHandler creates a handler that routes an MCP tool call to the
// Venice endpoint declared by ct. Every failure becomes an error result;
// the handler never returns a Go error.
func ContractHandler(d deps, ct Contract, v *argValidator) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := d.logger.WithCorrelationId(uuid.New().String())
		start := time.Now()

		raw := r.GetArguments()
		if v != nil {
			if err := v.Validate(raw); err != nil {
				logger.Warn().Str("tool", ct.Name).Str("error", err.Error()).Msg("rejected tool arguments")
				return venice.ErrorResult("Error: invalid arguments: " + err.Error()), nil
			}
		}

		args := ResolveArgs(ct, raw)
		spec, err := BuildRequest(ct, args)
		if err != nil {
			return venice.ErrorResult("Error: " + err.Error()), nil
		}

		opts := venice.SendOptions{Method: spec.Method, Query: spec.Query, Logger: logger}
		if spec.Body != nil {
			opts.Body = spec.Body
		}
		if ctx == nil {
			ctx = context.Background()
		}
		resp, err := d.client.Send(ctx, spec.Path, opts)
		if err != nil {
			logger.Error().Str("tool", ct.Name).Err(err).Msg("venice request failed")
			return venice.ErrorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		call := &Call{Args: args, Media: d.media}
		result := venice.Normalize(resp, func(body []byte) *mcp.CallToolResult {
			return ct.Format(call, body)
		})

		logger.Info().
			Str("tool", ct.Name).
			Int("status", resp.StatusCode).
			Str("is_error", fmt.Sprint(result.IsError)).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("tool call completed")
		return result, nil
	}
}
