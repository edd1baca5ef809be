package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDecoder extracts the typed request of an Endpoint from tool arguments.
type MCPDecoder func(args map[string]any) (any, error)

// RegisterMCPTool registers an Endpoint as an MCP tool on the given server.
// Each call gets a fresh request id and the "mcp" transport in its context.
// Decode and endpoint errors are returned as tool errors, not protocol
// errors, so the model sees them.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := decode(req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		ctx = WithTransport(WithRequestID(ctx, uuid.NewString()), TransportMCP)

		resp, err := endpoint(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

// StringArg returns args[name] as a string, "" when absent or not a string.
func StringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

// DecodeJSONArg decodes args[name], given either as a JSON string or as an
// already-parsed JSON value, into dst. It reports whether the argument was
// present.
func DecodeJSONArg(args map[string]any, name string, dst any) (bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return false, nil
	}
	var data []byte
	if s, isString := v.(string); isString {
		if s == "" {
			return false, nil
		}
		data = []byte(s)
	} else {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return true, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("%s: %w", name, err)
	}
	return true, nil
}
