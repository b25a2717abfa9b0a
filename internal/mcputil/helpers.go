// Package mcputil provides small helpers over the go-sdk's raw JSON tool
// arguments: typed getters with defaults and result constructors.
package mcputil

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetString extracts a string value from raw JSON arguments.
// Returns defaultVal if the key is absent or not a string.
func GetString(raw json.RawMessage, key, defaultVal string) string {
	m := parseArgs(raw)
	if m == nil {
		return defaultVal
	}
	s, ok := m[key].(string)
	if !ok {
		return defaultVal
	}
	return s
}

// GetInt extracts an integer value from raw JSON arguments.
// JSON numbers are float64, so this truncates to int.
// Returns defaultVal if the key is absent or not a number.
func GetInt(raw json.RawMessage, key string, defaultVal int) int {
	m := parseArgs(raw)
	if m == nil {
		return defaultVal
	}
	f, ok := m[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(f)
}

// GetFloat extracts a numeric value from raw JSON arguments.
// Returns defaultVal if the key is absent or not a number.
func GetFloat(raw json.RawMessage, key string, defaultVal float64) float64 {
	m := parseArgs(raw)
	if m == nil {
		return defaultVal
	}
	f, ok := m[key].(float64)
	if !ok {
		return defaultVal
	}
	return f
}

// GetBool extracts a boolean value from raw JSON arguments.
// Returns defaultVal if the key is absent or not a boolean.
func GetBool(raw json.RawMessage, key string, defaultVal bool) bool {
	m := parseArgs(raw)
	if m == nil {
		return defaultVal
	}
	b, ok := m[key].(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// GetStringMap extracts a string-to-string mapping from raw JSON
// arguments. Non-string values are skipped. Returns nil if the key is
// absent or not an object.
func GetStringMap(raw json.RawMessage, key string) map[string]string {
	m := parseArgs(raw)
	if m == nil {
		return nil
	}
	obj, ok := m[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// GetArguments returns the tool arguments as a map.
// Returns nil if parsing fails.
func GetArguments(raw json.RawMessage) map[string]any {
	return parseArgs(raw)
}

// NewToolResultText creates a successful CallToolResult with text content.
func NewToolResultText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// NewToolResultError creates an error CallToolResult with text content.
func NewToolResultError(msg string) *mcp.CallToolResult {
	var r mcp.CallToolResult
	r.SetError(fmt.Errorf("%s", msg))
	return &r
}

func parseArgs(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
