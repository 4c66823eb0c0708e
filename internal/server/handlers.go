package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/idcard-tools/internal/card"
	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "template_detect_regions").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Template Analysis
	case "template_info":
		return s.handleTemplateInfo(args)
	case "template_detect_regions":
		return s.handleTemplateDetectRegions(args)
	case "template_classify_regions":
		return s.handleTemplateClassifyRegions(ctx, args)

	// Card Rendering
	case "card_render":
		return s.handleCardRender(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
// An empty data string is omitted.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// loadTemplate decodes a template through the cache. reload drops any
// cached copy first so an edited template is picked up.
func (s *Server) loadTemplate(path string, reload bool) (*card.Template, error) {
	if s.engine == nil {
		return nil, errors.New("no card engine configured")
	}
	if reload {
		s.cache.Evict(path)
	}
	return card.LoadTemplate(s.cache, path)
}

// === Template Analysis Handlers ===

type templateArgs struct {
	Path   string `json:"path"`
	Reload bool   `json:"reload"`
}

func (s *Server) handleTemplateInfo(args json.RawMessage) (interface{}, error) {
	var a templateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.Reload {
		s.cache.Evict(a.Path)
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// RegionsResult is the result of template_detect_regions.
type RegionsResult struct {
	Template string             `json:"template"`
	Count    int                `json:"count"`
	Regions  []detection.Region `json:"regions"`
}

func (s *Server) handleTemplateDetectRegions(args json.RawMessage) (interface{}, error) {
	var a templateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	tpl, err := s.loadTemplate(a.Path, a.Reload)
	if err != nil {
		return nil, err
	}
	regions, err := s.engine.Detect(tpl)
	if err != nil {
		return nil, err
	}
	return &RegionsResult{Template: a.Path, Count: len(regions), Regions: regions}, nil
}

// FieldsResult is the result of template_classify_regions.
type FieldsResult struct {
	Template string       `json:"template"`
	Count    int          `json:"count"`
	Fields   []card.Field `json:"fields"`
}

func (s *Server) handleTemplateClassifyRegions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	tpl, err := s.loadTemplate(a.Path, a.Reload)
	if err != nil {
		return nil, err
	}
	layout, err := s.engine.Prepare(ctx, tpl)
	if err != nil {
		return nil, err
	}
	fieldList, err := s.engine.Classify(ctx, layout)
	if err != nil {
		return nil, err
	}
	return &FieldsResult{Template: a.Path, Count: len(fieldList), Fields: fieldList}, nil
}

// === Card Rendering Handlers ===

type cardRenderArgs struct {
	Template         string `json:"template"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	StaffNumber      string `json:"staff_number"`
	CredentialNumber string `json:"credential_number"`
	TeachingStaff    *bool  `json:"teaching_staff"`
	Photo            string `json:"photo"`
	Reload           bool   `json:"reload"`
}

func (s *Server) handleCardRender(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a cardRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	tpl, err := s.loadTemplate(a.Template, a.Reload)
	if err != nil {
		return nil, err
	}
	layout, err := s.engine.Prepare(ctx, tpl)
	if err != nil {
		return nil, err
	}
	rec := card.PersonRecord{
		Row:              1,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		StaffNumber:      a.StaffNumber,
		CredentialNumber: a.CredentialNumber,
		TeachingStaff:    a.TeachingStaff,
		PhotoRef:         a.Photo,
	}
	return s.engine.Process(ctx, layout, rec)
}
