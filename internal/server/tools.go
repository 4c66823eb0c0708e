package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var reloadProperty = map[string]interface{}{
	"type":        "boolean",
	"description": "Re-read the template from disk instead of using the cached copy. Default false",
	"default":     false,
}

func pathSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
			"reload": reloadProperty,
		},
		"required": []string{"path"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Template Analysis
		{
			Name:        "template_info",
			Description: "Load a card template (PNG, JPEG, GIF or PDF) and return its dimensions and format.",
			InputSchema: pathSchema("Path to the template file"),
		},
		{
			Name:        "template_detect_regions",
			Description: "Find the placeholder boxes of a card template. Regions are returned in raster order (top to bottom, then left to right).",
			InputSchema: pathSchema("Path to the template file"),
		},
		{
			Name:        "template_classify_regions",
			Description: "Find the placeholder boxes of a card template and classify each by the label printed inside it (name, staff_number, credential_number, role_label, photo, qr_code or unknown).",
			InputSchema: pathSchema("Path to the template file"),
		},

		// Card Rendering
		{
			Name:        "card_render",
			Description: "Render one ID card from a template and a person's details, and write it next to the photo. Returns the output path and the fields that were filled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"template": map[string]interface{}{
						"type":        "string",
						"description": "Path to the template file",
					},
					"first_name": map[string]interface{}{
						"type":        "string",
						"description": "Given name",
					},
					"last_name": map[string]interface{}{
						"type":        "string",
						"description": "Family name",
					},
					"staff_number": map[string]interface{}{
						"type":        "string",
						"description": "Staff (teacher) number",
					},
					"credential_number": map[string]interface{}{
						"type":        "string",
						"description": "Background-check credential (DBS) number",
					},
					"teaching_staff": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether the person is teaching staff; selects the role label",
					},
					"photo": map[string]interface{}{
						"type":        "string",
						"description": "Path to the portrait photo; the card is written beside it",
					},
					"reload": reloadProperty,
				},
				"required": []string{"template", "first_name", "last_name", "staff_number", "credential_number", "teaching_staff", "photo"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
