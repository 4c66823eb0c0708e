// Package server implements an MCP (Model Context Protocol) server for the
// ID card tools.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests (one per line)
//   - Output: JSON-RPC responses (one per line)
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Template Analysis:
//   - template_info: Template dimensions and format
//   - template_detect_regions: Placeholder boxes in raster order
//   - template_classify_regions: Placeholder boxes with their field kinds
//
// Card Rendering:
//   - card_render: Render and save one person's card
//
// Tools share the card engine and configuration of the batch CLI. Templates
// are decoded once and cached by path for the lifetime of the server.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(engine, cache, logger, version)
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    return err
//	}
package server
