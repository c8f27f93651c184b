package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fieldbem/pdfrename/internal/bemrename"
	"github.com/fieldbem/pdfrename/internal/training"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps bemrename.Facade behind the MCP tool surface, mirroring
// the teacher's Server/registerXTools split one-for-one but pointed at
// the field-renaming operations instead of PDF reading.
type Server struct {
	facade    *bemrename.Facade
	mcpServer *server.MCPServer
}

// NewServer builds a Server backed by store (nil is valid; see
// bemrename.NewFacade) and registers its tools.
func NewServer(name, version string, store *training.Store) *Server {
	mcpServer := server.NewMCPServer(name, version, server.WithToolCapabilities(false))

	s := &Server{
		facade:    bemrename.NewFacade(store),
		mcpServer: mcpServer,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool(
		"analyze",
		mcp.WithDescription("Parse a PDF's AcroForm field tree and recover per-field context."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Full path to the source PDF")),
		mcp.WithString("passphrase", mcp.Description("Decryption passphrase, if encrypted")),
	)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyze)

	planTool := mcp.NewTool(
		"plan",
		mcp.WithDescription("Decide a BEM name for every field and build an ordered, conflict-free modification plan."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Full path to the source PDF")),
		mcp.WithString("passphrase", mcp.Description("Decryption passphrase, if encrypted")),
	)
	s.mcpServer.AddTool(planTool, s.handlePlan)

	applyTool := mcp.NewTool(
		"apply",
		mcp.WithDescription("Run analyze+decide+plan+apply end to end: rewrite field names, write mapping.csv and report.json, with mandatory backup."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Full path to the source PDF")),
		mcp.WithString("passphrase", mcp.Description("Decryption passphrase, if encrypted")),
		mcp.WithString("out_dir", mcp.Description("Directory for output artifacts (default: alongside path)")),
		mcp.WithString("form_id", mcp.Description("Form id recorded in the mapping CSV")),
		mcp.WithNumber("safety_threshold", mcp.Description("Minimum safety score required before mutation (default 0.5)")),
	)
	s.mcpServer.AddTool(applyTool, s.handleApply)

	rollbackTool := mcp.NewTool(
		"rollback",
		mcp.WithDescription("Restore a document from its BackupRecord JSON sidecar."),
		mcp.WithString("backup", mcp.Required(), mcp.Description("Path to the *_backup.json sidecar")),
	)
	s.mcpServer.AddTool(rollbackTool, s.handleRollback)
}

func (s *Server) handleAnalyze(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	passphrase, _ := args["passphrase"].(string)

	analysis, err := s.facade.Analyze(path, passphrase)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer analysis.Close()

	return textResult(map[string]any{
		"metadata":    analysis.Metadata,
		"field_count": len(analysis.Fields),
		"warnings":    analysis.Warnings,
	})
}

func (s *Server) handlePlan(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	passphrase, _ := args["passphrase"].(string)

	analysis, err := s.facade.Analyze(path, passphrase)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	decisions := s.facade.Decide(analysis)
	analysis.Close()

	plan, err := s.facade.Plan(path, passphrase, decisions)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer plan.Close()

	return textResult(plan.ModificationPlan)
}

func (s *Server) handleApply(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	passphrase, _ := args["passphrase"].(string)
	outDir, _ := args["out_dir"].(string)
	formID, _ := args["form_id"].(string)

	opts := bemrename.ProcessOptions{Passphrase: passphrase, OutDir: outDir, FormID: formID}
	if threshold, ok := args["safety_threshold"].(float64); ok {
		opts.SafetyThreshold = threshold
	}

	result, err := s.facade.Process(path, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return textResult(result)
}

func (s *Server) handleRollback(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	backup, err := request.RequireString("backup")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.facade.Rollback(backup)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return textResult(result)
}

// Run serves the tool set over stdio, the only transport the underlying
// mcp-go server exposes cleanly.
func (s *Server) Run() error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

func textResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
