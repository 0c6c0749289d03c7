// Package tools registers the engine's MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/services"
)

// Deps holds the collaborators the tools call into.
type Deps struct {
	Answers *services.AnswerService
	Logger  *zap.Logger
}

// RegisterAll adds every engine tool to the MCP server.
func RegisterAll(s *server.MCPServer, deps *Deps) {
	registerAskDatabaseTool(s, deps)
	registerPlanQueryTool(s, deps)
	registerValidateSQLTool(s, deps)
	registerSchemaContextTool(s, deps)
	registerListTablesTool(s, deps)
	registerRelatedTablesTool(s, deps)
}

// registerAskDatabaseTool adds the ask_database tool: the full pipeline
// from question to executed answer.
func registerAskDatabaseTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"ask_database",
		mcp.WithDescription(
			"Answer a natural-language question about the database. "+
				"Plans the relevant tables and join path, generates SQL, validates it, "+
				"executes it read-only, and returns the result with a summary.",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The natural-language question to answer"),
		),
		mcp.WithArray(
			"tables",
			mcp.Description("Optional: restrict planning to these tables"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return nil, err
		}
		tables := getStringSlice(req, "tables")

		answer, err := deps.Answers.Answer(ctx, question, tables, nil)
		if err != nil {
			return NewErrorResult("answer_failed", err.Error()), nil
		}
		return jsonResult(answer)
	})
}

// registerPlanQueryTool adds the plan_query tool: planning only, no
// generation or execution.
func registerPlanQueryTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"plan_query",
		mcp.WithDescription(
			"Plan a question against the schema without generating SQL. "+
				"Returns the resolved tables, the join path, and the schema context "+
				"that generation would receive.",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The natural-language question to plan"),
		),
		mcp.WithArray(
			"tables",
			mcp.Description("Optional: restrict planning to these tables"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return nil, err
		}
		tables := getStringSlice(req, "tables")

		plan, err := deps.Answers.Planner().PlanQuery(question, tables)
		if err != nil {
			return NewErrorResult("plan_failed", err.Error()), nil
		}
		return jsonResult(plan)
	})
}

// registerValidateSQLTool adds the validate_sql tool.
func registerValidateSQLTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"validate_sql",
		mcp.WithDescription(
			"Validate a SQL statement against the schema: statement shape, "+
				"table and column existence, join sanity, row-limit and "+
				"sensitive-column advisories. Never executes the statement.",
		),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("The SQL statement to validate"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sqlText, err := req.RequireString("sql")
		if err != nil {
			return nil, err
		}

		snap, err := deps.Answers.Planner().Snapshot()
		if err != nil {
			return NewErrorResult("schema_not_loaded", err.Error()), nil
		}

		verdict := deps.Answers.Validator().Validate(sqlText, snap.Model)
		return jsonResult(verdict)
	})
}

// registerSchemaContextTool adds the get_schema_context tool.
func registerSchemaContextTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_schema_context",
		mcp.WithDescription(
			"Render the bounded schema context for a set of tables: columns, "+
				"sample rows, and the join path connecting them.",
		),
		mcp.WithArray(
			"tables",
			mcp.Required(),
			mcp.Description("The tables to describe"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables := getStringSlice(req, "tables")
		if len(tables) == 0 {
			return NewErrorResult("invalid_parameters", "tables must be a non-empty array"), nil
		}

		context, err := deps.Answers.Planner().SchemaContext(tables)
		if err != nil {
			return NewErrorResult("context_failed", err.Error()), nil
		}
		return mcp.NewToolResultText(context), nil
	})
}

// registerListTablesTool adds the list_tables tool.
func registerListTablesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription("List the tables in the schema with their row counts and connectivity."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		snap, err := deps.Answers.Planner().Snapshot()
		if err != nil {
			return NewErrorResult("schema_not_loaded", err.Error()), nil
		}

		type tableEntry struct {
			Name     string `json:"name"`
			Category string `json:"category,omitempty"`
			Role     string `json:"role,omitempty"`
			RowCount int64  `json:"row_count"`
			Degree   int    `json:"degree"`
		}
		tables := snap.Model.Tables()
		entries := make([]tableEntry, 0, len(tables))
		for _, t := range tables {
			entries = append(entries, tableEntry{
				Name:     t.Name,
				Category: t.Category,
				Role:     t.Role,
				RowCount: t.RowCount,
				Degree:   snap.Graph.Degree(t.Name),
			})
		}
		return jsonResult(map[string]any{
			"database": snap.Model.Database(),
			"tables":   entries,
		})
	})
}

// registerRelatedTablesTool adds the related_tables tool.
func registerRelatedTablesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"related_tables",
		mcp.WithDescription("Find tables related to a given table within a hop bound."),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("The starting table"),
		),
		mcp.WithNumber(
			"max_hops",
			mcp.Description("How many relationship hops to search (default: 1)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return nil, err
		}
		maxHops := req.GetInt("max_hops", 0)

		related, err := deps.Answers.Planner().RelatedTables(table, maxHops)
		if err != nil {
			return NewErrorResult("schema_not_loaded", err.Error()), nil
		}
		return jsonResult(map[string]any{
			"table":   table,
			"related": related,
		})
	})
}

// getStringSlice reads an optional array argument as strings.
func getStringSlice(req mcp.CallToolRequest, key string) []string {
	args, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range args {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// jsonResult marshals a payload into a text tool result.
func jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
