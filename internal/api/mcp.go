package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates an MCP server with the lenslog tools and resources
// registered. It shares svc, and therefore the analysis gate, with the HTTP
// gateway.
func NewMCPServer(svc *Service) *server.MCPServer {
	s := server.NewMCPServer(
		"lenslog",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("lenslog analyses meal and homework photos and tracks daily macros and study progress."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("analyze_food_image",
			mcp.WithDescription("Estimate the macros of a meal photo and record it as a food entry."),
			mcp.WithString("image", mcp.Description("Base64-encoded image, with or without a data: prefix"), mcp.Required()),
			mcp.WithString("image_url", mcp.Description("Optional reference to keep with the entry")),
		),
		mcpAnalyzeFood(svc),
	)

	s.AddTool(
		mcp.NewTool("food_summary",
			mcp.WithDescription("Macro totals for the last 24 hours, the daily goals, and what remains."),
		),
		mcpFoodSummary(svc),
	)

	s.AddTool(
		mcp.NewTool("analyze_homework_image",
			mcp.WithDescription("Assess a photo of math homework and record the assessment."),
			mcp.WithString("image", mcp.Description("Base64-encoded image, with or without a data: prefix"), mcp.Required()),
			mcp.WithString("image_url", mcp.Description("Optional reference to keep with the assessment")),
		),
		mcpAnalyzeHomework(svc),
	)

	s.AddTool(
		mcp.NewTool("student_progress",
			mcp.WithDescription("Accuracy, knowledge-area averages and trend over the last 24 hours."),
		),
		mcpStudentProgress(svc),
	)

	s.AddTool(
		mcp.NewTool("food_calendar",
			mcp.WithDescription("Per-day macro goal achievement for one month."),
			mcp.WithNumber("year", mcp.Description("Year (default: current)")),
			mcp.WithNumber("month", mcp.Description("Month 1-12 (default: current)")),
			mcp.WithString("tz", mcp.Description("IANA time zone used to bucket days (default: server local)")),
		),
		mcpFoodCalendar(svc),
	)

	s.AddTool(
		mcp.NewTool("learning_calendar",
			mcp.WithDescription("Per-day homework goal achievement for one month."),
			mcp.WithNumber("year", mcp.Description("Year (default: current)")),
			mcp.WithNumber("month", mcp.Description("Month 1-12 (default: current)")),
			mcp.WithString("tz", mcp.Description("IANA time zone used to bucket days (default: server local)")),
		),
		mcpLearningCalendar(svc),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"lenslog://food/goals",
			"Daily Macro Goals",
			mcp.WithResourceDescription("Current daily calorie and macro targets as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceDailyGoals(svc),
	)

	s.AddResource(
		mcp.NewResource(
			"lenslog://homework/goals",
			"Learning Goals",
			mcp.WithResourceDescription("Current homework targets as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceLearningGoals(svc),
	)

	return s
}

func mcpAnalyzeFood(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		image, err := req.RequireString("image")
		if err != nil {
			return mcpError("image is required"), nil
		}
		entry, err := svc.RecordFood(ctx, image, "", req.GetString("image_url", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(entry)
	}
}

func mcpFoodSummary(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := svc.FoodSummary()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to build summary: %v", err)), nil
		}
		return mcpJSON(summary)
	}
}

func mcpAnalyzeHomework(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		image, err := req.RequireString("image")
		if err != nil {
			return mcpError("image is required"), nil
		}
		a, err := svc.RecordAssessment(ctx, image, "", req.GetString("image_url", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpJSON(a)
	}
}

func mcpStudentProgress(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := svc.Progress()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to build progress: %v", err)), nil
		}
		return mcpJSON(report)
	}
}

func mcpFoodCalendar(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		year, month, loc, err := calendarArgs(req, svc.Now())
		if err != nil {
			return mcpError(err.Error()), nil
		}
		cal, err := svc.FoodCalendar(year, month, loc)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to build calendar: %v", err)), nil
		}
		return mcpJSON(cal)
	}
}

func mcpLearningCalendar(svc *Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		year, month, loc, err := calendarArgs(req, svc.Now())
		if err != nil {
			return mcpError(err.Error()), nil
		}
		cal, err := svc.LearningCalendar(year, month, loc)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to build calendar: %v", err)), nil
		}
		return mcpJSON(cal)
	}
}

func calendarArgs(req mcp.CallToolRequest, now time.Time) (int, time.Month, *time.Location, error) {
	loc := time.Local
	if tz := req.GetString("tz", ""); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("invalid tz %q", tz)
		}
		loc = l
	}
	local := now.In(loc)

	year := req.GetInt("year", local.Year())
	if year < 1 || year > 9999 {
		return 0, 0, nil, fmt.Errorf("invalid year %d", year)
	}
	month := req.GetInt("month", int(local.Month()))
	if month < 1 || month > 12 {
		return 0, 0, nil, fmt.Errorf("invalid month %d", month)
	}
	return year, time.Month(month), loc, nil
}

func mcpResourceDailyGoals(svc *Service) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		goals, err := svc.Store().GetDailyGoals()
		if err != nil {
			return nil, fmt.Errorf("failed to get daily goals: %w", err)
		}
		return jsonResource(req.Params.URI, goals)
	}
}

func mcpResourceLearningGoals(svc *Service) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		goals, err := svc.Store().GetLearningGoals()
		if err != nil {
			return nil, fmt.Errorf("failed to get learning goals: %w", err)
		}
		return jsonResource(req.Params.URI, goals)
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
