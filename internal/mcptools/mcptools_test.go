package mcptools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/data/repos"
	"github.com/pyplots/pyplots-backend/internal/data/repos/testutil"
	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/services"
)

func newTestTools(t *testing.T) *Tools {
	t.Helper()
	ctx := context.Background()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	rs := repos.NewSet(gdb, log)

	if err := rs.Libraries.EnsureSeed(ctx, nil, domain.SeedLibraries()); err != nil {
		t.Fatalf("seed libraries: %v", err)
	}
	testutil.SeedSpec(t, ctx, gdb, "scatter-basic", "Basic Scatter Plot",
		domain.TagMap{domain.TagPlotType: {"scatter"}, domain.TagDomain: {"statistics"}})
	testutil.SeedSpec(t, ctx, gdb, "line-basic", "Basic Line Plot",
		domain.TagMap{domain.TagPlotType: {"line"}})

	testutil.SeedImpl(t, ctx, gdb, "scatter-basic", "matplotlib",
		testutil.WithScore(90),
		testutil.WithImplTags(domain.TagMap{domain.TagTechniques: {"colormap"}}))
	testutil.SeedImpl(t, ctx, gdb, "line-basic", "seaborn", testutil.WithScore(85))
	// Ungenerated; its tags must not surface.
	testutil.SeedImpl(t, ctx, gdb, "line-basic", "plotly",
		testutil.WithoutCode(),
		testutil.WithImplTags(domain.TagMap{domain.TagTechniques: {"webgl"}}))

	c := cache.New(64, time.Minute)
	t.Cleanup(c.Close)
	return &Tools{
		gdb:     gdb,
		repos:   rs,
		catalog: services.NewCatalogService(gdb, rs, c, log),
		cache:   c,
		baseURL: "https://pyplots.ai",
		log:     log,
	}
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected non-empty tool result")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content")
	}
	return text.Text
}

func TestServerRegistersTools(t *testing.T) {
	tools := newTestTools(t)
	if tools.Server() == nil {
		t.Fatalf("expected MCP server instance")
	}
}

func TestHandleListSpecsPagination(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.handleListSpecs(context.Background(), toolRequest(map[string]any{
		"limit":  float64(1),
		"offset": float64(1),
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var payload struct {
		Total  int `json:"total"`
		Offset int `json:"offset"`
		Specs  []struct {
			ID         string `json:"id"`
			WebsiteURL string `json:"website_url"`
		} `json:"specs"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Total != 2 || payload.Offset != 1 || len(payload.Specs) != 1 {
		t.Fatalf("pagination: %+v", payload)
	}
	if payload.Specs[0].ID != "scatter-basic" {
		t.Fatalf("page content: %+v", payload.Specs)
	}
	if payload.Specs[0].WebsiteURL != "https://pyplots.ai/plots/scatter-basic" {
		t.Fatalf("website_url: %q", payload.Specs[0].WebsiteURL)
	}
}

func TestHandleSearchSpecsByTags(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.handleSearchSpecs(context.Background(), toolRequest(map[string]any{
		"plot_type": "scatter, heatmap",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "scatter-basic") || strings.Contains(text, "line-basic") {
		t.Fatalf("search result: %s", text)
	}

	res, err = tools.handleSearchSpecs(context.Background(), toolRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("empty search must be a tool error")
	}
}

func TestHandleImplementation(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.handleImplementation(context.Background(), toolRequest(map[string]any{
		"spec_id": "scatter-basic",
		"library": "matplotlib",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "import matplotlib.pyplot as plt") {
		t.Fatalf("code missing: %s", text)
	}
	if !strings.Contains(text, "https://pyplots.ai/plots/scatter-basic/matplotlib") {
		t.Fatalf("website_url missing: %s", text)
	}

	res, err = tools.handleImplementation(context.Background(), toolRequest(map[string]any{
		"spec_id": "line-basic",
		"library": "plotly",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("ungenerated implementation must read as missing")
	}
}

func TestHandleTagValues(t *testing.T) {
	tools := newTestTools(t)

	res, err := tools.handleTagValues(context.Background(), toolRequest(map[string]any{
		"category": "plot_type",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text := resultText(t, res)
	if !strings.Contains(text, "scatter") || !strings.Contains(text, "line") {
		t.Fatalf("spec tag values: %s", text)
	}

	res, err = tools.handleTagValues(context.Background(), toolRequest(map[string]any{
		"category": "techniques",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	text = resultText(t, res)
	if !strings.Contains(text, "colormap") {
		t.Fatalf("impl tag values: %s", text)
	}
	if strings.Contains(text, "webgl") {
		t.Fatalf("ungenerated implementation tags leaked: %s", text)
	}

	res, err = tools.handleTagValues(context.Background(), toolRequest(map[string]any{
		"category": "colour",
	}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "unknown category") {
		t.Fatalf("unknown category must be rejected: %s", resultText(t, res))
	}
}
