// Package mcptools exposes the catalog read contract as MCP tool calls
// over stdio, so AI assistants can browse specs and implementations
// directly. Payloads mirror the HTTP API shapes, augmented with a
// canonical website_url.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gorm.io/gorm"

	"github.com/pyplots/pyplots-backend/internal/cache"
	"github.com/pyplots/pyplots-backend/internal/data/repos"
	"github.com/pyplots/pyplots-backend/internal/domain"
	"github.com/pyplots/pyplots-backend/internal/platform/db"
	"github.com/pyplots/pyplots-backend/internal/platform/logger"
	"github.com/pyplots/pyplots-backend/internal/services"
)

// tagCategories is the closed set get_tag_values accepts, spanning the
// spec-level and impl-level namespaces.
var tagCategories = append(append([]string{}, domain.SpecTagCategories...), domain.ImplTagCategories...)

// Tools owns the adapter's database session and catalog services. It
// opens its own connection pool so assistant traffic never contends
// with HTTP request contexts.
type Tools struct {
	gdb     *gorm.DB
	repos   repos.Set
	catalog *services.CatalogService
	cache   *cache.Cache
	baseURL string
	log     *logger.Logger
}

func New(dbCfg db.Config, baseURL string, log *logger.Logger) (*Tools, error) {
	if !dbCfg.Configured() {
		return nil, fmt.Errorf("no database configured")
	}
	gdb, err := db.Open(dbCfg, log)
	if err != nil {
		return nil, fmt.Errorf("open adapter database: %w", err)
	}

	c := cache.New(256, 5*time.Minute)
	rs := repos.NewSet(gdb, log)
	return &Tools{
		gdb:     gdb,
		repos:   rs,
		catalog: services.NewCatalogService(gdb, rs, c, log),
		cache:   c,
		baseURL: baseURL,
		log:     log.With("component", "mcptools"),
	}, nil
}

func (t *Tools) Close() error {
	t.cache.Close()
	return db.Close(t.gdb)
}

func (t *Tools) websiteURL(specID string) string {
	return t.baseURL + "/plots/" + specID
}

// Server builds the MCP server with the six catalog tools registered.
func (t *Tools) Server() *server.MCPServer {
	srv := server.NewMCPServer(
		"pyplots",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("pyplots.ai serves reviewed Python plot examples across the major "+
			"plotting libraries. Use these tools to find a plot spec by tags, read its "+
			"implementations, and fetch runnable source code."),
	)

	srv.AddTool(
		mcp.NewTool("list_specs",
			mcp.WithDescription("List plot specifications that have at least one implementation, paginated."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithNumber("limit", mcp.Description("Max specs to return (default 20, max 100)")),
			mcp.WithNumber("offset", mcp.Description("Number of specs to skip (default 0)")),
		),
		t.handleListSpecs,
	)

	srv.AddTool(
		mcp.NewTool("search_specs_by_tags",
			mcp.WithDescription("Search specs by tag values. Each argument takes comma-separated values; a spec matches when any value appears in its tags."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("plot_type", mcp.Description("Plot type tags, e.g. scatter,line")),
			mcp.WithString("data_type", mcp.Description("Data type tags, e.g. numeric,timeseries")),
			mcp.WithString("domain", mcp.Description("Domain tags, e.g. finance,statistics")),
			mcp.WithString("features", mcp.Description("Feature tags, e.g. legend,annotations")),
		),
		t.handleSearchSpecs,
	)

	srv.AddTool(
		mcp.NewTool("get_spec_detail",
			mcp.WithDescription("Full detail for one spec: description, tags and all implementations with code."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("spec_id", mcp.Required(), mcp.Description("Spec id, e.g. scatter-basic")),
		),
		t.handleSpecDetail,
	)

	srv.AddTool(
		mcp.NewTool("get_implementation",
			mcp.WithDescription("One implementation of a spec in a specific library, with source code and review notes."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("spec_id", mcp.Required(), mcp.Description("Spec id")),
			mcp.WithString("library", mcp.Required(), mcp.Description("Library id, e.g. matplotlib")),
		),
		t.handleImplementation,
	)

	srv.AddTool(
		mcp.NewTool("list_libraries",
			mcp.WithDescription("List the supported plotting libraries."),
			mcp.WithReadOnlyHintAnnotation(true),
		),
		t.handleListLibraries,
	)

	srv.AddTool(
		mcp.NewTool("get_tag_values",
			mcp.WithDescription("All distinct values in use for one tag category."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("category", mcp.Required(),
				mcp.Description("One of: plot_type, data_type, domain, features, dependencies, techniques, patterns, dataprep, styling")),
		),
		t.handleTagValues,
	)

	return srv
}

func (t *Tools) handleListSpecs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := intArg(req, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, err := t.catalog.ListSpecs(ctx)
	if err != nil {
		return mcp.NewToolResultError("list specs: " + err.Error()), nil
	}

	total := len(items)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return t.jsonResult(map[string]any{
		"total":  total,
		"offset": offset,
		"specs":  t.withWebsiteURLs(items[offset:end]),
	})
}

func (t *Tools) handleSearchSpecs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var values []string
	for _, category := range domain.SpecTagCategories {
		values = append(values, splitArg(req, category)...)
	}
	if len(values) == 0 {
		return mcp.NewToolResultError("provide at least one tag value to search for"), nil
	}

	specs, err := t.repos.Specs.SearchByTags(ctx, nil, values)
	if err != nil {
		return mcp.NewToolResultError("search specs: " + err.Error()), nil
	}

	var items []services.SpecListItem
	for _, spec := range specs {
		avail := spec.AvailableImplementations()
		if len(avail) == 0 {
			continue
		}
		items = append(items, services.SpecListItemFor(spec, avail))
	}

	return t.jsonResult(map[string]any{
		"total": len(items),
		"specs": t.withWebsiteURLs(items),
	})
}

func (t *Tools) handleSpecDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	specID, _ := req.GetArguments()["spec_id"].(string)
	if specID == "" {
		return mcp.NewToolResultError("spec_id is required"), nil
	}

	detail, err := t.catalog.GetSpec(ctx, specID)
	if err != nil {
		return mcp.NewToolResultError("get spec: " + err.Error()), nil
	}

	return t.jsonResult(map[string]any{
		"spec":        detail,
		"website_url": t.websiteURL(specID),
	})
}

func (t *Tools) handleImplementation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	specID, _ := req.GetArguments()["spec_id"].(string)
	library, _ := req.GetArguments()["library"].(string)
	if specID == "" || library == "" {
		return mcp.NewToolResultError("spec_id and library are required"), nil
	}

	impl, err := t.catalog.Implementation(ctx, specID, library)
	if err != nil {
		return mcp.NewToolResultError("get implementation: " + err.Error()), nil
	}

	return t.jsonResult(map[string]any{
		"spec_id":        specID,
		"implementation": services.ImplView(impl),
		"website_url":    t.websiteURL(specID) + "/" + library,
	})
}

func (t *Tools) handleListLibraries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	libs, err := t.catalog.Libraries(ctx)
	if err != nil {
		return mcp.NewToolResultError("list libraries: " + err.Error()), nil
	}
	return t.jsonResult(map[string]any{"libraries": libs})
}

func (t *Tools) handleTagValues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, _ := req.GetArguments()["category"].(string)
	if !validCategory(category) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"VALIDATION: unknown category %q; expected one of %v", category, tagCategories)), nil
	}

	values, err := t.tagValues(ctx, category)
	if err != nil {
		return mcp.NewToolResultError("collect tag values: " + err.Error()), nil
	}
	return t.jsonResult(map[string]any{"category": category, "values": values})
}

// tagValues collects the distinct in-use values for one category from
// the relevant namespace.
func (t *Tools) tagValues(ctx context.Context, category string) ([]string, error) {
	seen := map[string]bool{}
	var values []string
	add := func(tags domain.TagMap) {
		for _, v := range tags.Values(category) {
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
	}

	specLevel := false
	for _, c := range domain.SpecTagCategories {
		if c == category {
			specLevel = true
		}
	}

	if specLevel {
		specs, err := t.repos.Specs.GetAll(ctx, nil)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			add(domain.DecodeTags(spec.Tags))
		}
	} else {
		impls, err := t.repos.Implementations.GetAll(ctx, nil)
		if err != nil {
			return nil, err
		}
		for _, impl := range impls {
			if impl.Available() {
				add(domain.DecodeTags(impl.Tags))
			}
		}
	}
	return values, nil
}

type specWithURL struct {
	services.SpecListItem
	WebsiteURL string `json:"website_url"`
}

func (t *Tools) withWebsiteURLs(items []services.SpecListItem) []specWithURL {
	out := make([]specWithURL, 0, len(items))
	for _, item := range items {
		out = append(out, specWithURL{SpecListItem: item, WebsiteURL: t.websiteURL(item.ID)})
	}
	return out
}

func (t *Tools) jsonResult(payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func validCategory(category string) bool {
	for _, c := range tagCategories {
		if c == category {
			return true
		}
	}
	return false
}

func intArg(req mcp.CallToolRequest, key string, def int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return def
	}
	return int(v)
}

func splitArg(req mcp.CallToolRequest, key string) []string {
	raw, _ := req.GetArguments()[key].(string)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
