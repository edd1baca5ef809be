package api

import (
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/wardrobe/pkg/intent"
	"github.com/hazyhaar/wardrobe/pkg/kit"
	"github.com/hazyhaar/wardrobe/pkg/scoring"
)

// RegisterMCPTools registers the wardrobe MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, eps Endpoints) {
	kit.RegisterMCPTool(srv, mcp.NewTool("analyze_query",
		mcp.WithDescription("Extract the shopping intent (item types, colors, price band, occasion, season, quality, complete outfit) from an Egyptian Arabic or English apparel query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The customer's message")),
	), eps.Analyze, decodeAnalyze)

	kit.RegisterMCPTool(srv, mcp.NewTool("score_candidates",
		mcp.WithDescription("Score and filter catalog products against a shopping intent. Returns the survivors best first."),
		mcp.WithString("candidates", mcp.Required(), mcp.Description("JSON array of products: id, name, category, colors, price, occasion_tags, season_tags, quality_rating, best_seller, is_set")),
		mcp.WithString("intent", mcp.Description("JSON intent object as returned by analyze_query; takes precedence over query")),
		mcp.WithString("query", mcp.Description("Customer message to analyze when no intent is given")),
	), eps.Score, decodeScore)

	kit.RegisterMCPTool(srv, mcp.NewTool("compose_response",
		mcp.WithDescription("Compose the Egyptian Arabic chat reply announcing how many products were found for an intent."),
		mcp.WithNumber("count", mcp.Required(), mcp.Description("Number of products found")),
		mcp.WithString("intent", mcp.Description("JSON intent object; takes precedence over query")),
		mcp.WithString("query", mcp.Description("Customer message to analyze when no intent is given")),
	), eps.Compose, decodeCompose)

	kit.RegisterMCPTool(srv, mcp.NewTool("search_products",
		mcp.WithDescription("Analyze a query, fetch matching products from the catalog, score them and compose the reply."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The customer's message")),
	), eps.Search, decodeSearch)

	kit.RegisterMCPTool(srv, mcp.NewTool("lexicon_info",
		mcp.WithDescription("Describe the loaded lexicon and scoring policy."),
	), eps.Lexicon, func(map[string]any) (any, error) { return nil, nil })
}

func decodeAnalyze(args map[string]any) (any, error) {
	q := kit.StringArg(args, "query")
	if q == "" {
		return nil, fmt.Errorf("query is required")
	}
	return &analyzeReq{Query: q}, nil
}

func decodeIntentArg(args map[string]any) (*intent.Intent, error) {
	var in intent.Intent
	ok, err := kit.DecodeJSONArg(args, "intent", &in)
	if err != nil || !ok {
		return nil, err
	}
	return &in, nil
}

func decodeScore(args map[string]any) (any, error) {
	req := &scoreReq{Query: kit.StringArg(args, "query")}
	ok, err := kit.DecodeJSONArg(args, "candidates", &req.Candidates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("candidates is required")
	}
	if req.Intent, err = decodeIntentArg(args); err != nil {
		return nil, err
	}
	if req.Candidates == nil {
		req.Candidates = []scoring.Candidate{}
	}
	return req, nil
}

func decodeCompose(args map[string]any) (any, error) {
	n, ok := args["count"].(float64)
	if !ok {
		return nil, fmt.Errorf("count must be a number")
	}
	if n != math.Trunc(n) {
		return nil, fmt.Errorf("count must be a whole number")
	}
	req := &composeReq{Query: kit.StringArg(args, "query"), Count: int(n)}
	var err error
	if req.Intent, err = decodeIntentArg(args); err != nil {
		return nil, err
	}
	return req, nil
}

func decodeSearch(args map[string]any) (any, error) {
	q := kit.StringArg(args, "query")
	if q == "" {
		return nil, fmt.Errorf("query is required")
	}
	return &searchReq{Query: q}, nil
}
