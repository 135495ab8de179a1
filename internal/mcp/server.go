package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"covreport/internal/config"
	"covreport/internal/coverage"
	"covreport/internal/report"
	"covreport/internal/stats"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server exposes the comparison pipeline as MCP tools over stdio.
type Server struct {
	cfg     *config.AppConfig
	version string
}

// NewServer creates a new MCP server bound to the loaded configuration.
func NewServer(cfg *config.AppConfig, version string) *Server {
	return &Server{cfg: cfg, version: version}
}

// Run serves the stdio transport until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "covreport", Version: s.version}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_datasets",
		Description: "List the coverage datasets available in the configured data directory, with per-project entity counts.",
	}, s.listDatasets)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_comparison_summary",
		Description: "Compute per-project statistics and the cross-project summary without writing a report.",
	}, s.getComparisonSummary)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "generate_report",
		Description: "Generate the opportunity comparison HTML report and return its path.",
	}, s.generateReport)

	log.Info().Msg("MCP server starting stdio loop")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

type listDatasetsInput struct{}

type datasetInfo struct {
	ProjectKey      string `json:"project_key"`
	OpportunityName string `json:"opportunity_name"`
	DeliveryUnits   int    `json:"delivery_units"`
	ServicePoints   int    `json:"service_points"`
	FieldWorkers    int    `json:"field_workers"`
	ServiceAreas    int    `json:"service_areas"`
}

type listDatasetsOutput struct {
	Datasets []datasetInfo `json:"datasets"`
}

func (s *Server) listDatasets(ctx context.Context, req *mcp.CallToolRequest, in listDatasetsInput) (*mcp.CallToolResult, listDatasetsOutput, error) {
	datasets, err := coverage.LoadDir(s.cfg.DataDir)
	if err != nil {
		return nil, listDatasetsOutput{}, err
	}

	keys := make([]string, 0, len(datasets))
	for key := range datasets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := listDatasetsOutput{Datasets: []datasetInfo{}}
	for _, key := range keys {
		data := datasets[key]
		out.Datasets = append(out.Datasets, datasetInfo{
			ProjectKey:      key,
			OpportunityName: data.OpportunityName,
			DeliveryUnits:   len(data.DeliveryUnits),
			ServicePoints:   len(data.ServicePoints),
			FieldWorkers:    len(data.FieldWorkers),
			ServiceAreas:    len(data.ServiceAreas),
		})
	}

	return textResult(out), out, nil
}

type summaryInput struct{}

func (s *Server) getComparisonSummary(ctx context.Context, req *mcp.CallToolRequest, in summaryInput) (*mcp.CallToolResult, stats.ComparisonStats, error) {
	datasets, err := coverage.LoadDir(s.cfg.DataDir)
	if err != nil {
		return nil, stats.ComparisonStats{}, err
	}
	if len(datasets) == 0 {
		return nil, stats.ComparisonStats{}, fmt.Errorf("no coverage datasets found in %s", s.cfg.DataDir)
	}

	summary := stats.Summarize(datasets)
	return textResult(summary), summary, nil
}

type generateReportInput struct {
	ClumpingRatio float64 `json:"clumping_ratio,omitempty" jsonschema:"ratio threshold for identifying clumped DUs (service points / buildings); default from configuration"`
	LookbackDays  int     `json:"lookback_days,omitempty" jsonschema:"trailing window in days for the unique FLW count; default from configuration"`
	Output        string  `json:"output,omitempty" jsonschema:"output file path for the HTML report; default from configuration"`
}

type generateReportOutput struct {
	File     string `json:"file"`
	Projects int    `json:"projects"`
}

func (s *Server) generateReport(ctx context.Context, req *mcp.CallToolRequest, in generateReportInput) (*mcp.CallToolResult, generateReportOutput, error) {
	datasets, err := coverage.LoadDir(s.cfg.DataDir)
	if err != nil {
		return nil, generateReportOutput{}, err
	}

	opts := report.Options{
		Series: stats.Options{
			ClumpingRatio: s.cfg.ClumpingRatio,
			LookbackDays:  s.cfg.LookbackDays,
		},
		OutputPath: s.cfg.OutputPath,
	}
	if in.ClumpingRatio > 0 {
		opts.Series.ClumpingRatio = in.ClumpingRatio
	}
	if in.LookbackDays > 0 {
		opts.Series.LookbackDays = in.LookbackDays
	}
	if in.Output != "" {
		opts.OutputPath = in.Output
	}

	file, err := report.Generate(ctx, datasets, opts)
	if err != nil {
		if errors.Is(err, report.ErrNoDatasets) {
			return nil, generateReportOutput{}, fmt.Errorf("no coverage datasets found in %s", s.cfg.DataDir)
		}
		return nil, generateReportOutput{}, err
	}

	out := generateReportOutput{File: file, Projects: len(datasets)}
	return textResult(out), out, nil
}

func textResult(data any) *mcp.CallToolResult {
	text, _ := json.MarshalIndent(data, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(text)}},
	}
}
