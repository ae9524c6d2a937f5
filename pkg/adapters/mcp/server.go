package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cutline"
	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/internal/source"
	"github.com/aretw0/cutline/pkg/config"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/jobs"
	"github.com/aretw0/cutline/pkg/protocol"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine defines what the MCP server needs from cutline.Engine.
type Engine interface {
	Profile(ctx context.Context, name string) (domain.DeviceProfile, error)
	Profiles(ctx context.Context) ([]string, error)
	Compile(ctx context.Context, src domain.Source, profile domain.DeviceProfile, params domain.JobParams) (*cutline.Result, error)
	Plot(ctx context.Context, device string, src domain.Source, params domain.JobParams) (*domain.Job, error)
	Job(ctx context.Context, id string) (*domain.Job, error)
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Devices() []jobs.DeviceInfo
}

// ConvertArgs are the arguments of the convert tool.
type ConvertArgs struct {
	Source  string `json:"source,omitempty"`
	SVG     string `json:"svg,omitempty"`
	Profile string `json:"profile"`
	Params  string `json:"params,omitempty"`
}

// ConvertResult is the output of the convert tool.
type ConvertResult struct {
	Dialect string  `json:"dialect" jsonschema_description:"Dialect the program is encoded in"`
	Groups  int     `json:"groups" jsonschema_description:"Number of command groups"`
	Bytes   int     `json:"bytes" jsonschema_description:"Program size in bytes"`
	Travel  float64 `json:"travel" jsonschema_description:"Pen-up travel distance"`
	Program string  `json:"program" jsonschema_description:"The encoded program"`
}

// PlotArgs are the arguments of the plot tool.
type PlotArgs struct {
	Device string `json:"device"`
	Source string `json:"source,omitempty"`
	SVG    string `json:"svg,omitempty"`
	Params string `json:"params,omitempty"`
}

// JobArgs select a job, and for control_job the action to apply.
type JobArgs struct {
	ID     string `json:"id"`
	Action string `json:"action,omitempty"`
}

// Server wraps the cutline Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("cutline-mcp", strings.TrimSpace(cutline.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_dialects",
		mcp.WithDescription("List the protocol dialects and the capabilities each supports."),
	), s.handleListDialects)

	s.mcpServer.AddTool(mcp.NewTool("list_devices",
		mcp.WithDescription("List the configured devices with their status and position."),
	), s.handleListDevices)

	convertTool := mcp.NewTool("convert",
		mcp.WithDescription("Convert a drawing into a device program without sending it."),
		mcp.WithString("profile", mcp.Required(), mcp.Description("Device profile name")),
		mcp.WithString("source", mcp.Description("Source document as JSON (exclusive with svg)")),
		mcp.WithString("svg", mcp.Description("SVG markup (exclusive with source)")),
		mcp.WithString("params", mcp.Description("JSON object of job parameters (copies, overlap, order, ...)")),
		mcp.WithOutputSchema[ConvertResult](),
	)
	s.mcpServer.AddTool(convertTool, mcp.NewStructuredToolHandler(s.handleConvert))

	plotTool := mcp.NewTool("plot",
		mcp.WithDescription("Submit a drawing to a device. Returns the queued job."),
		mcp.WithString("device", mcp.Required(), mcp.Description("Device name")),
		mcp.WithString("source", mcp.Description("Source document as JSON (exclusive with svg)")),
		mcp.WithString("svg", mcp.Description("SVG markup (exclusive with source)")),
		mcp.WithString("params", mcp.Description("JSON object of job parameters")),
		mcp.WithOutputSchema[domain.Job](),
	)
	s.mcpServer.AddTool(plotTool, mcp.NewStructuredToolHandler(s.handlePlot))

	statusTool := mcp.NewTool("job_status",
		mcp.WithDescription("Get the status and progress of a job."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Job ID")),
		mcp.WithOutputSchema[domain.Job](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleJobStatus))

	controlTool := mcp.NewTool("control_job",
		mcp.WithDescription("Pause, resume or cancel a running job."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Job ID")),
		mcp.WithString("action", mcp.Required(), mcp.Enum("pause", "resume", "cancel")),
		mcp.WithOutputSchema[domain.Job](),
	)
	s.mcpServer.AddTool(controlTool, mcp.NewStructuredToolHandler(s.handleControlJob))
}

func (s *Server) handleListDialects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(protocol.Describe())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(s.engine.Devices())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// Handler methods for structured tools

func (s *Server) handleConvert(ctx context.Context, request mcp.CallToolRequest, args ConvertArgs) (ConvertResult, error) {
	src, params, err := decodeJob(args.Source, args.SVG, args.Params)
	if err != nil {
		return ConvertResult{}, err
	}
	profile, err := s.engine.Profile(ctx, args.Profile)
	if err != nil {
		return ConvertResult{}, err
	}

	res, err := s.engine.Compile(ctx, src, profile, params)
	if err != nil {
		s.logger.Warn("MCP Convert: failed", "profile", args.Profile, "err", err)
		return ConvertResult{}, fmt.Errorf("convert failed: %w", err)
	}
	return ConvertResult{
		Dialect: res.Program.Dialect,
		Groups:  len(res.Program.Groups),
		Bytes:   res.Program.Size(),
		Travel:  res.Travel,
		Program: string(res.Program.Bytes()),
	}, nil
}

func (s *Server) handlePlot(ctx context.Context, request mcp.CallToolRequest, args PlotArgs) (domain.Job, error) {
	src, params, err := decodeJob(args.Source, args.SVG, args.Params)
	if err != nil {
		return domain.Job{}, err
	}
	job, err := s.engine.Plot(ctx, args.Device, src, params)
	if err != nil {
		return domain.Job{}, fmt.Errorf("plot failed: %w", err)
	}
	s.logger.Info("MCP Plot: job submitted", "job_id", job.ID, "device", args.Device)
	return *job, nil
}

func (s *Server) handleJobStatus(ctx context.Context, request mcp.CallToolRequest, args JobArgs) (domain.Job, error) {
	job, err := s.engine.Job(ctx, args.ID)
	if err != nil {
		return domain.Job{}, err
	}
	return *job, nil
}

func (s *Server) handleControlJob(ctx context.Context, request mcp.CallToolRequest, args JobArgs) (domain.Job, error) {
	var fn func(context.Context, string) error
	switch args.Action {
	case "pause":
		fn = s.engine.Pause
	case "resume":
		fn = s.engine.Resume
	case "cancel":
		fn = s.engine.Cancel
	default:
		return domain.Job{}, fmt.Errorf("unknown action %q", args.Action)
	}
	if err := fn(ctx, args.ID); err != nil {
		return domain.Job{}, fmt.Errorf("%s failed: %w", args.Action, err)
	}
	return s.handleJobStatus(ctx, request, args)
}

func decodeJob(doc, svg, rawParams string) (domain.Source, domain.JobParams, error) {
	var src domain.Source
	var err error
	switch {
	case doc != "" && svg != "":
		return src, domain.JobParams{}, errors.New("source and svg are exclusive")
	case doc != "":
		src, err = source.Read(strings.NewReader(doc), source.FormatJSON)
	case svg != "":
		src, err = source.ParseSVG(strings.NewReader(svg))
	default:
		return src, domain.JobParams{}, errors.New("source or svg is required")
	}
	if err != nil {
		return src, domain.JobParams{}, err
	}

	var raw map[string]any
	if rawParams != "" {
		if err := json.Unmarshal([]byte(rawParams), &raw); err != nil {
			return src, domain.JobParams{}, fmt.Errorf("invalid params: %w", err)
		}
	}
	params, err := config.DecodeParams(raw)
	return src, params, err
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("cutline://dialects", "Protocol Dialects",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(protocol.Describe())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "cutline://dialects",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource("cutline://profiles", "Device Profiles",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.engine.Profiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}
		profiles := make([]domain.DeviceProfile, 0, len(names))
		for _, name := range names {
			p, err := s.engine.Profile(ctx, name)
			if err != nil {
				return nil, err
			}
			profiles = append(profiles, p)
		}
		jsonBytes, err := json.Marshal(profiles)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "cutline://profiles",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
