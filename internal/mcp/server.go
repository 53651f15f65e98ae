package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf2docx/internal/config"
	"github.com/a3tai/pdf2docx/internal/convert"
	"github.com/a3tai/pdf2docx/internal/descriptions"
	"github.com/a3tai/pdf2docx/internal/jobs"
	"github.com/a3tai/pdf2docx/internal/logging"
	"github.com/a3tai/pdf2docx/internal/ocr"
	"github.com/a3tai/pdf2docx/internal/pdf"
	"github.com/a3tai/pdf2docx/internal/security"
)

const (
	docxExt    = ".docx"
	outputPerm = 0o644
)

// Converter runs conversions and resumes suspended ones.
type Converter interface {
	Convert(ctx context.Context, data []byte, onProgress convert.ProgressFunc) (*convert.Outcome, error)
	Resume(ctx context.Context, pending *convert.Pending, choice convert.Method, onProgress convert.ProgressFunc) (*convert.Result, error)
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	converter Converter
	jobs      *jobs.Store
	paths     *security.PathValidator
	logger    *bolt.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, converter Converter, store *jobs.Store, logger *bolt.Logger) (*Server, error) {
	if converter == nil {
		return nil, errors.New("converter cannot be nil")
	}
	if store == nil {
		store = jobs.NewStore(cfg.JobCapacity)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	paths, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		converter: converter,
		jobs:      store,
		paths:     paths,
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	convertTool := mcp.NewTool(
		descriptions.ToolConvert,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolConvert)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, relative to the configured directory or absolute inside it"),
		),
		mcp.WithString("output",
			mcp.Description("Path of the .docx to write (default: input with .docx extension)"),
		),
		mcp.WithString("scanned",
			mcp.Description("Pages without text: 'ask' suspends and returns a job id, 'image' embeds page images, 'ocr' recognizes text"),
			mcp.Enum(config.ScannedAsk, config.ScannedImage, config.ScannedOCR),
		),
	)
	s.mcpServer.AddTool(convertTool, s.handleConvert)

	resumeTool := mcp.NewTool(
		descriptions.ToolResume,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolResume)),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("Job id returned by pdf_to_word"),
		),
		mcp.WithString("choice",
			mcp.Required(),
			mcp.Description("'image' to embed page images or 'ocr' to recognize their text"),
			mcp.Enum(config.ScannedImage, config.ScannedOCR),
		),
		mcp.WithString("output",
			mcp.Description("Path of the .docx to write (default: input with .docx extension)"),
		),
	)
	s.mcpServer.AddTool(resumeTool, s.handleResume)

	infoTool := mcp.NewTool(
		descriptions.ToolInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolInfo)),
	)
	s.mcpServer.AddTool(infoTool, s.handleInfo)
}

func (s *Server) handleConvert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	output := stringArg(args, "output")
	policy := stringArg(args, "scanned")
	if policy == "" {
		policy = s.config.Scanned
	}
	if policy != config.ScannedAsk && policy != config.ScannedImage && policy != config.ScannedOCR {
		return mcp.NewToolResultError(fmt.Sprintf("invalid scanned policy %q: want ask, image or ocr", policy)), nil
	}

	input, err := s.paths.ResolveInput(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if output == "" {
		output = config.DocxPath(input)
	}
	output, err = s.paths.ResolveOutput(output, docxExt)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := pdf.NewValidator(s.config.MaxFileSize).ValidateFile(input); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read %s: %v", path, err)), nil
	}

	outcome, err := s.converter.Convert(ctx, data, s.progress(input))
	if err != nil {
		return s.failure(input, err), nil
	}

	result := outcome.Result
	if outcome.Pending != nil {
		if policy == config.ScannedAsk {
			job := s.jobs.Add(input, outcome.Pending)
			logging.With(s.logger.Info()).
				Add(logging.Job(job.ID)).
				Add(logging.Path(input)).
				Add(logging.Int("scanned", outcome.Pending.ScannedPageCount)).
				Msg("conversion suspended")
			return mcp.NewToolResultText(formatPending(job, len(outcome.Pending.Pages))), nil
		}
		result, err = s.converter.Resume(ctx, outcome.Pending, convert.Method(policy), s.progress(input))
		if err != nil {
			return s.failure(input, err), nil
		}
	}

	if err := writeOutput(output, result.Bytes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatResult(input, output, result)), nil
}

func (s *Server) handleResume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("job_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawChoice, err := request.RequireString("choice")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	choice, err := convert.ParseChoice(rawChoice)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	job, err := s.jobs.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v: %s (jobs are kept in memory and may have been evicted)", err, id)), nil
	}

	output := stringArg(request.GetArguments(), "output")
	if output == "" {
		output = config.DocxPath(job.Source)
	}
	output, err = s.paths.ResolveOutput(output, docxExt)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// A failed resume leaves the job in place so another choice can be tried.
	result, err := s.converter.Resume(ctx, job.Pending, choice, s.progress(job.Source))
	if err != nil {
		return s.failure(job.Source, err), nil
	}
	s.jobs.Remove(job.ID)

	if err := writeOutput(output, result.Bytes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatResult(job.Source, output, result)), nil
}

func (s *Server) handleInfo(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.jobs.Stats()

	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Directory: %s\n", s.paths.Root())
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Scanned Pages Default: %s\n", s.config.Scanned)
	text += fmt.Sprintf("OCR: %s (%s)\n", s.config.OCRCommand, s.config.OCRLanguage)
	text += fmt.Sprintf("Suspended Jobs: %d of %d (evicted: %d)\n", stats.Pending, stats.Capacity, stats.Evicted)
	for _, job := range s.jobs.List() {
		text += fmt.Sprintf("  - %s: %s (%d pages without text)\n", job.ID, job.Source, job.Pending.ScannedPageCount)
	}

	text += "\nTools:\n"
	text += "  pdf_to_word path=<file.pdf> [output=<file.docx>] [scanned=ask|image|ocr]\n"
	text += "  pdf_to_word_resume job_id=<id> choice=image|ocr [output=<file.docx>]\n"
	text += "  pdf_to_word_info\n"
	text += "\nPages whose text layer is empty are either embedded as images or run through OCR. "
	text += "With scanned=ask the conversion stops after extraction and returns a job id to resume.\n"

	return mcp.NewToolResultText(text), nil
}

// failure logs a conversion error and turns it into a tool error.
func (s *Server) failure(path string, err error) *mcp.CallToolResult {
	logging.With(s.logger.Error()).
		Add(logging.Path(path)).
		Add(logging.Err(err)).
		Msg("conversion failed")

	var ocrErr *convert.OcrFailure
	if errors.As(err, &ocrErr) {
		hint := "The job can be resumed with choice=image instead."
		if ocr.IsNotInstalled(err) {
			hint = "The tesseract binary was not found on PATH. Install it, or resume the job with choice=image instead."
		}
		return mcp.NewToolResultError(fmt.Sprintf("%v\n%s", err, hint))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) progress(path string) convert.ProgressFunc {
	return func(percent int) {
		logging.With(s.logger.Debug()).
			Add(logging.Path(path)).
			Add(logging.Percent(percent)).
			Msg("progress")
	}
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, outputPerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func formatPending(job jobs.Job, pages int) string {
	text := fmt.Sprintf("Conversion suspended for: %s\n", job.Source)
	text += fmt.Sprintf("%d of %d page(s) have no extractable text.\n", job.Pending.ScannedPageCount, pages)
	text += fmt.Sprintf("Job ID: %s\n", job.ID)
	text += "\nResume with pdf_to_word_resume and choice=image to embed the pages as images, "
	text += "or choice=ocr to recognize their text.\n"
	return text
}

func formatResult(input, output string, result *convert.Result) string {
	text := fmt.Sprintf("Converted %s\n", input)
	text += fmt.Sprintf("Output: %s (%d bytes)\n", output, len(result.Bytes))
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Method: %s\n", result.Method)

	if len(result.Pages) > 0 {
		text += "\nPages:\n"
		for _, page := range result.Pages {
			text += fmt.Sprintf("%d. %s, %d block(s)", page.Number, page.Method, page.Blocks)
			if page.Preview != "" {
				text += fmt.Sprintf(": %q", page.Preview)
			}
			text += "\n"
		}
	}

	if len(result.Warnings) > 0 {
		text += fmt.Sprintf("\nWarnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			text += fmt.Sprintf("  - %s\n", w)
		}
	}
	return text
}

// Run serves MCP over standard I/O until the client disconnects.
func (s *Server) Run(_ context.Context) error {
	logging.With(s.logger.Info()).
		Add(logging.Path(s.paths.Root())).
		Msg("starting pdf2docx MCP server in stdio mode")

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
