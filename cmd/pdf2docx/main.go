package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/spf13/pflag"

	"github.com/a3tai/pdf2docx/internal/config"
	"github.com/a3tai/pdf2docx/internal/convert"
	"github.com/a3tai/pdf2docx/internal/docx"
	"github.com/a3tai/pdf2docx/internal/jobs"
	"github.com/a3tai/pdf2docx/internal/logging"
	"github.com/a3tai/pdf2docx/internal/mcp"
	"github.com/a3tai/pdf2docx/internal/ocr"
	"github.com/a3tai/pdf2docx/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Exit codes for convert mode.
const (
	exitOK             = 0
	exitFailure        = 1
	exitAwaitingChoice = 2
)

// setupLogging builds the logger. Logs always go to stderr so stdout stays
// free for the MCP protocol and conversion summaries.
func setupLogging(cfg *config.Config) (*bolt.Logger, error) {
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	return logging.New(logCfg), nil
}

// newConverter wires the conversion pipeline from configuration.
func newConverter(cfg *config.Config, logger *bolt.Logger) *convert.Converter {
	return convert.NewConverter(convert.Config{
		Open: convert.OpenPDF(cfg.MaxFileSize),
		OCR: convert.TesseractOpener(ocr.TesseractConfig{
			Command:  cfg.OCRCommand,
			Language: cfg.OCRLanguage,
		}, cfg.OCRRetries),
		Builder:      docx.NewBuilder(""),
		RenderScale:  cfg.RenderScale,
		RowTolerance: cfg.RowTolerance,
		Logger:       logger,
	})
}

// runConvert converts cfg.Input once and returns the process exit code.
func runConvert(ctx context.Context, cfg *config.Config, conv mcp.Converter, logger *bolt.Logger, out io.Writer) int {
	if err := pdf.NewValidator(cfg.MaxFileSize).ValidateFile(cfg.Input); err != nil {
		fmt.Fprintf(out, "Invalid input: %v\n", err)
		return exitFailure
	}
	data, err := os.ReadFile(cfg.Input)
	if err != nil {
		fmt.Fprintf(out, "Failed to read %s: %v\n", cfg.Input, err)
		return exitFailure
	}

	onProgress := func(percent int) {
		logging.With(logger.Info()).
			Add(logging.Path(cfg.Input)).
			Add(logging.Percent(percent)).
			Msg("progress")
	}

	outcome, err := conv.Convert(ctx, data, onProgress)
	if err != nil {
		fmt.Fprintf(out, "Conversion failed: %v\n", err)
		return exitFailure
	}

	result := outcome.Result
	if outcome.Pending != nil {
		if cfg.Scanned == config.ScannedAsk {
			fmt.Fprintf(out, "%d of %d page(s) in %s have no extractable text.\n",
				outcome.Pending.ScannedPageCount, len(outcome.Pending.Pages), cfg.Input)
			fmt.Fprintf(out, "Run again with --scanned=image to embed them as images or --scanned=ocr to recognize their text.\n")
			return exitAwaitingChoice
		}
		result, err = conv.Resume(ctx, outcome.Pending, convert.Method(cfg.Scanned), onProgress)
		if err != nil {
			fmt.Fprintf(out, "Conversion failed: %v\n", err)
			return exitFailure
		}
	}

	output := cfg.OutputPath()
	if err := os.WriteFile(output, result.Bytes, 0o644); err != nil {
		fmt.Fprintf(out, "Failed to write %s: %v\n", output, err)
		return exitFailure
	}

	fmt.Fprintf(out, "Wrote %s (%d page(s), method: %s)\n", output, result.PageCount, result.Method)
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return exitOK
}

// runStdioMode serves MCP until the client disconnects or a signal arrives
func runStdioMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *bolt.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logging.With(logger.Info()).
			Add(logging.Str("signal", sig.String())).
			Msg("received signal, shutting down")
		cancel()

	case err := <-serverErrCh:
		if err != nil {
			logging.With(logger.Error()).Add(logging.Err(err)).Msg("server error")
			os.Exit(exitFailure)
		}
	}

	logger.Info().Msg("server stopped")
}

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(exitFailure)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(exitFailure)
	}
	logging.With(logger.Debug()).Add(logging.Str("config", cfg.String())).Msg("starting")

	converter := newConverter(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsConvertMode() {
		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		code := runConvert(sigCtx, cfg, converter, logger, os.Stdout)
		stop()
		cancel()
		os.Exit(code)
	}

	server, err := mcp.NewServer(cfg, converter, jobs.NewStore(cfg.JobCapacity), logger)
	if err != nil {
		logging.With(logger.Error()).Add(logging.Err(err)).Msg("failed to create MCP server")
		os.Exit(exitFailure)
	}
	runStdioMode(ctx, cancel, server, logger)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "pdf2docx\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
