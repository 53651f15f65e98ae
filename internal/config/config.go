package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeConvert = "convert"
	ModeStdio   = "stdio"

	// Scanned-page policies
	ScannedAsk   = "ask"
	ScannedImage = "image"
	ScannedOCR   = "ocr"

	// Default values
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultOCRCommand   = "tesseract"
	DefaultOCRLanguage  = "eng"
	DefaultOCRRetries   = 2
	DefaultRenderScale  = 1.5
	DefaultRowTolerance = 5.0
	DefaultJobCapacity  = 32

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "PDF2DOCX"
)

// ErrVersionRequested is returned when --version is on the command line.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the converter and its MCP server
type Config struct {
	Mode string // "convert" or "stdio"

	// One-shot conversion
	Input   string
	Output  string
	Scanned string // "ask", "image" or "ocr"

	// Directory tool paths are confined to
	Directory string

	// OCR
	OCRCommand  string
	OCRLanguage string
	OCRRetries  int

	// Layout
	RenderScale  float64
	RowTolerance float64

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	LogFormat   string
	MaxFileSize int64 // Maximum PDF file size in bytes
	JobCapacity int
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeConvert,
		Scanned:      ScannedAsk,
		Directory:    currentDir,
		OCRCommand:   DefaultOCRCommand,
		OCRLanguage:  DefaultOCRLanguage,
		OCRRetries:   DefaultOCRRetries,
		RenderScale:  DefaultRenderScale,
		RowTolerance: DefaultRowTolerance,
		Version:      "1.0.0",
		ServerName:   "pdf2docx",
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		MaxFileSize:  DefaultMaxFileSize,
		JobCapacity:  DefaultJobCapacity,
	}
}

// LoadFromFlags parses the process command line and environment.
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[0], os.Args[1:], os.Stderr)
}

// Load parses args and PDF2DOCX_* environment variables into a validated
// configuration. Flags take precedence over the environment.
func Load(program string, args []string, usage io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	if versionRequested(args) {
		return nil, ErrVersionRequested
	}

	v := viper.New()
	setupEnvironment(v, cfg)

	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.SetOutput(usage)
	defineFlags(fs, cfg)
	setupUsage(fs, program, usage)
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if v.GetString("input") == "" && fs.NArg() > 0 {
		v.Set("input", fs.Arg(0))
	}

	populate(v, cfg)

	if cfg.Directory != "" {
		if abs, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupEnvironment registers defaults and the environment prefix. Dashes
// in keys map to underscores, so ocr-lang reads PDF2DOCX_OCR_LANG.
func setupEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("scanned", cfg.Scanned)
	v.SetDefault("dir", cfg.Directory)
	v.SetDefault("ocr-command", cfg.OCRCommand)
	v.SetDefault("ocr-lang", cfg.OCRLanguage)
	v.SetDefault("ocr-retries", cfg.OCRRetries)
	v.SetDefault("render-scale", cfg.RenderScale)
	v.SetDefault("row-tolerance", cfg.RowTolerance)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("logformat", cfg.LogFormat)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("job-capacity", cfg.JobCapacity)
}

func defineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Run mode: 'convert' for a one-shot conversion, 'stdio' for the MCP server")
	fs.StringP("input", "i", "", "PDF file to convert (convert mode)")
	fs.StringP("output", "o", "", "Word file to write (default: input with .docx extension)")
	fs.String("scanned", cfg.Scanned, "Pages without text: 'ask', 'image' or 'ocr'")
	fs.String("dir", cfg.Directory, "Directory tool paths are confined to (stdio mode)")
	fs.String("ocr-command", cfg.OCRCommand, "Tesseract executable")
	fs.String("ocr-lang", cfg.OCRLanguage, "Tesseract language, e.g. eng or eng+deu")
	fs.Int("ocr-retries", cfg.OCRRetries, "Additional OCR attempts per page")
	fs.Float64("render-scale", cfg.RenderScale, "Raster scale for pages without text")
	fs.Float64("row-tolerance", cfg.RowTolerance, "Vertical distance, in page units, that still joins a row")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("logformat", cfg.LogFormat, "Log format (console, json)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Int("job-capacity", cfg.JobCapacity, "Suspended conversions kept in memory (stdio mode)")
}

func setupUsage(fs *pflag.FlagSet, program string, w io.Writer) {
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage of %s:\n", program)
		fmt.Fprintf(w, "\npdf2docx - rebuild PDF documents as editable Word files\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  %s report.pdf                          # writes report.docx\n", program)
		fmt.Fprintf(w, "  %s -i scan.pdf --scanned=ocr           # OCR pages without text\n", program)
		fmt.Fprintf(w, "  %s --mode=stdio --dir=/path/to/pdfs    # MCP server\n", program)
		fmt.Fprintf(w, "\nEnvironment Variables:\n")
		fmt.Fprintf(w, "  PDF2DOCX_MODE, PDF2DOCX_SCANNED, PDF2DOCX_DIR, PDF2DOCX_OCR_LANG,\n")
		fmt.Fprintf(w, "  PDF2DOCX_LOGLEVEL, PDF2DOCX_LOGFORMAT, PDF2DOCX_MAXFILESIZE, ...\n")
	}
}

func versionRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

func populate(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Input = v.GetString("input")
	cfg.Output = v.GetString("output")
	cfg.Scanned = v.GetString("scanned")
	cfg.Directory = v.GetString("dir")
	cfg.OCRCommand = v.GetString("ocr-command")
	cfg.OCRLanguage = v.GetString("ocr-lang")
	cfg.OCRRetries = v.GetInt("ocr-retries")
	cfg.RenderScale = v.GetFloat64("render-scale")
	cfg.RowTolerance = v.GetFloat64("row-tolerance")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.LogFormat = v.GetString("logformat")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.JobCapacity = v.GetInt("job-capacity")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeConvert && c.Mode != ModeStdio {
		return errors.New("mode must be either 'convert' or 'stdio'")
	}

	if c.Mode == ModeConvert && c.Input == "" {
		return errors.New("convert mode requires an input file")
	}

	switch c.Scanned {
	case ScannedAsk, ScannedImage, ScannedOCR:
	default:
		return fmt.Errorf("invalid scanned policy: %s (must be one of: ask, image, ocr)", c.Scanned)
	}

	if c.Directory == "" {
		return errors.New("directory cannot be empty")
	}

	if c.Mode == ModeStdio {
		if _, err := os.Stat(c.Directory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", c.Directory, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access directory %s: %w", c.Directory, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.RenderScale <= 0 {
		return errors.New("render scale must be positive")
	}
	if c.RowTolerance <= 0 {
		return errors.New("row tolerance must be positive")
	}
	if c.OCRRetries < 0 {
		return errors.New("ocr retries cannot be negative")
	}
	if c.OCRCommand == "" {
		return errors.New("ocr command cannot be empty")
	}
	if c.JobCapacity <= 0 {
		return errors.New("job capacity must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s (must be console or json)", c.LogFormat)
	}

	return nil
}

// OutputPath returns the configured output, or the input path with its
// extension replaced by .docx.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return DocxPath(c.Input)
}

// DocxPath replaces the extension of a PDF path with .docx.
func DocxPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".docx"
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Input: %s, Scanned: %s, Directory: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Input, c.Scanned, c.Directory, c.LogLevel, c.MaxFileSize)
}

// IsConvertMode returns true for one-shot conversions
func (c *Config) IsConvertMode() bool {
	return c.Mode == ModeConvert
}

// IsStdioMode returns true if the MCP server runs over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
