package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/pdf2docx/internal/config"
	"github.com/a3tai/pdf2docx/internal/convert"
	"github.com/a3tai/pdf2docx/internal/logging"
)

const testVersion = "1.2.3"

type fakeConverter struct {
	outcome    *convert.Outcome
	convertErr error
	result     *convert.Result
	choices    []convert.Method
}

func (f *fakeConverter) Convert(context.Context, []byte, convert.ProgressFunc) (*convert.Outcome, error) {
	return f.outcome, f.convertErr
}

func (f *fakeConverter) Resume(_ context.Context, _ *convert.Pending, choice convert.Method, _ convert.ProgressFunc) (*convert.Result, error) {
	f.choices = append(f.choices, choice)
	return f.result, nil
}

func testConfig(t *testing.T, scanned string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(input, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("Failed to create input: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Input = input
	cfg.Scanned = scanned
	return cfg
}

func docResult() *convert.Result {
	return &convert.Result{
		Bytes:     []byte("PK"),
		PageCount: 2,
		Method:    convert.MethodImage,
		Warnings:  []convert.Warning{{Page: 2, Kind: convert.WarningImageDecode, Message: "bad stream"}},
	}
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = testVersion, "2023-12-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"pdf2docx",
		"Version: " + testVersion,
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with:",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestRunConvert(t *testing.T) {
	tests := []struct {
		name        string
		scanned     string
		conv        *fakeConverter
		wantCode    int
		wantOutput  string
		wantChoices []convert.Method
		wantFile    bool
	}{
		{
			name:       "all text",
			scanned:    config.ScannedAsk,
			conv:       &fakeConverter{outcome: &convert.Outcome{Result: docResult()}},
			wantCode:   exitOK,
			wantOutput: "warning: page 2: image_decode: bad stream",
			wantFile:   true,
		},
		{
			name:    "ask stops at the decision",
			scanned: config.ScannedAsk,
			conv: &fakeConverter{outcome: &convert.Outcome{Pending: &convert.Pending{
				State:            convert.StateAwaitingChoice,
				ScannedPageCount: 1,
				Pages:            make([]convert.ExtractedPage, 2),
			}}},
			wantCode:   exitAwaitingChoice,
			wantOutput: "1 of 2 page(s)",
		},
		{
			name:    "policy resumes",
			scanned: config.ScannedOCR,
			conv: &fakeConverter{
				outcome: &convert.Outcome{Pending: &convert.Pending{State: convert.StateAwaitingChoice, ScannedPageCount: 1}},
				result:  docResult(),
			},
			wantCode:    exitOK,
			wantOutput:  "Wrote",
			wantChoices: []convert.Method{convert.MethodOCR},
			wantFile:    true,
		},
		{
			name:       "conversion error",
			scanned:    config.ScannedAsk,
			conv:       &fakeConverter{convertErr: errors.New("broken xref")},
			wantCode:   exitFailure,
			wantOutput: "broken xref",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.scanned)
			var out bytes.Buffer

			code := runConvert(context.Background(), cfg, tt.conv, logging.Discard(), &out)
			if code != tt.wantCode {
				t.Errorf("runConvert() = %d, want %d (output: %s)", code, tt.wantCode, out.String())
			}
			if !strings.Contains(out.String(), tt.wantOutput) {
				t.Errorf("runConvert() output missing %q:\n%s", tt.wantOutput, out.String())
			}
			if len(tt.conv.choices) != len(tt.wantChoices) {
				t.Errorf("runConvert() resumed with %v, want %v", tt.conv.choices, tt.wantChoices)
			}

			_, err := os.Stat(cfg.OutputPath())
			if tt.wantFile && err != nil {
				t.Errorf("expected output file %s: %v", cfg.OutputPath(), err)
			}
			if !tt.wantFile && err == nil {
				t.Errorf("unexpected output file %s", cfg.OutputPath())
			}
		})
	}
}

func TestRunConvertMissingInput(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Input = filepath.Join(t.TempDir(), "missing.pdf")
	var out bytes.Buffer

	if code := runConvert(context.Background(), cfg, &fakeConverter{}, logging.Discard(), &out); code != exitFailure {
		t.Errorf("runConvert() = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(out.String(), "does not exist") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestSetupLogging(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := setupLogging(cfg); err != nil {
		t.Errorf("setupLogging() unexpected error: %v", err)
	}

	cfg.LogLevel = "loud"
	if _, err := setupLogging(cfg); err == nil {
		t.Error("setupLogging() expected error for invalid level")
	}
}

func TestNewConverter(t *testing.T) {
	if newConverter(config.DefaultConfig(), logging.Discard()) == nil {
		t.Fatal("newConverter() returned nil")
	}
}
