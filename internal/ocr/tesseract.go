package ocr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// TesseractConfig configures the tesseract process engine.
type TesseractConfig struct {
	// Command is the tesseract executable, looked up on PATH.
	Command string
	// Language is passed as -l, for example "eng" or "eng+deu".
	Language string
}

// DefaultTesseractConfig returns the stock command and English language.
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{Command: "tesseract", Language: "eng"}
}

// runFunc executes a command and returns its standard output.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Tesseract runs the tesseract CLI once per raster and parses its TSV output.
type Tesseract struct {
	cfg     TesseractConfig
	command string
	dir     string
	run     runFunc

	mu     sync.Mutex
	seq    int
	closed bool
}

// OpenTesseract resolves the tesseract executable and creates a scratch
// directory for raster files.
func OpenTesseract(cfg TesseractConfig) (*Tesseract, error) {
	if cfg.Command == "" {
		cfg.Command = DefaultTesseractConfig().Command
	}
	if cfg.Language == "" {
		cfg.Language = DefaultTesseractConfig().Language
	}

	command, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", cfg.Command, err)
	}
	return newTesseract(cfg, command, runCommand)
}

func newTesseract(cfg TesseractConfig, command string, run runFunc) (*Tesseract, error) {
	dir, err := os.MkdirTemp("", "pdf2docx-ocr-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Tesseract{cfg: cfg, command: command, dir: dir, run: run}, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Recognize writes img as PNG and runs tesseract over it.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (Result, error) {
	path, err := t.writeRaster(img)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(path)

	out, err := t.run(ctx, t.command, path, "stdout", "-l", t.cfg.Language, "tsv")
	if err != nil {
		return Result{}, fmt.Errorf("tesseract: %w", err)
	}
	return ParseTSV(bytes.NewReader(out))
}

func (t *Tesseract) writeRaster(img image.Image) (string, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", ErrTerminated
	}
	t.seq++
	path := filepath.Join(t.dir, fmt.Sprintf("page-%04d.png", t.seq))
	t.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create raster file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode raster: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close raster file: %w", err)
	}
	return path, nil
}

// Terminate removes the scratch directory. It is safe to call more than once.
func (t *Tesseract) Terminate() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return os.RemoveAll(t.dir)
}

// tsv column indexes
const (
	colLevel = iota
	colPage
	colBlock
	colPar
	colLine
	colWord
	colLeft
	colTop
	colWidth
	colHeight
	colConf
	colText
	tsvColumns
)

const wordLevel = 5

type lineKey struct {
	block, par, line int
}

// ParseTSV reads tesseract TSV output and groups word rows into lines,
// in order of first appearance.
func ParseTSV(r io.Reader) (Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	index := make(map[lineKey]int)
	var lines []Line
	var confSum []float64
	var confN []int

	header := true
	for scanner.Scan() {
		if header {
			header = false
			if strings.HasPrefix(scanner.Text(), "level") {
				continue
			}
		}
		fields := strings.SplitN(scanner.Text(), "\t", tsvColumns)
		if len(fields) < tsvColumns {
			continue
		}
		nums, ok := atoiAll(fields[:colConf])
		if !ok || nums[colLevel] != wordLevel {
			continue
		}
		text := strings.TrimSpace(fields[colText])
		if text == "" {
			continue
		}

		box := image.Rect(nums[colLeft], nums[colTop], nums[colLeft]+nums[colWidth], nums[colTop]+nums[colHeight])
		key := lineKey{nums[colBlock], nums[colPar], nums[colLine]}

		i, seen := index[key]
		if !seen {
			i = len(lines)
			index[key] = i
			lines = append(lines, Line{Text: text, Box: box})
			confSum = append(confSum, 0)
			confN = append(confN, 0)
		} else {
			lines[i].Text += " " + text
			lines[i].Box = lines[i].Box.Union(box)
		}
		if conf, err := strconv.ParseFloat(fields[colConf], 64); err == nil && conf >= 0 {
			confSum[i] += conf
			confN[i]++
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read tsv: %w", err)
	}

	for i := range lines {
		if confN[i] > 0 {
			lines[i].Confidence = confSum[i] / float64(confN[i])
		}
	}
	return resultFromLines(lines), nil
}

func atoiAll(fields []string) ([]int, bool) {
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// IsNotInstalled reports whether err came from a missing tesseract binary.
func IsNotInstalled(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
