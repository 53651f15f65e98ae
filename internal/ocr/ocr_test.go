package ocr

import (
	"context"
	"errors"
	"image"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t918\t1188\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t100\t80\t300\t30\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t100\t80\t120\t30\t96.5\tScanned\n" +
	"5\t1\t1\t1\t1\t2\t230\t82\t170\t28\t93.5\tparagraph\n" +
	"5\t1\t1\t1\t2\t1\t100\t130\t90\t30\t90\tsecond\n" +
	"5\t1\t1\t1\t2\t2\t200\t130\t10\t30\t-1\t \n" +
	"5\t1\t2\t1\t1\t1\t100\t400\t60\t20\t88\t\"quoted\n"

func TestParseTSV(t *testing.T) {
	res, err := ParseTSV(strings.NewReader(sampleTSV))
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)

	first := res.Lines[0]
	assert.Equal(t, "Scanned paragraph", first.Text)
	assert.Equal(t, image.Rect(100, 80, 400, 110), first.Box)
	assert.InDelta(t, 95.0, first.Confidence, 1e-9)

	assert.Equal(t, "second", res.Lines[1].Text)
	assert.Equal(t, `"quoted`, res.Lines[2].Text)
	assert.Equal(t, "Scanned paragraph\nsecond\n\"quoted", res.Text)
}

func TestParseTSVEmpty(t *testing.T) {
	res, err := ParseTSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.Lines)
	assert.Empty(t, res.Text)
}

func TestTesseractRecognize(t *testing.T) {
	var gotArgs []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		_, err := os.Stat(args[0])
		require.NoError(t, err, "raster must exist while tesseract runs")
		return []byte(sampleTSV), nil
	}

	engine, err := newTesseract(TesseractConfig{Command: "tesseract", Language: "deu"}, "/usr/bin/tesseract", run)
	require.NoError(t, err)

	res, err := engine.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.Len(t, res.Lines, 3)
	assert.Equal(t, "/usr/bin/tesseract", gotArgs[0])
	assert.Equal(t, []string{"stdout", "-l", "deu", "tsv"}, gotArgs[2:])

	_, err = os.Stat(gotArgs[1])
	assert.True(t, os.IsNotExist(err), "raster is removed after recognition")

	require.NoError(t, engine.Terminate())
	_, err = os.Stat(engine.dir)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, engine.Terminate())

	_, err = engine.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.ErrorIs(t, err, ErrTerminated)
}

func TestTesseractRecognizeFailure(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: Error opening data file")
	}
	engine, err := newTesseract(DefaultTesseractConfig(), "tesseract", run)
	require.NoError(t, err)
	defer engine.Terminate()

	_, err = engine.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
}

func TestOpenTesseractMissingBinary(t *testing.T) {
	_, err := OpenTesseract(TesseractConfig{Command: "pdf2docx-no-such-ocr-binary"})
	require.Error(t, err)
	assert.True(t, IsNotInstalled(err))
}

type flakyEngine struct {
	failures   int
	calls      int
	terminated bool
}

func (f *flakyEngine) Recognize(context.Context, image.Image) (Result, error) {
	f.calls++
	if f.calls <= f.failures {
		return Result{}, errors.New("transient")
	}
	return Result{Text: "ok"}, nil
}

func (f *flakyEngine) Terminate() error {
	f.terminated = true
	return nil
}

func TestWithRetry(t *testing.T) {
	t.Run("recovers from transient failures", func(t *testing.T) {
		inner := &flakyEngine{failures: 2}
		engine := WithRetry(inner, 3, time.Millisecond)

		res, err := engine.Recognize(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", res.Text)
		assert.Equal(t, 3, inner.calls)

		require.NoError(t, engine.Terminate())
		assert.True(t, inner.terminated)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		inner := &flakyEngine{failures: 10}
		engine := WithRetry(inner, 2, time.Millisecond)

		_, err := engine.Recognize(context.Background(), nil)
		require.Error(t, err)
		assert.Greater(t, inner.calls, 1)
		assert.Less(t, inner.calls, 10)
	})

	t.Run("single attempt is not wrapped", func(t *testing.T) {
		inner := &flakyEngine{}
		assert.Same(t, inner, WithRetry(inner, 1, time.Millisecond))
	})
}
