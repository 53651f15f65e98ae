package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    bolt.Level
		wantErr bool
	}{
		{"debug", bolt.DEBUG, false},
		{"INFO", bolt.INFO, false},
		{"", bolt.INFO, false},
		{"warn", bolt.WARN, false},
		{"error", bolt.ERROR, false},
		{"verbose", bolt.INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Format: FormatJSON, Output: &buf})

	With(logger.Warn()).
		Add(Page(3)).
		Add(State("synthesizing")).
		Add(Warning("image_decode", "bad stream")).
		Add(Err(errors.New("boom"))).
		Add(Err(nil)).
		Msg("page warning")

	out := buf.String()
	assert.Contains(t, out, "page warning")
	assert.Contains(t, out, `"page":3`)
	assert.Contains(t, out, `"state":"synthesizing"`)
	assert.Contains(t, out, `"warning":"image_decode"`)
	assert.Contains(t, out, `"detail":"bad stream"`)
	assert.Contains(t, out, "boom")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: FormatJSON, Output: &buf})

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
