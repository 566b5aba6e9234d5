package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/config"
	"github.com/pipelined/raug/signal"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raug.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 48000.0, cfg.SampleRate)
	assert.Equal(t, 512, cfg.BlockSize)
	assert.Equal(t, signal.BitDepth16, cfg.Depth())

	b, err := raug.NewGraphBuilder(cfg.BuilderOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 512, b.Graph().BlockSize())
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(write(t, `
sample_rate: 44100
bit_depth: 24
control: ":8080"
mp3:
  bit_rate: 320
`))
	require.NoError(t, err)
	assert.Equal(t, 44100.0, cfg.SampleRate)
	assert.Equal(t, 512, cfg.BlockSize)
	assert.Equal(t, signal.BitDepth24, cfg.Depth())
	assert.Equal(t, ":8080", cfg.Control)
	assert.Equal(t, 320, cfg.MP3.BitRate)
	assert.Equal(t, 2, cfg.MP3.Quality)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{
			name:    "syntax",
			content: "sample_rate: [",
		},
		{
			name:    "bit depth",
			content: "bit_depth: 12",
			invalid: true,
		},
		{
			name:    "block size",
			content: "block_size: 0",
			invalid: true,
		},
		{
			name:    "mp3 quality",
			content: "mp3:\n  quality: 10",
			invalid: true,
		},
		{
			name:    "control address",
			content: "control: nowhere",
			invalid: true,
		},
	}
	for _, test := range tests {
		_, err := config.Load(write(t, test.content))
		require.Error(t, err, test.name)
		var verr validator.ValidationErrors
		assert.Equal(t, test.invalid, errors.As(err, &verr), test.name)
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
