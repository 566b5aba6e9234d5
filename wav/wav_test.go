package wav_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/raug/signal"
	"github.com/pipelined/raug/wav"
)

func TestNewSink(t *testing.T) {
	_, err := wav.NewSink("out.wav", signal.BitDepth(12))
	assert.ErrorIs(t, err, wav.ErrUnsupportedBitDepth)
}

func TestSinkLoad(t *testing.T) {
	tests := []struct {
		bitDepth signal.BitDepth
		delta    float64
	}{
		{bitDepth: signal.BitDepth16, delta: 1.0 / 32000},
		{bitDepth: signal.BitDepth24, delta: 1.0 / 8000000},
		{bitDepth: signal.BitDepth32, delta: 1e-9},
	}
	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "out.wav")
		sink, err := wav.NewSink(path, test.bitDepth)
		require.NoError(t, err)

		fn, err := sink.Sink("id", 8000, 2, 4)
		require.NoError(t, err)
		blocks := []signal.Float64{
			{{0, 0.5, -0.5, 0.25}, {1, -1, 0, 0.125}},
			{{0.75, -0.75, 0.1, -0.1}, {0, 0, 0, 0}},
		}
		for _, b := range blocks {
			require.NoError(t, fn(b))
		}
		require.NoError(t, sink.Flush("id"))

		floats, sampleRate, err := wav.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8000.0, sampleRate)
		require.Equal(t, 2, floats.NumChannels())
		require.Equal(t, 8, floats.Size())
		expected := signal.Float64(nil).Append(blocks[0]).Append(blocks[1])
		for c := range expected {
			for i := range expected[c] {
				assert.InDelta(t, expected[c][i], floats[c][i], test.delta, "%d bit [%d][%d]", test.bitDepth, c, i)
			}
		}
	}
}

func TestSinkNoChannels(t *testing.T) {
	sink, err := wav.NewSink(filepath.Join(t.TempDir(), "out.wav"), signal.BitDepth16)
	require.NoError(t, err)
	_, err = sink.Sink("id", 8000, 0, 4)
	assert.Error(t, err)
	assert.NoError(t, sink.Flush("id"))
}

func TestLoadMissing(t *testing.T) {
	_, _, err := wav.Load(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
