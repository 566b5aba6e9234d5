package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/raug/signal"
)

func TestInterIntsAsFloat64(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    [][]float64
	}{
		{
			ints:        []int{1, 2, 1, 2, 1, 2, 1, 2},
			numChannels: 2,
			expected: [][]float64{
				{1, 1, 1, 1},
				{2, 2, 2, 2},
			},
		},
		{
			ints:        []int{1, 2, 1, 2, 1},
			numChannels: 2,
			expected: [][]float64{
				{1, 1, 1},
				{2, 2, 0},
			},
		},
		{
			ints:        []int{math.MaxInt16, -math.MaxInt16},
			numChannels: 2,
			bitDepth:    signal.BitDepth16,
			expected: [][]float64{
				{1},
				{-1},
			},
		},
		{
			ints:        []int{1<<23 - 1},
			numChannels: 1,
			bitDepth:    signal.BitDepth24,
			expected:    [][]float64{{1}},
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
	}

	for _, test := range tests {
		ints := signal.InterInt{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}
		result := ints.AsFloat64()
		assert.Equal(t, len(test.expected), len(result))
		for i := range test.expected {
			for j, val := range test.expected[i] {
				assert.Equal(t, val, result[i][j])
			}
		}
	}
}

func TestFloat64AsInterInt(t *testing.T) {
	tests := []struct {
		floats   [][]float64
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			floats: [][]float64{
				{1, 0, -1},
				{0.5, 0.5, 0.5},
			},
			bitDepth: signal.BitDepth16,
			expected: []int{
				math.MaxInt16 - 1, (math.MaxInt16 - 1) / 2,
				0, (math.MaxInt16 - 1) / 2,
				-(math.MaxInt16 - 1), (math.MaxInt16 - 1) / 2,
			},
		},
		{
			// clipped
			floats:   [][]float64{{2}, {-3}},
			bitDepth: signal.BitDepth16,
			expected: []int{math.MaxInt16 - 1, -(math.MaxInt16 - 1)},
		},
		{
			floats:   nil,
			expected: nil,
		},
		{
			floats:   [][]float64{{}, {}},
			expected: []int{},
		},
	}

	for _, test := range tests {
		ints := signal.Float64(test.floats).AsInterInt(test.bitDepth)
		assert.Equal(t, len(test.expected), len(ints))
		for i := range test.expected {
			assert.Equal(t, test.expected[i], ints[i])
		}
	}
}

func TestBlocksIn(t *testing.T) {
	tests := []struct {
		d          time.Duration
		sampleRate float64
		blockSize  int
		expected   int64
	}{
		{d: time.Second, sampleRate: 48000, blockSize: 512, expected: 94},
		{d: 0, sampleRate: 48000, blockSize: 512, expected: 0},
		{d: time.Second, sampleRate: 512, blockSize: 512, expected: 1},
		{d: 1500 * time.Millisecond, sampleRate: 1000, blockSize: 100, expected: 15},
		{d: 1501 * time.Millisecond, sampleRate: 1000, blockSize: 100, expected: 16},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, signal.BlocksIn(test.d, test.sampleRate, test.blockSize))
	}
}

func TestSanitize(t *testing.T) {
	samples := []float64{1, math.NaN(), math.Inf(1), -0.5, math.Inf(-1)}
	assert.Equal(t, 3, signal.Sanitize(samples))
	assert.Equal(t, []float64{1, 0, 0, -0.5, 0}, samples)
}

func TestMono(t *testing.T) {
	assert.Nil(t, signal.Float64(nil).Mono())
	assert.Equal(t, []float64{1, 2}, signal.Float64{{1, 2}}.Mono())
	assert.Equal(t, []float64{0.5, 0}, signal.Float64{{1, 1}, {0, -1}}.Mono())
}

func TestSlice(t *testing.T) {
	floats := signal.Float64{{1, 2, 3}, {4, 5, 6}}
	assert.Equal(t, signal.Float64{{2, 3}, {5, 6}}, floats.Slice(1, 5))
	assert.Nil(t, floats.Slice(3, 1))
	assert.Nil(t, floats.Slice(-1, 1))
	appended := signal.Float64(nil).Append(floats).Append(floats)
	assert.Equal(t, 2, appended.NumChannels())
	assert.Equal(t, 6, appended.Size())
}
