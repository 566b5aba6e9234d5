// Package signal provides buffers for block-wise audio and conversions
// between float samples and integer PCM:
// 	- non-interleaved float64 blocks as produced by the engine
// 	- interleaved int data as consumed by file encoders
package signal

import (
	"math"
	"time"
)

// Float64 is a non-interleaved float64 signal. The first index is the
// channel, the second is the sample.
type Float64 [][]float64

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// Valid reports if the bit depth is one of the supported PCM depths.
func (bitDepth BitDepth) Valid() bool {
	switch bitDepth {
	case BitDepth8, BitDepth16, BitDepth24, BitDepth32:
		return true
	}
	return false
}

// divider is used when int to float conversion is done.
func (bitDepth BitDepth) divider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate float64, samples int64) time.Duration {
	return time.Duration(float64(samples) / sampleRate * float64(time.Second))
}

// BlocksIn returns the number of whole blocks needed to cover duration d,
// rounding up a partial block.
func BlocksIn(d time.Duration, sampleRate float64, blockSize int) int64 {
	if d <= 0 || blockSize <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Seconds() * sampleRate / float64(blockSize)))
}

// AsFloat64 converts interleaved int signal to float64.
func (ints InterInt) AsFloat64() Float64 {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	floats := make([][]float64, ints.NumChannels)
	bufSize := int(math.Ceil(float64(len(ints.Data)) / float64(ints.NumChannels)))

	divider := float64(ints.BitDepth.divider())
	for i := range floats {
		floats[i] = make([]float64, bufSize)
		pos := 0
		for j := i; j < len(ints.Data); j = j + ints.NumChannels {
			floats[i][pos] = float64(ints.Data[j]) / divider
			pos++
		}
	}
	return floats
}

// AsInterInt converts float64 signal to interleaved int. Samples outside
// [-1, 1] are clipped.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	if len(floats) == 0 {
		return nil
	}
	ints := make([]int, len(floats[0])*len(floats))
	floats.PutInterInt(ints, bitDepth)
	return ints
}

// PutInterInt writes interleaved ints into dst, which must hold at least
// NumChannels*Size values. It returns the number of values written.
func (floats Float64) PutInterInt(dst []int, bitDepth BitDepth) int {
	numChannels := len(floats)
	if numChannels == 0 {
		return 0
	}
	multiplier := float64(bitDepth.multiplier())
	for j := range floats {
		for i, v := range floats[j] {
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			dst[i*numChannels+j] = int(v * multiplier)
		}
	}
	return numChannels * len(floats[0])
}

// EmptyFloat64 returns an empty buffer of specified dimensions.
func EmptyFloat64(numChannels int, bufferSize int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, bufferSize)
	}
	return result
}

// NumChannels returns number of channels in this sample slice.
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single block in this sample slice.
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Append buffers set to existing one.
// New buffer is returned if floats is nil.
func (floats Float64) Append(source Float64) Float64 {
	if floats == nil {
		floats = make([][]float64, source.NumChannels())
		for i := range floats {
			floats[i] = make([]float64, 0, source.Size())
		}
	}
	for i := range source {
		floats[i] = append(floats[i], source[i]...)
	}
	return floats
}

// Slice creates a new copy of buffer from start position with defined length.
// If buffer doesn't have enough samples, shorter block is returned.
//
// if start >= buffer size, nil is returned
// if start + len >= buffer size, len is decreased till the end of slice
// if start < 0, nil is returned
func (floats Float64) Slice(start int, len int) Float64 {
	if floats == nil || start >= floats.Size() || start < 0 {
		return nil
	}
	end := start + len
	result := make([][]float64, floats.NumChannels())
	for i := range floats {
		if end > floats.Size() {
			end = floats.Size()
		}
		result[i] = append(result[i], floats[i][start:end]...)
	}
	return result
}

// Mono returns the average of all channels as a single slice.
func (floats Float64) Mono() []float64 {
	if floats.NumChannels() == 0 {
		return nil
	}
	if floats.NumChannels() == 1 {
		return floats[0]
	}
	mono := make([]float64, floats.Size())
	for _, ch := range floats {
		for i, v := range ch {
			mono[i] += v
		}
	}
	n := float64(floats.NumChannels())
	for i := range mono {
		mono[i] /= n
	}
	return mono
}

// Sanitize replaces NaN and infinite samples with zero and returns how
// many were replaced.
func Sanitize(samples []float64) int {
	var n int
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			samples[i] = 0
			n++
		}
	}
	return n
}
