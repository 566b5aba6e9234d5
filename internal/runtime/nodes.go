package runtime

import (
	"math"

	"github.com/pipelined/raug/graph"
	"github.com/pipelined/raug/message"
)

const twoPi = 2 * math.Pi

// process runs the behaviour of a single node for one block.
func (e *Engine) process(n *node) {
	switch n.step.Kind {
	case graph.KindConstant:
		e.setControl(n, 0, n.step.Config.Value)
	case graph.KindConstantMessage:
		e.emit(n, 0, n.step.Config.Message)
	case graph.KindSampleRate:
		e.setControl(n, 0, e.sampleRate)
	case graph.KindParam:
		e.param(n)
	case graph.KindAudioOutput:
		copy(e.out[n.step.Config.Channel], e.audioIn(n, 0))
	case graph.KindSineOsc:
		e.sineOsc(n)
	case graph.KindSawOsc:
		e.sawOsc(n)
	case graph.KindBlSawOsc:
		e.blSawOsc(n)
	case graph.KindBlSquareOsc:
		e.blSquareOsc(n)
	case graph.KindNoiseOsc:
		e.noiseOsc(n)
	case graph.KindPhaseAccum:
		e.phaseAccum(n)
	case graph.KindMetro:
		e.metro(n)
	case graph.KindCounter:
		e.counter(n)
	case graph.KindSelect:
		e.selectMessage(n)
	case graph.KindMerge:
		e.merge(n)
	case graph.KindMessage:
		if e.fired(n, 0) {
			e.emit(n, 0, n.step.Config.Message)
		}
	case graph.KindRegister:
		e.register(n)
	case graph.KindHold:
		e.hold(n)
	case graph.KindSampleAndHold:
		e.sampleAndHold(n)
	case graph.KindMoogLadder:
		e.moogLadder(n)
	case graph.KindPeakLimiter:
		e.peakLimiter(n)
	case graph.KindSmooth:
		e.smooth(n)
	case graph.KindBufferPlayer:
		e.bufferPlayer(n)
	default:
		switch {
		case n.binary != nil:
			a, b, out := e.audioIn(n, 0), e.audioIn(n, 1), e.audioOut(n, 0)
			for i := range out {
				out[i] = n.binary(a[i], b[i])
			}
		case n.unary != nil:
			in, out := e.audioIn(n, 0), e.audioOut(n, 0)
			for i := range out {
				out[i] = n.unary(in[i])
			}
		}
	}
}

// param ramps towards the target read once per block and emits a Bang or
// the new value on its message output.
func (e *Engine) param(n *node) {
	v, writes, bangs := n.param.Snapshot()
	n.smoother.SetTarget(v)
	out := e.audioOut(n, 0)
	for i := range out {
		out[i] = n.smoother.Next()
	}
	switch {
	case bangs != n.bangs:
		e.emit(n, 1, message.NewBang())
	case writes != n.writes:
		e.emit(n, 1, message.NewFloat(v))
	}
	n.writes, n.bangs = writes, bangs
}

func wrap(phase float64) float64 {
	return phase - math.Floor(phase)
}

// polyBLEP returns the band limiting residual for a discontinuity at phase
// zero, with dt the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	dt = math.Abs(dt)
	if dt == 0 || dt >= 1 {
		return 0
	}
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (e *Engine) sineOsc(n *node) {
	if e.fired(n, 1) {
		n.phase = 0
	}
	freq, out := e.audioIn(n, 0), e.audioOut(n, 0)
	for i := range out {
		out[i] = math.Sin(twoPi * n.phase)
		n.phase = wrap(n.phase + freq[i]/e.sampleRate)
	}
}

func (e *Engine) sawOsc(n *node) {
	if e.fired(n, 1) {
		n.phase = 0
	}
	freq, out := e.audioIn(n, 0), e.audioOut(n, 0)
	for i := range out {
		out[i] = 2*n.phase - 1
		n.phase = wrap(n.phase + freq[i]/e.sampleRate)
	}
}

func (e *Engine) blSawOsc(n *node) {
	if e.fired(n, 1) {
		n.phase = 0
	}
	freq, out := e.audioIn(n, 0), e.audioOut(n, 0)
	for i := range out {
		dt := freq[i] / e.sampleRate
		out[i] = 2*n.phase - 1 - polyBLEP(n.phase, dt)
		n.phase = wrap(n.phase + dt)
	}
}

func (e *Engine) blSquareOsc(n *node) {
	if e.fired(n, 2) {
		n.phase = 0
	}
	pw := math.Min(math.Max(e.controlIn(n, 1), 0.01), 0.99)
	freq, out := e.audioIn(n, 0), e.audioOut(n, 0)
	for i := range out {
		dt := freq[i] / e.sampleRate
		v := -1.0
		if n.phase < pw {
			v = 1
		}
		out[i] = v + polyBLEP(n.phase, dt) - polyBLEP(wrap(n.phase+1-pw), dt)
		n.phase = wrap(n.phase + dt)
	}
}

// noiseOsc is a xorshift64* generator, deterministic for a seed.
func (e *Engine) noiseOsc(n *node) {
	out := e.audioOut(n, 0)
	for i := range out {
		n.rng ^= n.rng >> 12
		n.rng ^= n.rng << 25
		n.rng ^= n.rng >> 27
		r := n.rng * 2685821657736338717
		out[i] = float64(r>>11)/(1<<53)*2 - 1
	}
}

func (e *Engine) phaseAccum(n *node) {
	if e.fired(n, 1) {
		n.phase = 0
	}
	inc, out := e.audioIn(n, 0), e.audioOut(n, 0)
	for i := range out {
		out[i] = n.phase
		n.phase += inc[i]
	}
}

// metro emits a Bang on the first block, after a reset and then every
// period seconds, quantised to block boundaries.
func (e *Engine) metro(n *node) {
	period := int(math.Round(e.controlIn(n, 0) * e.sampleRate))
	switch {
	case n.armed || e.fired(n, 1):
		e.emit(n, 0, message.NewBang())
		n.armed = false
		n.elapsed = 0
	case period > 0 && n.elapsed >= period:
		e.emit(n, 0, message.NewBang())
		n.elapsed -= period
		if n.elapsed >= period {
			n.elapsed = 0
		}
	}
	n.elapsed += e.blockSize
}

func (e *Engine) counter(n *node) {
	if e.fired(n, 1) {
		n.count = 0
	}
	n.count += float64(n.pending[0])
	e.setControl(n, 0, n.count)
}

// selectIndex maps an index to [0, size) with floor and modulo.
func selectIndex(index float64, size int) int {
	if math.IsNaN(index) || math.IsInf(index, 0) {
		return 0
	}
	s := float64(size)
	i := math.Floor(index)
	i -= s * math.Floor(i/s)
	if i < 0 || i >= s {
		return 0
	}
	return int(i)
}

func (e *Engine) selectMessage(n *node) {
	if !e.fired(n, 0) {
		return
	}
	out := selectIndex(e.controlIn(n, 1), len(n.step.Outputs))
	for k := 0; k < n.pending[0]; k++ {
		e.emit(n, out, e.messageIn(n, 0, k))
	}
}

// merge forwards the first message of the lowest input that fired.
func (e *Engine) merge(n *node) {
	for i := range n.step.Inputs {
		if e.fired(n, i) {
			e.emit(n, 0, e.messageIn(n, i, 0))
			return
		}
	}
}

// register stores the last message on set and re-emits it on trig. Set is
// applied before trig within a block.
func (e *Engine) register(n *node) {
	if e.fired(n, 0) {
		n.held = e.messageIn(n, 0, n.pending[0]-1)
		n.hasHeld = true
	}
	if e.fired(n, 1) && n.hasHeld {
		e.emit(n, 0, n.held)
	}
}

func (e *Engine) hold(n *node) {
	for k := 0; k < n.pending[0]; k++ {
		if v, ok := e.messageIn(n, 0, k).Float(); ok {
			n.value = v
		}
	}
	e.setControl(n, 0, n.value)
}

func (e *Engine) sampleAndHold(n *node) {
	in, out := e.audioIn(n, 0), e.audioOut(n, 0)
	if e.fired(n, 1) {
		n.value = in[0]
	}
	for i := range out {
		out[i] = n.value
	}
}

// moogLadder is a four stage nonlinear lowpass ladder with feedback.
func (e *Engine) moogLadder(n *node) {
	in, cutoff, out := e.audioIn(n, 0), e.audioIn(n, 1), e.audioOut(n, 0)
	res := math.Min(math.Max(e.controlIn(n, 2), 0), 1)
	nyquist := e.sampleRate * 0.45
	s := &n.stage
	for i := range out {
		fc := math.Min(math.Max(cutoff[i], 0), nyquist)
		g := 1 - math.Exp(-twoPi*fc/e.sampleRate)
		x := math.Tanh(in[i] - 4*res*s[3])
		s[0] += g * (x - math.Tanh(s[0]))
		s[1] += g * (math.Tanh(s[0]) - math.Tanh(s[1]))
		s[2] += g * (math.Tanh(s[1]) - math.Tanh(s[2]))
		s[3] += g * (math.Tanh(s[2]) - math.Tanh(s[3]))
		out[i] = s[3]
	}
}

// coefficient returns the one-pole coefficient for a time constant.
func coefficient(seconds, sampleRate float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Exp(-1 / (seconds * sampleRate))
}

func (e *Engine) peakLimiter(n *node) {
	in, out := e.audioIn(n, 0), e.audioOut(n, 0)
	threshold := e.controlIn(n, 1)
	if threshold <= 0 {
		threshold = 1
	}
	attack := coefficient(e.controlIn(n, 2), e.sampleRate)
	release := coefficient(e.controlIn(n, 3), e.sampleRate)
	for i := range out {
		level := math.Abs(in[i])
		if level > n.env {
			n.env = attack*n.env + (1-attack)*level
		} else {
			n.env = release*n.env + (1-release)*level
		}
		gain := 1.0
		if n.env > threshold {
			gain = threshold / n.env
		}
		out[i] = in[i] * gain
	}
}

func (e *Engine) smooth(n *node) {
	in, out := e.audioIn(n, 0), e.audioOut(n, 0)
	factor := math.Min(math.Max(e.controlIn(n, 1), 0), 1)
	for i := range out {
		n.value += factor * (in[i] - n.value)
		out[i] = n.value
	}
}

// bufferPlayer plays the buffer from the start on every trigger with
// linear interpolation, advancing by rate samples per sample.
func (e *Engine) bufferPlayer(n *node) {
	if e.fired(n, 0) {
		n.pos = 0
		n.playing = true
	}
	rate, out := e.audioIn(n, 1), e.audioOut(n, 0)
	last := float64(len(n.buffer) - 1)
	for i := range out {
		if !n.playing || n.pos < 0 || n.pos > last {
			n.playing = false
			out[i] = 0
			continue
		}
		j := int(n.pos)
		frac := n.pos - float64(j)
		v := n.buffer[j]
		if frac > 0 && j+1 < len(n.buffer) {
			v += frac * (n.buffer[j+1] - v)
		}
		out[i] = v
		n.pos += rate[i]
	}
}

func binaryOp(k graph.Kind) func(a, b float64) float64 {
	switch k {
	case graph.KindAdd:
		return func(a, b float64) float64 { return a + b }
	case graph.KindSub:
		return func(a, b float64) float64 { return a - b }
	case graph.KindMul:
		return func(a, b float64) float64 { return a * b }
	case graph.KindDiv:
		return func(a, b float64) float64 { return a / b }
	case graph.KindRem:
		return func(a, b float64) float64 { return a - b*math.Floor(a/b) }
	case graph.KindPow:
		return math.Pow
	}
	return nil
}

func unaryOp(k graph.Kind) func(float64) float64 {
	switch k {
	case graph.KindNeg:
		return func(x float64) float64 { return -x }
	case graph.KindRecip:
		return func(x float64) float64 { return 1 / x }
	case graph.KindSin:
		return math.Sin
	case graph.KindCos:
		return math.Cos
	case graph.KindAbs:
		return math.Abs
	case graph.KindSqrt:
		return math.Sqrt
	case graph.KindExp:
		return math.Exp
	case graph.KindTanh:
		return math.Tanh
	case graph.KindFloor:
		return math.Floor
	}
	return nil
}
