package param

import (
	"math"
)

// settle is the residual fraction of a step left after the smoothing time
// with the exponential policy.
const settle = 0.001

// Smoother ramps a parameter towards its target on the audio goroutine.
// The target is consulted once per block with SetTarget and Next is called
// once per sample.
type Smoother struct {
	policy    Policy
	samples   int
	coef      float64
	current   float64
	target    float64
	step      float64
	remaining int
}

// NewSmoother returns a smoother for p at the given sample rate, starting
// at the parameter's initial value.
func NewSmoother(p *Param, sampleRate float64) Smoother {
	d, policy := p.Smoothing()
	s := Smoother{
		policy:  policy,
		samples: int(math.Round(d.Seconds() * sampleRate)),
	}
	if s.samples > 0 {
		s.coef = math.Exp(math.Log(settle) / float64(s.samples))
	}
	s.Reset(p.Initial())
	return s
}

// Reset jumps to v without ramping.
func (s *Smoother) Reset(v float64) {
	s.current = v
	s.target = v
	s.step = 0
	s.remaining = 0
}

// SetTarget starts ramping to t.
func (s *Smoother) SetTarget(t float64) {
	if t == s.target {
		return
	}
	s.target = t
	if s.samples == 0 {
		s.current = t
		return
	}
	if s.policy == Linear {
		s.remaining = s.samples
		s.step = (t - s.current) / float64(s.samples)
	}
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	if s.current == s.target {
		return s.current
	}
	switch s.policy {
	case Linear:
		s.remaining--
		if s.remaining <= 0 {
			s.current = s.target
		} else {
			s.current += s.step
		}
	default:
		s.current = s.target + (s.current-s.target)*s.coef
		if math.Abs(s.current-s.target) < 1e-12 {
			s.current = s.target
		}
	}
	return s.current
}

// Current returns the last smoothed value.
func (s *Smoother) Current() float64 {
	return s.current
}

// Target returns the value being approached.
func (s *Smoother) Target() float64 {
	return s.target
}
