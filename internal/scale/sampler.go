package scale

import "math"

// SampleTarget is the number of samples averaged per measurement. The
// scale's load cell is noisy; twenty readings damp it well below the
// display resolution.
const SampleTarget = 20

// Sampler is the sampling state machine. It starts idle, begins collecting
// on a trigger, accumulates samples in lockstep buffers, and emits one
// averaged Measurement when the target count is reached.
//
// Sampler is not safe for concurrent use: only the serial read loop may
// call Apply, which is the single-writer guarantee the buffers rely on.
type Sampler struct {
	// OnStarted fires when a trigger opens a sampling session.
	OnStarted func()
	// OnProgress fires after each accumulated sample with (count, target).
	OnProgress func(count, target int)
	// OnComplete fires exactly once per completed session.
	OnComplete func(Measurement)
	// OnRealTime fires for live readings in any state.
	OnRealTime func(weight, height float64)

	collecting bool
	weights    []float64
	heights    []float64
}

// NewSampler returns an idle sampler with pre-sized buffers.
func NewSampler() *Sampler {
	return &Sampler{
		weights: make([]float64, 0, SampleTarget),
		heights: make([]float64, 0, SampleTarget),
	}
}

// Collecting reports whether a sampling session is active.
func (s *Sampler) Collecting() bool {
	return s.collecting
}

// Apply feeds one classified reading through the state machine.
func (s *Sampler) Apply(r Reading) {
	switch r.Kind {
	case KindRealTime:
		// Live readings pass through in any state without touching the
		// buffers.
		if s.OnRealTime != nil {
			s.OnRealTime(r.Weight, r.Height)
		}

	case KindTrigger:
		// A duplicate trigger mid-collection would throw away a
		// measurement in progress; ignore it.
		if s.collecting {
			return
		}
		s.collecting = true
		s.weights = s.weights[:0]
		s.heights = s.heights[:0]
		if s.OnStarted != nil {
			s.OnStarted()
		}

	case KindSample:
		if !s.collecting {
			return
		}
		s.weights = append(s.weights, r.Weight)
		s.heights = append(s.heights, r.Height)
		if s.OnProgress != nil {
			s.OnProgress(len(s.weights), SampleTarget)
		}
		if len(s.weights) >= SampleTarget {
			s.complete()
		}
	}
}

// complete averages the buffers, resets to idle, and emits the result.
// The final sample is included in the average.
func (s *Sampler) complete() {
	m := Measurement{
		Weight: math.Round(mean(s.weights)*10) / 10,
		Height: math.Round(mean(s.heights)),
	}

	s.collecting = false
	s.weights = s.weights[:0]
	s.heights = s.heights[:0]

	if s.OnComplete != nil {
		s.OnComplete(m)
	}
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
