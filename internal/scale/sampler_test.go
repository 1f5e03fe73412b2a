package scale

import (
	"fmt"
	"testing"
)

// feedSamples applies n identical sample readings.
func feedSamples(s *Sampler, n int, weight, height float64) {
	for i := 0; i < n; i++ {
		s.Apply(Reading{Kind: KindSample, Weight: weight, Height: height})
	}
}

func TestSamplerAveragesTwentySamples(t *testing.T) {
	s := NewSampler()

	var started int
	var completed []Measurement
	var progress []string
	s.OnStarted = func() { started++ }
	s.OnProgress = func(count, target int) {
		progress = append(progress, fmt.Sprintf("%d/%d", count, target))
	}
	s.OnComplete = func(m Measurement) { completed = append(completed, m) }

	s.Apply(Reading{Kind: KindTrigger})
	if started != 1 || !s.Collecting() {
		t.Fatalf("trigger did not start collection (started=%d)", started)
	}

	feedSamples(s, SampleTarget, 70.0, 170.0)

	if len(completed) != 1 {
		t.Fatalf("completed %d measurements, want 1", len(completed))
	}
	if m := completed[0]; m.Weight != 70.0 || m.Height != 170 {
		t.Errorf("measurement = %+v, want {70.0 170}", m)
	}
	if s.Collecting() {
		t.Error("sampler still collecting after completion")
	}
	if len(progress) != SampleTarget {
		t.Errorf("got %d progress signals, want %d", len(progress), SampleTarget)
	}
	if progress[0] != "1/20" || progress[19] != "20/20" {
		t.Errorf("progress bounds = %s .. %s", progress[0], progress[len(progress)-1])
	}

	// Idle again: a new trigger must start a fresh session immediately.
	s.Apply(Reading{Kind: KindTrigger})
	if started != 2 || !s.Collecting() {
		t.Error("sampler did not accept a new trigger after completion")
	}
}

func TestSamplerRounding(t *testing.T) {
	s := NewSampler()
	var got Measurement
	s.OnComplete = func(m Measurement) { got = m }

	s.Apply(Reading{Kind: KindTrigger})
	// Heights alternate so their mean lands on a half (169.5); weights sit
	// off-grid at 70.26 so one-decimal rounding has to do real work.
	for i := 0; i < SampleTarget; i++ {
		h := 169.0
		if i%2 == 1 {
			h = 170.0
		}
		s.Apply(Reading{Kind: KindSample, Weight: 70.26, Height: h})
	}

	if got.Weight != 70.3 {
		t.Errorf("weight = %v, want 70.3", got.Weight)
	}
	if got.Height != 170 {
		t.Errorf("height = %v, want 170", got.Height)
	}
}

func TestSamplerNineteenIsNotEnough(t *testing.T) {
	s := NewSampler()
	var completed int
	s.OnComplete = func(Measurement) { completed++ }

	s.Apply(Reading{Kind: KindTrigger})
	feedSamples(s, SampleTarget-1, 70, 170)
	if completed != 0 {
		t.Fatal("completed before reaching the target")
	}

	feedSamples(s, 1, 70, 170)
	if completed != 1 {
		t.Fatalf("completed = %d after 20th sample, want 1", completed)
	}

	// A 21st sample without a new trigger lands on an idle sampler.
	feedSamples(s, 1, 99, 199)
	if completed != 1 {
		t.Fatalf("completed = %d after stray sample, want 1", completed)
	}
}

func TestSamplerIgnoresSamplesWhileIdle(t *testing.T) {
	s := NewSampler()
	s.OnComplete = func(Measurement) { t.Fatal("completed without a trigger") }
	feedSamples(s, SampleTarget+5, 70, 170)
}

func TestSamplerIgnoresDuplicateTrigger(t *testing.T) {
	s := NewSampler()
	var completed []Measurement
	s.OnComplete = func(m Measurement) { completed = append(completed, m) }

	s.Apply(Reading{Kind: KindTrigger})
	feedSamples(s, 10, 60, 160)

	// Spurious duplicate trigger mid-collection must not reset the buffers.
	s.Apply(Reading{Kind: KindTrigger})
	feedSamples(s, 10, 80, 180)

	if len(completed) != 1 {
		t.Fatalf("completed %d, want 1", len(completed))
	}
	if m := completed[0]; m.Weight != 70.0 || m.Height != 170 {
		t.Errorf("measurement = %+v, want averages over both halves", m)
	}
}

func TestSamplerRealTimePassesThroughInAnyState(t *testing.T) {
	s := NewSampler()
	var live [][2]float64
	s.OnRealTime = func(w, h float64) { live = append(live, [2]float64{w, h}) }

	s.Apply(Reading{Kind: KindRealTime, Weight: 71.5, Height: 172})
	s.Apply(Reading{Kind: KindTrigger})
	s.Apply(Reading{Kind: KindRealTime, Weight: 71.6, Height: 172})

	if len(live) != 2 {
		t.Fatalf("live readings = %d, want 2", len(live))
	}
	if s.Collecting() && len(s.weights) != 0 {
		t.Error("real-time reading leaked into the sample buffers")
	}
}
