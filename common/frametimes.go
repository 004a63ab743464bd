package common

import (
	"github.com/montanaflynn/stats"
	"time"
)

// FrameTimes keeps the most recent frame durations.
type FrameTimes struct {
	ring *RingBuffer[time.Duration]
}

func NewFrameTimes(size int) *FrameTimes {
	return &FrameTimes{ring: NewRingBuffer[time.Duration](size)}
}

func (f *FrameTimes) Add(d time.Duration) { f.ring.Add(d) }

func (f *FrameTimes) Len() int { return f.ring.Len() }

// Recent is the newest n frame times in milliseconds, oldest first.
func (f *FrameTimes) Recent(n int) []float64 {
	durations := f.ring.Tail(n)
	ms := make([]float64, len(durations))
	for i, d := range durations {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	return ms
}

// FrameSummary is in milliseconds.
type FrameSummary struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean_ms"`
	P50  float64 `json:"p50_ms"`
	P95  float64 `json:"p95_ms"`
	P99  float64 `json:"p99_ms"`
	Max  float64 `json:"max_ms"`
}

func (f *FrameTimes) Summary() FrameSummary {
	durations := f.ring.Get()
	if len(durations) == 0 {
		return FrameSummary{}
	}
	data := make(stats.Float64Data, len(durations))
	for i, d := range durations {
		data[i] = float64(d) / float64(time.Millisecond)
	}
	s := FrameSummary{N: len(data)}
	s.Mean, _ = stats.Mean(data)
	s.P50, _ = stats.Percentile(data, 50)
	s.P95, _ = stats.Percentile(data, 95)
	s.P99, _ = stats.Percentile(data, 99)
	s.Max, _ = stats.Max(data)
	return s
}
