package logging

import "strings"

// ProgressSampler thins per-record progress logs to one line per percentage
// bucket, restarting whenever the split changes.
type ProgressSampler struct {
	bucketSize float64
	lastSplit  string
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 10%) or when the split changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. A negative
// percent means unknown and only split changes emit.
func (s *ProgressSampler) ShouldLog(percent float64, split string) bool {
	if s == nil {
		return true
	}
	split = strings.TrimSpace(split)
	emit := false
	if split != "" && split != s.lastSplit {
		s.lastSplit = split
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		bucket := int(min(percent, 100) / s.bucketSize)
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Percent converts a done/total pair into a percentage, or -1 when total is zero.
func Percent(done, total int) float64 {
	if total <= 0 {
		return -1
	}
	return float64(done) * 100 / float64(total)
}

// Reset clears the sampler state.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastSplit = ""
	s.lastBucket = -1
}
