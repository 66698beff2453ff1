// Package stats records strike outcomes for end-of-match statistics.
package stats

import "math"

type Shot struct {
	Success bool `json:"success"`
}

// Summary is the end-of-match statistics block.
type Summary struct {
	TotalShots      int `json:"totalShots"`
	SuccessfulShots int `json:"successfulShots"`
	AccuracyPercent int `json:"accuracyPercent"`
}

// ShotLog is an append-only record of shots.
type ShotLog struct {
	shots []Shot
}

func (l *ShotLog) Record(success bool) {
	l.shots = append(l.shots, Shot{Success: success})
}

func (l *ShotLog) Len() int { return len(l.shots) }

// Shots returns a copy of the recorded shots.
func (l *ShotLog) Shots() []Shot {
	out := make([]Shot, len(l.shots))
	copy(out, l.shots)
	return out
}

// Summarize computes totals. Accuracy is rounded half away from zero and
// is 0 when no shots were fired.
func (l *ShotLog) Summarize() Summary {
	s := Summary{TotalShots: len(l.shots)}
	for _, sh := range l.shots {
		if sh.Success {
			s.SuccessfulShots++
		}
	}
	if s.TotalShots > 0 {
		s.AccuracyPercent = int(math.Round(100 * float64(s.SuccessfulShots) / float64(s.TotalShots)))
	}
	return s
}
