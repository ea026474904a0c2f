package synth

import (
	"time"

	"github.com/logflow/tracegen/internal/model"
)

// Stats describes a source log.
type Stats struct {
	Traces      int
	Events      int
	EmptyTraces int
	Activities  int // distinct activity labels
	Min         time.Time
	Max         time.Time
	SourceDays  int // zero when the log has no events
}

// Describe computes Stats for log.
func Describe(log *model.Log) Stats {
	st := Stats{Traces: log.Len(), Events: log.EventCount()}

	seen := make(map[string]struct{})
	for _, t := range log.Traces {
		if t.Len() == 0 {
			st.EmptyTraces++
		}
		for _, e := range t.Events {
			seen[e.Activity] = struct{}{}
		}
	}
	st.Activities = len(seen)

	if min, max, ok := log.Bounds(); ok {
		st.Min, st.Max = min, max
		st.SourceDays = SourceSpanDays(min, max)
	}
	return st
}
