package synth

import (
	"time"

	"github.com/logflow/tracegen/internal/model"
)

const day = 24 * time.Hour

// Gap repair offsets applied after rescaling.
const (
	closeGap       = time.Minute
	closeNudge     = time.Minute
	inversionNudge = 2 * time.Minute
)

// Span maps timestamps from the source span onto the target span,
// anchored at Min.
type Span struct {
	Min        time.Time
	SourceDays int
	TargetDays int
}

// SourceSpanDays returns the number of whole days between min and max, plus one.
func SourceSpanDays(min, max time.Time) int {
	return int(max.Sub(min)/day) + 1
}

// Map returns ts linearly rescaled into the target span.
func (s Span) Map(ts time.Time) time.Time {
	offset := float64(ts.Sub(s.Min))
	return s.Min.Add(time.Duration(offset / float64(s.SourceDays) * float64(s.TargetDays)))
}

// Rescale maps every event timestamp through span, assigns every trace a new
// case identifier, and pushes apart consecutive events that ended up between
// one second and one minute apart or out of order. Consecutive pairs are patched in
// order; the trace is never re-sorted, so larger inversions can survive.
// It returns the new identifiers in log order.
func Rescale(log *model.Log, span Span, ids *CaseIDs) []string {
	for _, t := range log.Traces {
		for _, e := range t.Events {
			e.Timestamp = span.Map(e.Timestamp)
		}
	}

	newIDs := make([]string, 0, log.Len())
	for _, t := range log.Traces {
		t.CaseID = ids.Next()
		newIDs = append(newIDs, t.CaseID)
		repairGaps(t)
	}
	return newIDs
}

// repairGaps compares gaps in whole seconds, so events less than a second
// apart are left alone.
func repairGaps(t *model.Trace) {
	for i := 0; i+1 < len(t.Events); i++ {
		next := t.Events[i+1]
		gap := next.Timestamp.Sub(t.Events[i].Timestamp)
		switch whole := gap.Truncate(time.Second); {
		case whole > 0 && whole < closeGap:
			next.Timestamp = next.Timestamp.Add(closeNudge)
		case gap < 0:
			next.Timestamp = next.Timestamp.Add(inversionNudge)
		}
	}
}
