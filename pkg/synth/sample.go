package synth

import (
	"math/rand"
	"slices"

	"github.com/logflow/tracegen/internal/model"
)

// sampleIndices draws floor(n*fraction) distinct indices from [0, n),
// returned in ascending order.
func sampleIndices(rng *rand.Rand, n int, fraction float64) []int {
	k := int(float64(n) * fraction)
	if k <= 0 || n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	idx := rng.Perm(n)[:k]
	slices.Sort(idx)
	return idx
}

// Replicate deep-copies a random floor(N*fraction) traces, gives each copy a
// new case identifier and appends the copies to the log. It returns the copies.
func Replicate(log *model.Log, fraction float64, rng *rand.Rand, ids *CaseIDs) []*model.Trace {
	picked := sampleIndices(rng, log.Len(), fraction)
	copies := make([]*model.Trace, 0, len(picked))
	for _, i := range picked {
		cp := log.Traces[i].Clone()
		cp.CaseID = ids.Next()
		copies = append(copies, cp)
	}
	log.Append(copies...)
	return copies
}

// SplitPartial cuts a random floor(N*fraction) traces at a uniformly drawn
// position in [0, len]. The prefix stays in the log; the suffix is returned as
// a deferred trace with the same identifier and fresh events that carry only
// the activity and timestamp. A cut at len defers an empty trace.
func SplitPartial(log *model.Log, fraction float64, rng *rand.Rand) []*model.Trace {
	picked := sampleIndices(rng, log.Len(), fraction)
	deferred := make([]*model.Trace, 0, len(picked))
	for _, i := range picked {
		t := log.Traces[i]
		pos := splitPoint(rng, t.Len())

		suffix := model.NewTrace(t.CaseID)
		for _, e := range t.Events[pos:] {
			suffix.Append(&model.Event{Activity: e.Activity, Timestamp: e.Timestamp})
		}
		t.Events = slices.Clip(t.Events[:pos])
		deferred = append(deferred, suffix)
	}
	return deferred
}

// splitPoint draws a cut position bounded to [0, n].
func splitPoint(rng *rand.Rand, n int) int {
	return min(rng.Intn(n+1), n)
}
