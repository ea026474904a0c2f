package model

import "time"

// Trace is one case's ordered event history.
type Trace struct {
	// CaseID groups the events into a process instance. tracegen reassigns it freely.
	CaseID string

	Events []*Event
}

// NewTrace creates an empty trace with the given case identifier.
func NewTrace(caseID string) *Trace {
	return &Trace{CaseID: caseID}
}

// Len returns the number of events in the trace.
func (t *Trace) Len() int {
	return len(t.Events)
}

// Append adds events to the end of the trace.
func (t *Trace) Append(events ...*Event) {
	t.Events = append(t.Events, events...)
}

// Clone returns a deep copy of the trace, events included.
func (t *Trace) Clone() *Trace {
	cp := &Trace{
		CaseID: t.CaseID,
		Events: make([]*Event, len(t.Events)),
	}
	for i, e := range t.Events {
		cp.Events[i] = e.Clone()
	}
	return cp
}

// Activities returns the activity labels in event order.
func (t *Trace) Activities() []string {
	out := make([]string, len(t.Events))
	for i, e := range t.Events {
		out[i] = e.Activity
	}
	return out
}

// Log is an ordered collection of traces. Insertion order drives iteration.
type Log struct {
	Traces []*Trace
}

// Len returns the number of traces.
func (l *Log) Len() int {
	return len(l.Traces)
}

// Append adds traces to the end of the log.
func (l *Log) Append(traces ...*Trace) {
	l.Traces = append(l.Traces, traces...)
}

// EventCount returns the total number of events across all traces.
func (l *Log) EventCount() int {
	n := 0
	for _, t := range l.Traces {
		n += len(t.Events)
	}
	return n
}

// Bounds returns the earliest and latest event timestamps in the log.
// ok is false when the log holds no events.
func (l *Log) Bounds() (min, max time.Time, ok bool) {
	for _, t := range l.Traces {
		for _, e := range t.Events {
			if !ok {
				min, max, ok = e.Timestamp, e.Timestamp, true
				continue
			}
			if e.Timestamp.Before(min) {
				min = e.Timestamp
			}
			if e.Timestamp.After(max) {
				max = e.Timestamp
			}
		}
	}
	return min, max, ok
}
