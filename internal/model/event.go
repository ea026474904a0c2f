// Package model defines core data structures for tracegen.
package model

import "time"

// Event represents a single recorded activity occurrence.
type Event struct {
	// Activity is the event name/activity label (concept:name).
	Activity string

	// Timestamp is when the activity happened (time:timestamp).
	Timestamp time.Time

	// Resource is the actor/resource performing the activity.
	Resource string

	// Attributes holds any other typed key-value pairs read from the source log.
	Attributes []Attribute
}

// Attribute represents a key-value pair for event metadata.
type Attribute struct {
	Key   string
	Value string
	Type  AttrType
}

// AttrType indicates the semantic type of an attribute value.
type AttrType uint8

const (
	AttrTypeString AttrType = iota
	AttrTypeInt
	AttrTypeFloat
	AttrTypeBool
	AttrTypeTimestamp
)

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	cp := &Event{
		Activity:  e.Activity,
		Timestamp: e.Timestamp,
		Resource:  e.Resource,
	}
	if len(e.Attributes) > 0 {
		cp.Attributes = make([]Attribute, len(e.Attributes))
		copy(cp.Attributes, e.Attributes)
	}
	return cp
}
