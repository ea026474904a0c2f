// Package generators provides test data generation utilities.
package generators

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math/rand"
	"time"
)

// XESGenerator generates synthetic XES event logs.
type XESGenerator struct {
	rng *rand.Rand

	// Activities is the alphabet events are drawn from.
	Activities []string

	// MinEvents and MaxEvents bound the number of events per trace (inclusive).
	MinEvents int
	MaxEvents int

	// Start is the timestamp of the first event of the log.
	Start time.Time

	// MaxGap bounds the random delay between consecutive events.
	MaxGap time.Duration

	// Spread bounds how far apart trace start times are.
	Spread time.Duration
}

// NewXESGenerator creates an XES generator with default settings.
func NewXESGenerator(seed int64) *XESGenerator {
	return &XESGenerator{
		rng:        rand.New(rand.NewSource(seed)),
		Activities: []string{"register", "check", "approve", "reject", "pay", "archive"},
		MinEvents:  1,
		MaxEvents:  6,
		Start:      time.Date(2023, 1, 2, 8, 0, 0, 0, time.UTC),
		MaxGap:     6 * time.Hour,
		Spread:     30 * 24 * time.Hour,
	}
}

// Generate writes an XES log with n traces to the writer. Case identifiers
// are "case-0" through "case-<n-1>". The first event of trace 0 is at Start.
func (g *XESGenerator) Generate(w io.Writer, n int) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, `<?xml version="1.0" encoding="UTF-8" ?>`)
	fmt.Fprintln(bw, `<log xes.version="1.0" xes.features="nested-attributes">`)
	fmt.Fprintln(bw, `  <extension name="Concept" prefix="concept" uri="http://www.xes-standard.org/concept.xesext"/>`)
	fmt.Fprintln(bw, `  <global scope="event">`)
	fmt.Fprintln(bw, `    <string key="concept:name" value="__INVALID__"/>`)
	fmt.Fprintln(bw, `  </global>`)
	fmt.Fprintln(bw, `  <classifier name="Activity" keys="concept:name"/>`)

	for i := 0; i < n; i++ {
		start := g.Start
		if i > 0 && g.Spread > 0 {
			start = start.Add(time.Duration(g.rng.Int63n(int64(g.Spread))))
		}
		g.writeTrace(bw, fmt.Sprintf("case-%d", i), start)
	}

	fmt.Fprintln(bw, `</log>`)
	return bw.Flush()
}

func (g *XESGenerator) writeTrace(w io.Writer, caseID string, ts time.Time) {
	fmt.Fprintln(w, `  <trace>`)
	fmt.Fprintf(w, "    <string key=\"concept:name\" value=\"%s\"/>\n", html.EscapeString(caseID))

	count := g.MinEvents
	if g.MaxEvents > g.MinEvents {
		count += g.rng.Intn(g.MaxEvents - g.MinEvents + 1)
	}
	for j := 0; j < count; j++ {
		if j > 0 && g.MaxGap > 0 {
			ts = ts.Add(time.Duration(g.rng.Int63n(int64(g.MaxGap))))
		}
		activity := g.Activities[g.rng.Intn(len(g.Activities))]

		fmt.Fprintln(w, `    <event>`)
		fmt.Fprintf(w, "      <string key=\"concept:name\" value=\"%s\"/>\n", html.EscapeString(activity))
		fmt.Fprintf(w, "      <date key=\"time:timestamp\" value=\"%s\"/>\n", ts.Format("2006-01-02T15:04:05.000Z07:00"))
		fmt.Fprintln(w, `    </event>`)
	}
	fmt.Fprintln(w, `  </trace>`)
}
