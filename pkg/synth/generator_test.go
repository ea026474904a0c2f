package synth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logflow/tracegen/internal/model"
	tgerrors "github.com/logflow/tracegen/pkg/errors"
	"github.com/logflow/tracegen/pkg/parser"
	"github.com/logflow/tracegen/pkg/testing/generators"
)

// memSink keeps windows in memory, in write order.
type memSink struct {
	names []string
	files map[string][]string
	err   error
}

func newMemSink() *memSink {
	return &memSink{files: make(map[string][]string)}
}

func (s *memSink) Write(_ context.Context, name string, lines []string) error {
	if s.err != nil {
		return s.err
	}
	s.names = append(s.names, name)
	s.files[name] = lines
	return nil
}

type renderedEvent struct {
	activity string
	ts       time.Time
}

// parseLine splits a rendered line into its case id and events.
func parseLine(t *testing.T, line string) (string, []renderedEvent) {
	t.Helper()
	require.True(t, strings.HasSuffix(line, "\n"))
	id, body, ok := strings.Cut(strings.TrimSuffix(line, "\n"), "::")
	require.True(t, ok, "line %q has no case separator", line)

	var events []renderedEvent
	for _, tok := range strings.Split(body, ",") {
		act, ts, ok := strings.Cut(tok, "/delab/")
		require.True(t, ok, "token %q", tok)
		parsed, err := time.ParseInLocation(TimestampLayout, ts, time.UTC)
		require.NoError(t, err)
		events = append(events, renderedEvent{act, parsed})
	}
	return id, events
}

func TestFormatTrace(t *testing.T) {
	tr := model.NewTrace("Ab3dE")
	tr.Append(
		&model.Event{Activity: "register", Timestamp: time.Date(2023, 1, 1, 10, 0, 0, 500, time.UTC)},
		&model.Event{Activity: "pay", Timestamp: time.Date(2023, 1, 2, 23, 59, 59, 0, time.UTC)},
	)

	got := FormatTrace(tr, 14, time.UTC)
	assert.Equal(t, "Ab3dE::register/delab/2023-01-15 10:00:00,pay/delab/2023-01-16 23:59:59\n", got)

	cet := time.FixedZone("CET", 3600)
	assert.Equal(t, "Ab3dE::register/delab/2023-01-01 11:00:00,pay/delab/2023-01-03 00:59:59\n", FormatTrace(tr, 0, cet))
}

func TestRender_SkipsEmptyTraces(t *testing.T) {
	log := buildLog(5, 3, 1)
	log.Append(model.NewTrace("empty"))

	lines, events := Render(log, 0, time.UTC)
	assert.Len(t, lines, 5)
	assert.Equal(t, log.EventCount(), events)
	for _, l := range lines {
		assert.False(t, strings.HasPrefix(l, "empty::"))
	}
}

func TestWindow_ShiftsTimestamps(t *testing.T) {
	log := buildLog(20, 4, 2)
	byActivities := make(map[string][]time.Time)
	for _, tr := range log.Traces {
		var ts []time.Time
		for _, e := range tr.Events {
			ts = append(ts, e.Timestamp)
		}
		byActivities[strings.Join(tr.Activities(), "|")+ts[0].String()] = ts
	}

	g := New(log, Options{WantDays: 7, CarryOnFraction: 0, Seed: 3, Stem: "log", Suffix: ".withTimestamp"})
	w := g.Window(context.Background(), 2)

	assert.Equal(t, "log_2.withTimestamp", w.Name)
	require.Len(t, w.Lines, 20)
	assert.Equal(t, 0, w.Deferred)

	for _, line := range w.Lines {
		_, events := parseLine(t, line)
		var acts []string
		for _, e := range events {
			acts = append(acts, e.activity)
		}
		orig, ok := byActivities[strings.Join(acts, "|")+events[0].ts.AddDate(0, 0, -14).String()]
		require.True(t, ok, "line %q matches no source trace", line)
		for i, e := range events {
			assert.Equal(t, orig[i].AddDate(0, 0, 14), e.ts)
		}
	}
}

func TestWindow_CarriesDeferredTraces(t *testing.T) {
	log := buildLog(100, 6, 3)
	g := New(log, Options{WantDays: 5, CarryOnFraction: 0.3, Seed: 11, Stem: "x", Suffix: ".w"})

	w0 := g.Window(context.Background(), 0)
	assert.Equal(t, 30, w0.Deferred)
	assert.Equal(t, 0, w0.Carried)

	nonEmpty := 0
	for _, tr := range g.Log().Traces {
		if tr.Len() > 0 {
			nonEmpty++
		}
	}
	assert.Len(t, w0.Lines, nonEmpty, "one line per non-empty trace")

	pending := make(map[string]int)
	for _, d := range g.Deferred() {
		if d.Len() > 0 {
			pending[d.CaseID] = d.Len()
		}
	}

	w1 := g.Window(context.Background(), 1)
	assert.Equal(t, 30, w1.Carried)
	assert.Equal(t, 130, g.Log().Len(), "deferred traces stay in the log")
	assert.Equal(t, 39, w1.Deferred, "floor(130*0.3)")

	found := 0
	for _, line := range w1.Lines {
		id, _ := parseLine(t, line)
		if _, ok := pending[id]; ok {
			found++
		}
	}
	// A carried trace can be cut again at position zero in window 1, which
	// leaves it empty and unrendered.
	assert.LessOrEqual(t, found, len(pending))
	assert.Greater(t, found, 0)
}

func TestGenerator_EndToEnd(t *testing.T) {
	run := func(seed int64) (*Result, *memSink) {
		var buf bytes.Buffer
		require.NoError(t, generators.NewXESGenerator(11).Generate(&buf, 100))
		log, err := parser.NewXESParser(parser.DefaultConfig()).Parse(context.Background(), &buf)
		require.NoError(t, err)

		g := New(log, Options{
			WantDays:          7,
			NumLogs:           3,
			CarryOnFraction:   0.1,
			ReplicateFraction: 0.1,
			Seed:              seed,
			Stem:              "bench",
			Suffix:            ".withTimestamp",
		})
		var seen []int
		g.OnWindow(func(s Summary) { seen = append(seen, s.Index) })

		sink := newMemSink()
		res, err := g.Run(context.Background(), sink)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, seen)
		return res, sink
	}

	res, sink := run(42)

	assert.Equal(t, []string{"bench_0.withTimestamp", "bench_1.withTimestamp", "bench_2.withTimestamp"}, sink.names)
	assert.Equal(t, 100, res.Preparation.OriginalTraces)
	assert.Equal(t, 10, res.Preparation.Replicated)

	require.Len(t, res.Windows, 3)
	assert.LessOrEqual(t, res.Windows[0].Traces, 110)
	assert.GreaterOrEqual(t, res.Windows[0].Traces, 99)
	assert.Equal(t, 11, res.Windows[0].Deferred)
	assert.Equal(t, 11, res.Windows[1].Carried)
	assert.Equal(t, 12, res.Windows[1].Deferred)
	assert.Equal(t, 12, res.Windows[2].Carried)
	assert.Equal(t, 13, res.Windows[2].Deferred)

	start := generators.NewXESGenerator(11).Start
	for i, name := range sink.names {
		lo := start.AddDate(0, 0, 7*i)
		hi := lo.AddDate(0, 0, 7).Add(time.Hour)
		assert.Len(t, sink.files[name], res.Windows[i].Traces)
		for _, line := range sink.files[name] {
			id, events := parseLine(t, line)
			assert.Len(t, id, DefaultCaseIDLength)
			for _, e := range events {
				assert.False(t, e.ts.Before(lo), "window %d event %v before %v", i, e.ts, lo)
				assert.True(t, e.ts.Before(hi), "window %d event %v after %v", i, e.ts, hi)
			}
		}
	}

	_, again := run(42)
	assert.Equal(t, sink.files, again.files, "fixed seed reproduces output")

	_, other := run(43)
	assert.NotEqual(t, sink.files, other.files)
}

func TestGenerator_Errors(t *testing.T) {
	g := New(&model.Log{Traces: []*model.Trace{model.NewTrace("empty")}}, Options{WantDays: 1, NumLogs: 1, Stem: "e"})
	_, err := g.Run(context.Background(), newMemSink())
	assert.True(t, tgerrors.IsCode(err, tgerrors.CodeEmptyLog))

	g = New(buildLog(10, 3, 1), Options{WantDays: 1, NumLogs: 3, Stem: "f", Suffix: ".w"})
	sink := newMemSink()
	sink.err = errors.New("disk full")
	res, err := g.Run(context.Background(), sink)
	assert.EqualError(t, err, "disk full")
	assert.Empty(t, res.Windows)

	_, err = g.Prepare(context.Background())
	assert.True(t, tgerrors.IsCode(err, tgerrors.CodeInvalidArgument), "prepare runs once")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g = New(buildLog(10, 3, 1), Options{WantDays: 1, NumLogs: 3, Stem: "c", Suffix: ".w"})
	_, err = g.Run(ctx, newMemSink())
	assert.True(t, tgerrors.IsCode(err, tgerrors.CodeContextCanceled))
}
