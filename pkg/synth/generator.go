package synth

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/logflow/tracegen/internal/model"
	tgerrors "github.com/logflow/tracegen/pkg/errors"
	"github.com/logflow/tracegen/pkg/logger"
)

// TimestampLayout is the layout of rendered event timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Options configures a Generator.
type Options struct {
	// WantDays is the span of every window in days, and the forward shift
	// applied per window index.
	WantDays int

	// NumLogs is the number of windows Run produces.
	NumLogs int

	// CarryOnFraction is the share of traces cut per window; their
	// suffixes move into the next window.
	CarryOnFraction float64

	// ReplicateFraction is the share of traces duplicated once before the
	// first window.
	ReplicateFraction float64

	CaseIDLength int

	// Seed initializes the random source. Zero seeds from the clock.
	Seed int64

	// Location renders timestamps. Defaults to UTC.
	Location *time.Location

	// Stem and Suffix name the windows: <Stem>_<index><Suffix>.
	Stem   string
	Suffix string
}

// Sink receives rendered windows.
type Sink interface {
	Write(ctx context.Context, name string, lines []string) error
}

// Preparation summarizes the one-off rescale and replication step.
type Preparation struct {
	OriginalTraces int
	OriginalEvents int
	Min            time.Time
	Max            time.Time
	SourceDays     int
	Replicated     int
}

// Window is one rendered output file.
type Window struct {
	Index    int
	Name     string
	Lines    []string
	Events   int // events rendered
	Carried  int // deferred traces merged in from the previous window
	Deferred int // traces cut in this window
}

// Summary describes a written window without its content.
type Summary struct {
	Index    int
	Name     string
	Traces   int
	Events   int
	Carried  int
	Deferred int
}

// Result summarizes a run.
type Result struct {
	Preparation Preparation
	Windows     []Summary
}

// Generator turns one log into a chain of windows. It mutates the log it is
// given; every call to Window advances its state.
type Generator struct {
	opts     Options
	log      *model.Log
	rng      *rand.Rand
	ids      *CaseIDs
	tracer   trace.Tracer
	deferred []*model.Trace
	prepared bool
	prep     Preparation

	onWindow func(Summary)
}

// New creates a generator over log.
func New(log *model.Log, opts Options) *Generator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	return &Generator{
		opts:   opts,
		log:    log,
		rng:    rng,
		ids:    NewCaseIDs(rng, opts.CaseIDLength),
		tracer: otel.Tracer("github.com/logflow/tracegen/pkg/synth"),
	}
}

// OnWindow registers a callback invoked after each window is written by Run.
func (g *Generator) OnWindow(fn func(Summary)) {
	g.onWindow = fn
}

// Log returns the working log.
func (g *Generator) Log() *model.Log {
	return g.log
}

// Deferred returns the traces waiting for the next window.
func (g *Generator) Deferred() []*model.Trace {
	return g.deferred
}

// Name returns the output name of window index.
func (g *Generator) Name(index int) string {
	return fmt.Sprintf("%s_%d%s", g.opts.Stem, index, g.opts.Suffix)
}

// Prepare rescales the log into the target span and replicates traces.
// It runs once; later calls return an error.
func (g *Generator) Prepare(ctx context.Context) (Preparation, error) {
	ctx, span := g.tracer.Start(ctx, "synth.prepare")
	defer span.End()

	if g.prepared {
		return Preparation{}, tgerrors.New(tgerrors.CodeInvalidArgument, "generator already prepared")
	}

	min, max, ok := g.log.Bounds()
	if !ok {
		err := tgerrors.EmptyLog(g.opts.Stem)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Preparation{}, err
	}

	prep := Preparation{
		OriginalTraces: g.log.Len(),
		OriginalEvents: g.log.EventCount(),
		Min:            min,
		Max:            max,
		SourceDays:     SourceSpanDays(min, max),
	}
	logger.Get(ctx).Infow("Original size",
		"traces", prep.OriginalTraces,
		"events", prep.OriginalEvents,
		"source_days", prep.SourceDays,
	)

	Rescale(g.log, Span{Min: min, SourceDays: prep.SourceDays, TargetDays: g.opts.WantDays}, g.ids)
	prep.Replicated = len(Replicate(g.log, g.opts.ReplicateFraction, g.rng, g.ids))

	span.SetAttributes(
		attribute.Int("log.traces", prep.OriginalTraces),
		attribute.Int("log.events", prep.OriginalEvents),
		attribute.Int("log.source_days", prep.SourceDays),
		attribute.Int("log.replicated", prep.Replicated),
	)
	g.prepared = true
	g.prep = prep
	return prep, nil
}

// Window produces the window with the given index: every trace gets a new
// identifier, the previous window's deferred traces join the log, a share of
// traces is cut for the next window, and all non-empty traces are rendered
// shifted forward by index*WantDays days.
func (g *Generator) Window(ctx context.Context, index int) *Window {
	ctx, span := g.tracer.Start(ctx, "synth.window",
		trace.WithAttributes(attribute.Int("window.index", index)))
	defer span.End()

	for _, t := range g.log.Traces {
		t.CaseID = g.ids.Next()
	}
	carried := len(g.deferred)
	g.log.Append(g.deferred...)
	g.deferred = SplitPartial(g.log, g.opts.CarryOnFraction, g.rng)

	w := &Window{
		Index:    index,
		Name:     g.Name(index),
		Carried:  carried,
		Deferred: len(g.deferred),
	}
	w.Lines, w.Events = Render(g.log, index*g.opts.WantDays, g.opts.Location)

	logger.Get(ctx).Infow("Log file size",
		"window", index,
		"events", w.Events,
		"traces", len(w.Lines),
		"carried", w.Carried,
		"deferred", w.Deferred,
	)
	span.SetAttributes(
		attribute.Int("window.traces", len(w.Lines)),
		attribute.Int("window.events", w.Events),
		attribute.Int("window.deferred", w.Deferred),
	)
	return w
}

// Run prepares the log if needed, then writes NumLogs windows to sink.
// Windows already written stay written when a later one fails.
func (g *Generator) Run(ctx context.Context, sink Sink) (*Result, error) {
	if !g.prepared {
		if _, err := g.Prepare(ctx); err != nil {
			return nil, err
		}
	}
	res := &Result{Preparation: g.prep}

	for i := 0; i < g.opts.NumLogs; i++ {
		if ctx.Err() != nil {
			return res, tgerrors.ContextCanceled("generate").WithContext("window", i)
		}

		w := g.Window(ctx, i)
		if err := sink.Write(ctx, w.Name, w.Lines); err != nil {
			return res, err
		}

		s := Summary{
			Index:    w.Index,
			Name:     w.Name,
			Traces:   len(w.Lines),
			Events:   w.Events,
			Carried:  w.Carried,
			Deferred: w.Deferred,
		}
		res.Windows = append(res.Windows, s)
		if g.onWindow != nil {
			g.onWindow(s)
		}
	}
	return res, nil
}

// Render serializes every non-empty trace as
// <case_id>::<activity>/delab/<timestamp>,... with each timestamp moved
// forward by shiftDays calendar days in loc. It returns the lines and the
// number of events rendered.
func Render(log *model.Log, shiftDays int, loc *time.Location) ([]string, int) {
	lines := make([]string, 0, log.Len())
	events := 0
	for _, t := range log.Traces {
		if t.Len() == 0 {
			continue
		}
		lines = append(lines, FormatTrace(t, shiftDays, loc))
		events += t.Len()
	}
	return lines, events
}

// FormatTrace renders one trace as a newline-terminated line.
func FormatTrace(t *model.Trace, shiftDays int, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(t.CaseID)
	sb.WriteString("::")
	for i, e := range t.Events {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(e.Activity)
		sb.WriteString("/delab/")
		sb.WriteString(e.Timestamp.In(loc).AddDate(0, 0, shiftDays).Format(TimestampLayout))
	}
	sb.WriteByte('\n')
	return sb.String()
}
