package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/logflow/tracegen/internal/model"
	"github.com/logflow/tracegen/pkg/config"
	tgerrors "github.com/logflow/tracegen/pkg/errors"
	"github.com/logflow/tracegen/pkg/logger"
	"github.com/logflow/tracegen/pkg/parser"
	"github.com/logflow/tracegen/pkg/sink"
	"github.com/logflow/tracegen/pkg/storage/s3"
	"github.com/logflow/tracegen/pkg/synth"
	"github.com/logflow/tracegen/pkg/telemetry"
	"github.com/logflow/tracegen/pkg/tui"
	"github.com/logflow/tracegen/pkg/util"
)

func runGenerate(cmd *cobra.Command, args []string) error {
	input := args[0]
	wantDays, err := parseCount("want_days", args[1])
	if err != nil {
		return err
	}
	numLogs, err := parseCount("num_logs", args[2])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Generator.WantDays = wantDays
	cfg.Generator.NumLogs = numLogs
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop, err := setup(cmd, cfg)
	if err != nil {
		return err
	}
	defer stop()
	log := logger.Get(ctx)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	startTime := time.Now()
	src, _, err := loadLog(ctx, input, cfg, loc)
	if err != nil {
		return err
	}

	out, err := sink.New(ctx, cfg.Output.Target, cfg.Storage.S3)
	if err != nil {
		return err
	}

	gen := synth.New(src, synth.Options{
		WantDays:          cfg.Generator.WantDays,
		NumLogs:           cfg.Generator.NumLogs,
		CarryOnFraction:   cfg.Generator.CarryOnFraction,
		ReplicateFraction: cfg.Generator.ReplicateFraction,
		CaseIDLength:      cfg.Generator.CaseIDLength,
		Seed:              cfg.Generator.Seed,
		Location:          loc,
		Stem:              util.Stem(input),
		Suffix:            cfg.Output.Suffix,
	})

	report := &tui.Report{Input: input, WantDays: cfg.Generator.WantDays}

	var onWindow func(synth.Summary)
	if noProgress {
		onWindow = func(s synth.Summary) {
			log.Infow("Iteration", "index", s.Index, "file", out.Location(s.Name))
		}
	} else {
		bar := tui.ShowProgress(cmd.ErrOrStderr(), int64(cfg.Generator.NumLogs), "windows")
		defer bar.Finish()
		onWindow = func(synth.Summary) { _ = bar.Add(1) }
	}
	gen.OnWindow(func(s synth.Summary) {
		onWindow(s)
		report.Windows = append(report.Windows, tui.WindowLine{
			Location: out.Location(s.Name),
			Traces:   s.Traces,
			Events:   s.Events,
			Carried:  s.Carried,
			Deferred: s.Deferred,
		})
	})

	res, err := gen.Run(ctx, out)
	if err != nil {
		log.Errorw("generation failed", "error", err, "windows_written", len(report.Windows))
		return err
	}

	p := res.Preparation
	report.OriginalTraces = p.OriginalTraces
	report.OriginalEvents = p.OriginalEvents
	report.SourceDays = p.SourceDays
	report.Replicated = p.Replicated
	report.Duration = time.Since(startTime)

	tui.PrintReport(cmd.OutOrStdout(), report)
	return nil
}

// parseCount parses a positive integer positional argument.
func parseCount(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, tgerrors.InvalidArgument(name, value, name+" must be an integer")
	}
	if n <= 0 {
		return 0, tgerrors.InvalidArgument(name, value, name+" must be positive")
	}
	return n, nil
}

// loadConfig applies flags set on the command line over the loaded config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Target = outputTarget
	}
	if flags.Changed("seed") {
		cfg.Generator.Seed = seed
	}
	if flags.Changed("carry-on") {
		cfg.Generator.CarryOnFraction = carryOn
	}
	if flags.Changed("replicate") {
		cfg.Generator.ReplicateFraction = replicate
	}
	if flags.Changed("suffix") {
		cfg.Output.Suffix = suffix
	}
	if flags.Changed("timezone") {
		cfg.Generator.Timezone = timezone
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// setup initializes logging and telemetry and returns a context canceled
// on SIGINT or SIGTERM. stop flushes both and releases the signal handler.
func setup(cmd *cobra.Command, cfg *config.Config) (context.Context, func(), error) {
	if err := logger.Init(cfg.Logging); err != nil {
		return nil, nil, tgerrors.Wrap(err, tgerrors.CodeConfigInvalid, "failed to initialize logger")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)

	runID := uuid.NewString()
	log := logger.Get(ctx).With("run_id", runID)
	ctx = logger.WithContext(ctx, log)

	if verbose {
		fmt.Fprint(cmd.ErrOrStderr(), cfg.String())
	}

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry, version)
	if err != nil {
		log.Warnw("telemetry disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}

	stop := func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdown(flushCtx); err != nil {
			log.Warnw("telemetry flush failed", "error", err)
		}
		cancel()
		_ = logger.Sync()
	}
	return ctx, stop, nil
}

// openInput opens a local path or s3:// URL, decompressing .gz input.
// It returns the reader, its cleanup and the stored size.
func openInput(ctx context.Context, path string, cfg *config.Config) (io.Reader, func() error, int64, error) {
	if s3.IsURL(path) {
		bucket, key, err := s3.ParseURL(path)
		if err != nil {
			return nil, nil, 0, tgerrors.InvalidArgument("logfile", path, err.Error())
		}
		client, err := s3.NewClient(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, nil, 0, tgerrors.Wrap(err, tgerrors.CodeConfigInvalid, "failed to create S3 client")
		}
		rc, size, err := client.Reader(ctx, bucket, key)
		if err != nil {
			return nil, nil, 0, tgerrors.Wrap(err, tgerrors.CodeFileNotFound, "failed to open object").
				WithContext("path", path)
		}
		r, cleanup, err := util.Decompress(key, rc)
		if err != nil {
			return nil, nil, 0, tgerrors.Wrap(err, tgerrors.CodeInvalidFormat, "failed to decompress input").
				WithContext("path", path)
		}
		return r, cleanup, size, nil
	}

	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil, 0, tgerrors.FileNotFound(path)
	}
	if err != nil {
		return nil, nil, 0, err
	}
	r, cleanup, err := util.OpenFile(path)
	if err != nil {
		return nil, nil, 0, tgerrors.Wrap(err, tgerrors.CodeInvalidFormat, "failed to open input").
			WithContext("path", path)
	}
	return r, cleanup, stat.Size(), nil
}

// loadLog parses the whole log at path.
func loadLog(ctx context.Context, path string, cfg *config.Config, loc *time.Location) (*model.Log, int64, error) {
	ctx, span := otel.Tracer("github.com/logflow/tracegen/cmd/tracegen").Start(ctx, "tracegen.load")
	defer span.End()

	format := parser.DetectFormat(path)
	if format == parser.FormatUnknown {
		return nil, 0, tgerrors.New(tgerrors.CodeInvalidFormat, "unsupported input format, expected .xes or .xes.gz").
			WithContext("path", path)
	}

	r, cleanup, size, err := openInput(ctx, path, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	defer cleanup()

	pcfg := parser.DefaultConfig()
	pcfg.Location = loc
	p, err := parser.NewParser(format, pcfg)
	if err != nil {
		return nil, 0, err
	}

	log, err := p.Parse(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(
		attribute.String("log.path", path),
		attribute.Int64("log.bytes", size),
		attribute.Int("log.traces", log.Len()),
	)
	logger.Get(ctx).Debugw("log loaded", "path", path, "bytes", size, "traces", log.Len())
	return log, size, nil
}
