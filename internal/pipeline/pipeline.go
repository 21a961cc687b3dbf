/*
Package pipeline wires the stages together: ingest, parse, normalize,
mechanics, events, analysis, assembly, validation. It is the one place that
decides between the success envelope and the error envelope, and the one
place that recovers panics — a panicking stage is a bug surfaced as an
unreadable-replay error, never a crash.
*/
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rlcoach/rlcoach/internal/analysis"
	"github.com/rlcoach/rlcoach/internal/events"
	"github.com/rlcoach/rlcoach/internal/ingest"
	"github.com/rlcoach/rlcoach/internal/mechanics"
	"github.com/rlcoach/rlcoach/internal/metrics"
	"github.com/rlcoach/rlcoach/internal/normalize"
	"github.com/rlcoach/rlcoach/internal/parser"
	"github.com/rlcoach/rlcoach/internal/parser/native"
	"github.com/rlcoach/rlcoach/internal/parser/nulladapter"
	"github.com/rlcoach/rlcoach/internal/replay"
	rc "github.com/rlcoach/rlcoach/internal/replay/replaycore"
	"github.com/rlcoach/rlcoach/internal/report"
)

// backendChainEnv orders the native adapter's backends; unknown names are
// skipped.
const backendChainEnv = "RLCOACH_PARSER_BACKEND_CHAIN"

// Quality warning tokens.
const (
	warnHeaderOnly      = "header_only_mode_limited_metrics"
	warnNetworkDegraded = "network_parse_degraded"
	warnLowFrameRate    = "low_frame_rate_sampling"
	warnCRCNotChecked   = "crc_not_checked"
)

// lowFrameRateThresholdHz is the warning threshold: below half the typical
// ~30 Hz sampling, the mechanics detector's fixed time windows span only a
// few frames and mechanic detection quality degrades visibly.
const lowFrameRateThresholdHz = 15.0

// Options configure one run.
type Options struct {
	AdapterName string // "native" (default) or "null"
	Clock       func() time.Time
	Metrics     *metrics.Registry
	Logger      *slog.Logger
}

// Result is the outcome of a run: exactly one of Report and Err is set.
type Result struct {
	Report *replay.Report
	Err    *replay.ErrorEnvelope

	// SchemaViolation marks an engine bug (exit code 4), as opposed to an
	// unreadable input (exit code 3).
	SchemaViolation bool
}

// Run executes the full pipeline over the file at path.
func Run(ctx context.Context, path string, opts Options) Result {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	var res Result
	func() {
		defer func() {
			if r := recover(); r != nil {
				opts.Logger.Error("pipeline panic", "path", path, "panic", r)
				env := replay.NewErrorEnvelope(fmt.Sprintf("internal error: %v", r))
				res = Result{Err: &env}
			}
		}()
		res = run(ctx, path, opts)
	}()
	return res
}

func run(ctx context.Context, path string, opts Options) Result {
	log := opts.Logger
	timer := stageTimer{m: opts.Metrics, clock: opts.Clock}

	timer.start("ingest")
	ing, err := ingest.Validate(path)
	timer.stop()
	if err != nil {
		env := replay.NewErrorEnvelope(err.Error())
		return Result{Err: &env}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		env := replay.NewErrorEnvelope(fmt.Sprintf("%s: %v", "io_error", err))
		return Result{Err: &env}
	}

	adapter := selectAdapter(opts.AdapterName)
	log.Info("parsing replay", "path", path, "adapter", adapter.Name(), "size", ing.Size)

	timer.start("parse_header")
	header, err := adapter.ParseHeader(data)
	timer.stop()
	if err != nil {
		if errors.Is(err, parser.ErrHeaderUndecodable) {
			env := replay.NewErrorEnvelope(err.Error())
			return Result{Err: &env}
		}
		env := replay.NewErrorEnvelope(fmt.Sprintf("header_undecodable: %v", err))
		return Result{Err: &env}
	}

	timer.start("parse_network")
	nf := adapter.ParseNetwork(data)
	timer.stop()

	warnings := append([]string{}, ing.Warnings...)
	diag := nf.Diagnostics
	switch diag.Status {
	case rc.NetworkUnavailable:
		warnings = append(warnings, warnHeaderOnly)
	case rc.NetworkDegraded:
		if diag.FramesEmitted > 0 {
			warnings = append(warnings, warnNetworkDegraded)
		} else {
			warnings = append(warnings, warnHeaderOnly)
		}
		opts.Metrics.Degradations.WithLabelValues(diag.ErrorCode).Inc()
	}

	timer.start("normalize")
	tl, norm := normalize.Build(header, nf)
	timer.stop()
	warnings = append(warnings, norm.Warnings...)
	if len(tl.Frames) > 0 && tl.FrameHz < lowFrameRateThresholdHz {
		warnings = append(warnings, warnLowFrameRate)
	}

	timer.start("mechanics")
	mechs := mechanics.Detect(tl)
	timer.stop()

	timer.start("events")
	evs := events.Detect(header, tl, nf.PadPickups, mechs)
	timer.stop()

	timer.start("analysis")
	out := analysis.Aggregate(ctx, &analysis.Input{
		Header:    header,
		Timeline:  tl,
		Events:    evs,
		Mechanics: mechs,
		TeamSize:  header.TeamSize,
	})
	timer.stop()
	warnings = append(warnings, out.Warnings...)

	timer.start("assemble")
	rep := report.Assemble(report.Inputs{
		SourceFile:     path,
		FileSHA256:     ing.SHA256,
		CRCChecked:     ing.CRCChecked,
		AdapterName:    adapter.Name(),
		AdapterVersion: adapter.Version(),
		Header:         header,
		Diagnostics:    diag,
		Timeline:       tl,
		Events:         evs,
		Analysis:       out,
		Warnings:       warnings,
		GeneratedAt:    opts.Clock(),
	})
	timer.stop()

	if err := report.Validate(rep); err != nil {
		log.Error("schema validation failed", "path", path, "err", err)
		env := replay.NewErrorEnvelope(fmt.Sprintf("schema_violation: %v", err))
		return Result{Err: &env, SchemaViolation: true}
	}

	opts.Metrics.ReportsTotal.Inc()
	return Result{Report: rep}
}

// selectAdapter maps a requested adapter name to an implementation,
// honoring the backend-chain override for the native adapter. Unknown
// names fall back to the null adapter rather than failing the run.
func selectAdapter(name string) parser.Adapter {
	if name == "" {
		name = "native"
	}
	if chain := os.Getenv(backendChainEnv); chain != "" {
		for _, b := range strings.Split(chain, ",") {
			switch strings.TrimSpace(b) {
			case "native", "rust":
				return native.New()
			case "null":
				return nulladapter.New()
			}
		}
	}
	switch name {
	case "native", "rust":
		return native.New()
	default:
		return nulladapter.New()
	}
}

// stageTimer observes stage wall time into the stage-duration histogram.
type stageTimer struct {
	m     *metrics.Registry
	clock func() time.Time

	stage string
	begin time.Time
}

func (t *stageTimer) start(stage string) {
	t.stage = stage
	t.begin = t.clock()
}

func (t *stageTimer) stop() {
	if t.stage == "" {
		return
	}
	t.m.StageDuration.WithLabelValues(t.stage).Observe(t.clock().Sub(t.begin).Seconds())
	t.stage = ""
}
