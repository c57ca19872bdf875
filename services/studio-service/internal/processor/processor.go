package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

var (
	ErrProcessingFailed = errors.New("video processing failed")
	ErrTimeout          = errors.New("video processing timed out")
)

const maxDiagnosticBytes = 2 << 10

type Options struct {
	Interpreter    string
	Script         string
	Timeout        time.Duration
	MaxConcurrency int64
}

// Runner executes the external video script with at most MaxConcurrency
// runs in flight. Each run is killed once Timeout elapses.
type Runner struct {
	opts   Options
	sem    *semaphore.Weighted
	logger *zerolog.Logger

	inFlight prometheus.Gauge
	waiting  prometheus.Gauge
	runs     *prometheus.CounterVec
}

func NewRunner(opts Options, logger *zerolog.Logger, registerer prometheus.Registerer) *Runner {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}

	r := &Runner{
		opts:   opts,
		sem:    semaphore.NewWeighted(opts.MaxConcurrency),
		logger: logger,
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studio",
			Name:      "processor_runs_in_flight",
			Help:      "Number of video processing runs currently executing.",
		}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studio",
			Name:      "processor_runs_waiting",
			Help:      "Number of video processing runs waiting for a free slot.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Name:      "processor_runs_total",
			Help:      "Finished video processing runs by type and outcome.",
		}, []string{"type", "outcome"}),
	}

	if registerer != nil {
		registerer.MustRegister(r.inFlight, r.waiting, r.runs)
	}

	return r
}

// Run invokes "<interpreter> <script> <input> <output> <kind>" and blocks
// until the script exits, the timeout elapses or ctx is done.
func (r *Runner) Run(ctx context.Context, input, output, kind string) error {
	r.waiting.Inc()
	err := r.sem.Acquire(ctx, 1)
	r.waiting.Dec()
	if err != nil {
		r.runs.WithLabelValues(kind, "cancelled").Inc()
		return fmt.Errorf("%w: waiting for a processing slot: %v", ErrProcessingFailed, err)
	}
	defer r.sem.Release(1)

	r.inFlight.Inc()
	defer r.inFlight.Dec()

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.opts.Interpreter, r.opts.Script, input, output, kind)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	r.logger.Info().
		Str("type", kind).
		Str("input", input).
		Str("output", output).
		Msg("starting video processing")

	err = cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		r.runs.WithLabelValues(kind, "timeout").Inc()
		r.logger.Error().Str("type", kind).Dur("elapsed", elapsed).Msg("video processing timed out")
		return fmt.Errorf("%w: %w after %s", ErrProcessingFailed, ErrTimeout, r.opts.Timeout)
	}

	if err != nil {
		r.runs.WithLabelValues(kind, "failed").Inc()
		diagnostic := diagnosticOutput(stderr.String(), stdout.String())
		r.logger.Error().
			Err(err).
			Str("type", kind).
			Str("output", diagnostic).
			Dur("elapsed", elapsed).
			Msg("video processing failed")
		if diagnostic == "" {
			return fmt.Errorf("%w: %v", ErrProcessingFailed, err)
		}
		return fmt.Errorf("%w: %v: %s", ErrProcessingFailed, err, diagnostic)
	}

	r.runs.WithLabelValues(kind, "succeeded").Inc()
	r.logger.Info().Str("type", kind).Dur("elapsed", elapsed).Msg("video processing finished")

	return nil
}

// diagnosticOutput prefers stderr and keeps the tail, where scripts print their failure.
func diagnosticOutput(stderr, stdout string) string {
	out := strings.TrimSpace(stderr)
	if out == "" {
		out = strings.TrimSpace(stdout)
	}
	if len(out) > maxDiagnosticBytes {
		cut := len(out) - maxDiagnosticBytes
		for cut < len(out) && !utf8.RuneStart(out[cut]) {
			cut++
		}
		out = out[cut:]
	}
	return out
}
