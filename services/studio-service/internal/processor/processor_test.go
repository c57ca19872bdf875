package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "process.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestRunner(t *testing.T, script string, timeout time.Duration) *Runner {
	t.Helper()
	logger := zerolog.Nop()
	return NewRunner(Options{
		Interpreter:    "sh",
		Script:         script,
		Timeout:        timeout,
		MaxConcurrency: 1,
	}, &logger, prometheus.NewRegistry())
}

func TestRunPassesArguments(t *testing.T) {
	script := writeScript(t, `printf '%s' "$3" > "$2"`)
	r := newTestRunner(t, script, 5*time.Second)

	output := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, r.Run(context.Background(), "in.mp4", output, "4k-upscale"))

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "4k-upscale", string(got))
}

func TestRunNonZeroExitCapturesDiagnostics(t *testing.T) {
	script := writeScript(t, `echo "codec not supported" >&2; exit 3`)
	r := newTestRunner(t, script, 5*time.Second)

	err := r.Run(context.Background(), "in.mp4", "out.mp4", "beauty-filter")
	require.ErrorIs(t, err, ErrProcessingFailed)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "codec not supported")
}

func TestRunTimeout(t *testing.T) {
	script := writeScript(t, `exec sleep 5`)
	r := newTestRunner(t, script, 100*time.Millisecond)

	start := time.Now()
	err := r.Run(context.Background(), "in.mp4", "out.mp4", "video-filter")
	require.ErrorIs(t, err, ErrProcessingFailed)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunHonoursCancellationWhileWaitingForSlot(t *testing.T) {
	script := writeScript(t, `exit 0`)
	r := newTestRunner(t, script, time.Second)

	require.NoError(t, r.sem.Acquire(context.Background(), 1))
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Run(ctx, "in.mp4", "out.mp4", "4k-upscale")
	require.ErrorIs(t, err, ErrProcessingFailed)
	assert.Contains(t, err.Error(), "processing slot")
}

func TestDiagnosticOutputKeepsTail(t *testing.T) {
	assert.Equal(t, "from stdout", diagnosticOutput("  ", "from stdout\n"))
	assert.Equal(t, "err", diagnosticOutput("err", "out"))

	long := make([]byte, maxDiagnosticBytes+10)
	for i := range long {
		long[i] = 'a'
	}
	long[len(long)-1] = 'z'
	got := diagnosticOutput(string(long), "")
	assert.Len(t, got, maxDiagnosticBytes)
	assert.Equal(t, byte('z'), got[len(got)-1])
}

func TestDiagnosticOutputCutsOnRuneBoundary(t *testing.T) {
	// Two-byte runes put the naive cut point in the middle of one.
	got := diagnosticOutput(strings.Repeat("é", 1100)+"z", "")
	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, maxDiagnosticBytes-1)
	assert.True(t, strings.HasSuffix(got, "éz"))
}
