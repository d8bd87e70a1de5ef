package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesStdout(t *testing.T) {
	e := New()
	res, err := e.Run(context.Background(), Request{Command: "echo hello"})

	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "hello")
	assert.False(t, res.TimedOut)
}

func TestRun_NonZeroExitProducesErrorAnalysis(t *testing.T) {
	e := New()
	res, err := e.Run(context.Background(), Request{Command: "cat /no/such/file"})

	require.NoError(t, err)
	assert.NotEqual(t, 0, res.ExitCode)
	require.NotNil(t, res.ErrorAnalysis)
	assert.Contains(t, res.ErrorAnalysis.ProbableCause, "does not exist")
}

func TestRun_RefusedCommandNeverRuns(t *testing.T) {
	e := New()
	res, err := e.Run(context.Background(), Request{Command: "rm -rf /", CheckSafety: true})

	require.Error(t, err)
	assert.Equal(t, Result{}, res)
}

func TestRun_InteractiveCommandIsRecommendedNotExecuted(t *testing.T) {
	e := New()
	res, err := e.Run(context.Background(), Request{Command: "vim file.txt"})

	require.Error(t, err)
	assert.True(t, res.Recommended)
}

func TestRun_TimeoutKillsChild(t *testing.T) {
	e := New()
	res, err := e.Run(context.Background(), Request{
		Command: "sleep 5",
		Timeout: 100 * time.Millisecond,
	})

	require.NoError(t, err)
	assert.True(t, res.TimedOut)
}

func TestRun_CancellationStopsChild(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	res, err := e.Run(ctx, Request{Command: "sleep 5"})

	require.NoError(t, err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestRun_OutputCallbackReceivesChunks(t *testing.T) {
	e := New()
	var lines []string
	_, err := e.Run(context.Background(), Request{
		Command: "printf 'a\\nb\\n'",
		OnOutput: func(stream, chunk string) {
			lines = append(lines, chunk)
		},
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, lines)
}
