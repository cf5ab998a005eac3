package solver

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourlab/internal/model"
	"tourlab/internal/tour"
)

func square() model.NodeSet {
	var ns model.NodeSet
	ns = ns.Add(0, 0, model.Black)
	ns = ns.Add(10, 0, model.Black)
	ns = ns.Add(10, 10, model.Black)
	ns = ns.Add(0, 10, model.Black)
	return ns
}

// fakeSolver writes a shell script standing in for concorde.
func fakeSolver(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake solver needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "concorde")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestConcorde(t *testing.T, bin string, timeout time.Duration) (*Concorde, string) {
	work := t.TempDir()
	c := NewConcorde(Options{
		Binaries: map[string]string{runtime.GOOS: bin},
		Timeout:  timeout,
		WorkDir:  work,
		Logger:   zerolog.Nop(),
	})
	return c, work
}

func TestSolve(t *testing.T) {
	bin := fakeSolver(t, `base="${1%.tsp}"
grep -q "^DIMENSION: 4$" "$1" || exit 9
grep -q "^2  1000 0$" "$1" || exit 8
printf '4\n0 1\n2 3\n' > "$base.sol"`)
	c, work := newTestConcorde(t, bin, 5*time.Second)

	got, err := c.Solve(context.Background(), square(), 100)
	require.NoError(t, err)
	assert.Equal(t, tour.Tour{0, 1, 2, 3, 0}, got)

	left, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, left, "scratch directory must be removed")
}

func TestSolveFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		timeout time.Duration
		want    error
		outcome string
	}{
		{"timeout", "exec sleep 5", 100 * time.Millisecond, ErrTimeout, "timeout"},
		{"no solution", "exit 0", time.Second, ErrNoSolution, "error"},
		{"incomplete tour", `printf '4\n0 1 1 3\n' > problem.sol`, time.Second, tour.ErrIncompleteTour, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestConcorde(t, fakeSolver(t, tt.body), tt.timeout)
			_, err := c.Solve(context.Background(), square(), 1)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.outcome, Outcome(err))
		})
	}
}

func TestSolveNonZeroExit(t *testing.T) {
	c, _ := newTestConcorde(t, fakeSolver(t, "echo broken >&2; exit 3"), time.Second)
	_, err := c.Solve(context.Background(), square(), 1)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "exit status 3"), err.Error())
}

func TestSolveUnsupportedPlatform(t *testing.T) {
	c := NewConcorde(Options{Binaries: map[string]string{"plan9": "/bin/concorde"}})
	_, ok := c.Binary()
	if runtime.GOOS != "plan9" {
		assert.False(t, ok)
	}
	c.goos = "windows"
	_, err := c.Solve(context.Background(), square(), 1)
	require.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.Equal(t, "unavailable", Outcome(err))
}

func TestSolveEmptyNodes(t *testing.T) {
	c, _ := newTestConcorde(t, "/does/not/run", time.Second)
	got, err := c.Solve(context.Background(), nil, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLimited(t *testing.T) {
	bin := fakeSolver(t, `printf '2\n1 0\n' > problem.sol`)
	c, _ := newTestConcorde(t, bin, time.Second)
	l := NewLimited(c, 0.001, 1)
	two := model.NodeSet{}.Add(0, 0, model.Black).Add(3, 4, model.Black)

	got, err := l.Solve(context.Background(), two, 1)
	require.NoError(t, err)
	assert.Equal(t, tour.Tour{1, 0, 1}, got)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Solve(ctx, two, 1)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, "rate_limited", Outcome(err))
}
