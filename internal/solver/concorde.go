// Package solver runs an external exact TSP solver (Concorde) as a
// subprocess and turns its solution file into a closed tour.
package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"tourlab/internal/model"
	"tourlab/internal/tour"
	"tourlab/internal/tspio"
)

var (
	ErrUnsupportedPlatform = errors.New("solver: no solver binary for this platform")
	ErrTimeout             = errors.New("solver: timed out")
	ErrNoSolution          = errors.New("solver: no solution file")
	ErrRateLimited         = errors.New("solver: rate limited")
)

const (
	problemFile  = "problem.tsp"
	solutionFile = "problem.sol"
	tempComment  = "GENERATED TEMPORARY FILE"

	defaultTimeout = 30 * time.Second
)

// Options configure a Concorde adapter.
type Options struct {
	// Binaries maps runtime.GOOS to the solver executable.
	Binaries map[string]string
	Timeout  time.Duration
	// WorkDir is the parent of per-run scratch directories. Empty means
	// the system temp directory.
	WorkDir string
	Logger  zerolog.Logger
}

// Concorde invokes the Concorde binary on a temporary problem file. It
// implements tour.ExactSolver and is safe for concurrent use: every run
// gets its own scratch directory.
type Concorde struct {
	opts Options
	goos string
}

var _ tour.ExactSolver = (*Concorde)(nil)

func NewConcorde(opts Options) *Concorde {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Concorde{opts: opts, goos: runtime.GOOS}
}

// Binary returns the executable configured for the running platform.
func (c *Concorde) Binary() (string, bool) {
	bin, ok := c.opts.Binaries[c.goos]
	return bin, ok && bin != ""
}

// Solve writes nodes to a problem file, runs the solver under the
// configured timeout and returns the closed optimal tour.
func (c *Concorde) Solve(ctx context.Context, nodes model.NodeSet, scale float64) (tour.Tour, error) {
	bin, ok := c.Binary()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, c.goos)
	}
	if len(nodes) == 0 {
		return tour.Tour{}, nil
	}
	log := c.opts.Logger.With().Str("bin", bin).Int("nodes", len(nodes)).Logger()

	dir, err := os.MkdirTemp(c.opts.WorkDir, "tourlab-solve-")
	if err != nil {
		return nil, fmt.Errorf("solver: scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("scratch cleanup failed")
		}
	}()

	if err := writeProblem(filepath.Join(dir, problemFile), nodes, scale); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, bin, problemFile)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	// Children that inherit the output pipe must not hold Wait past a kill.
	cmd.WaitDelay = time.Second

	start := time.Now()
	log.Debug().Msg("starting exact solver")
	err = cmd.Run()
	elapsed := time.Since(start)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		log.Warn().Dur("elapsed", elapsed).Msg("exact solver timed out")
		return nil, fmt.Errorf("%w after %s", ErrTimeout, c.opts.Timeout)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("output", tail(out.Bytes())).Msg("exact solver failed")
		return nil, fmt.Errorf("solver: %s: %w", filepath.Base(bin), err)
	}

	t, err := readSolution(filepath.Join(dir, solutionFile))
	if err != nil {
		return nil, err
	}
	t = append(t, t[0])
	if err := t.CheckComplete(len(nodes)); err != nil {
		return nil, err
	}
	log.Info().Dur("elapsed", elapsed).Msg("exact solver finished")
	return t, nil
}

func writeProblem(path string, nodes model.NodeSet, scale float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("solver: problem file: %w", err)
	}
	p := model.Problem{Name: problemFile, Comment: tempComment, Nodes: nodes}
	if err := tspio.Write(f, p, scale); err != nil {
		f.Close()
		return fmt.Errorf("solver: problem file: %w", err)
	}
	return f.Close()
}

func readSolution(path string) (tour.Tour, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSolution
		}
		return nil, fmt.Errorf("solver: %w", err)
	}
	defer f.Close()
	return tspio.ParseSolution(f)
}

// tail keeps the end of the solver output for log lines.
func tail(b []byte) string {
	const keep = 512
	if len(b) > keep {
		b = b[len(b)-keep:]
	}
	return string(bytes.TrimSpace(b))
}

// Outcome classifies a Solve error for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedPlatform), errors.Is(err, tour.ErrSolverUnavailable):
		return "unavailable"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
