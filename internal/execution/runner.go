package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cscrape/internal/domain"
	"cscrape/internal/parser"
)

// ErrTimeout is returned when compile_and_run outlives the simulator timeout
var ErrTimeout = errors.New("compile_and_run timed out")

// CacheDir is where a job's copied sources and results live
func CacheDir(job domain.Job) string {
	return filepath.Join(job.Simulator.Dir, "cache_"+job.Fixture.Name)
}

// Runner compiles and runs a fixture on a simulator, reusing cached results
// while the fixture sources are unchanged, then checks the results.
type Runner struct {
	alwaysCompile bool
	results       *parser.ResultsParser
	failures      *parser.FailureParser
	verifier      *Verifier
	logger        *slog.Logger
}

// NewRunner creates a new Runner
func NewRunner(alwaysCompile bool, verifier *Verifier, logger *slog.Logger) *Runner {
	return &Runner{
		alwaysCompile: alwaysCompile,
		results:       parser.NewResultsParser(),
		failures:      parser.NewFailureParser(),
		verifier:      verifier,
		logger:        logger,
	}
}

// Run executes one job. Errors are reported in the result, never returned.
func (r *Runner) Run(ctx context.Context, job domain.Job, workerID int) domain.JobResult {
	start := time.Now()
	res := domain.JobResult{Job: job, CacheDir: CacheDir(job)}
	log := r.logger.With("job", job.Name(), "worker", workerID)

	compiled, output, err := r.compile(ctx, job, res.CacheDir, workerID)
	res.Compiled = compiled
	res.Output = output
	if err != nil {
		log.Info("compile_and_run failed", "err", err)
		return r.failed(res, err, start)
	}
	log.Debug("results ready", "compiled", compiled, "dir", res.CacheDir)

	outcome, err := r.verifier.Verify(job, res.CacheDir)
	if err != nil {
		log.Info("verify failed", "err", err)
		return r.failed(res, err, start)
	}
	res.ConfigName = outcome.ConfigName
	res.Checked = len(outcome.Report.Results)
	res.Failures = r.failures.ParseReport(job, outcome.SourceFile, outcome.Report)
	res.Success = outcome.Report.Errors == 0
	res.Duration = time.Since(start)
	log.Debug("checked", "records", res.Checked, "errors", outcome.Report.Errors)
	return res
}

func (r *Runner) failed(res domain.JobResult, err error, start time.Time) domain.JobResult {
	res.Error = err
	res.Failures = []domain.Failure{r.failures.ParseError(res.Job, err)}
	res.Duration = time.Since(start)
	return res
}

// compile refreshes the cache directory. It reports whether the command ran.
func (r *Runner) compile(ctx context.Context, job domain.Job, cacheDir string, workerID int) (bool, string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return false, "", fmt.Errorf("create cache dir: %w", err)
	}

	stale, err := r.stale(job.Fixture, cacheDir)
	if err != nil {
		return false, "", err
	}
	if !stale {
		return false, "", r.results.Check(cacheDir)
	}

	if err := clearDir(cacheDir); err != nil {
		return false, "", err
	}

	output, cmdErr := r.execute(ctx, job, cacheDir, workerID)
	if errors.Is(cmdErr, ErrTimeout) || errors.Is(cmdErr, context.Canceled) {
		return true, output, cmdErr
	}
	// A failing command may still have written complete results
	if err := r.results.Check(cacheDir); err != nil {
		if cmdErr != nil {
			err = errors.Join(err, fmt.Errorf("compile_and_run: %w", cmdErr))
		}
		return true, output, err
	}

	for _, src := range job.Fixture.Sources {
		if err := copyFile(src, filepath.Join(cacheDir, filepath.Base(src))); err != nil {
			return true, output, fmt.Errorf("cache source: %w", err)
		}
	}
	return true, output, nil
}

// stale reports whether any fixture source differs from its cached copy
func (r *Runner) stale(fx domain.Fixture, cacheDir string) (bool, error) {
	if r.alwaysCompile {
		return true, nil
	}
	if _, err := os.Stat(filepath.Join(cacheDir, parser.ResultsFile)); err != nil {
		return true, nil
	}
	for _, src := range fx.Sources {
		want, err := os.ReadFile(src)
		if err != nil {
			return false, fmt.Errorf("read source: %w", err)
		}
		have, err := os.ReadFile(filepath.Join(cacheDir, filepath.Base(src)))
		if err != nil || !bytes.Equal(want, have) {
			return true, nil
		}
	}
	return false, nil
}

func (r *Runner) execute(ctx context.Context, job domain.Job, cacheDir string, workerID int) (string, error) {
	sim := job.Simulator
	if len(sim.Command) == 0 {
		return "", fmt.Errorf("simulator %s has no command", sim.Name)
	}
	if sim.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sim.Timeout)
		defer cancel()
	}

	args := append([]string{}, sim.Command[1:]...)
	for _, src := range job.Fixture.Sources {
		if !strings.HasSuffix(src, ".c") {
			continue
		}
		abs, err := filepath.Abs(src)
		if err != nil {
			return "", err
		}
		args = append(args, abs)
	}

	cmd := exec.CommandContext(ctx, sim.Command[0], args...)
	cmd.Dir = cacheDir
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(), sim.Env...)
	cmd.Env = append(cmd.Env,
		"CSCRAPE_FIXTURE="+job.Fixture.Name,
		"CSCRAPE_FIXTURE_DIR="+job.Fixture.Dir,
		"CSCRAPE_WORKER="+strconv.Itoa(workerID),
	)

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return string(output), fmt.Errorf("%w after %s", ErrTimeout, sim.Timeout)
	}
	if ctx.Err() == context.Canceled {
		return string(output), ctx.Err()
	}
	return string(output), err
}

// clearDir removes the files directly inside dir
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clear cache dir: %w", err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
