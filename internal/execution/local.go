package execution

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/syncode/syncode/internal/logger"
)

// LocalRunner executes jobs in local subprocesses. It is the fallback engine
// for deployments without Judge0 credentials: the submitted source is written
// to a throwaway temp directory, compiled if the language needs it, and run
// under a hard wall-clock timeout. The temp directory and any compiled
// artifacts are removed on every exit path.
type LocalRunner struct {
	timeout time.Duration
}

// NewLocalRunner creates a runner with the given per-job wall-clock timeout
func NewLocalRunner(timeout time.Duration) *LocalRunner {
	return &LocalRunner{timeout: timeout}
}

// Execute runs the job locally. Unsupported languages fail before any file
// I/O. Compile errors, runtime errors and timeouts come back as an error
// Result rather than a Go error so the queue never retries them.
func (r *LocalRunner) Execute(ctx context.Context, job Job) (Result, error) {
	lang, err := Lookup(job.Language)
	if err != nil {
		return Result{}, err
	}

	dir, err := os.MkdirTemp("", "syncode-run-")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn("Failed to clean up run dir %s: %v", dir, rmErr)
		}
	}()

	srcName := "snippet." + lang.Extension
	if lang.Name == "java" {
		srcName = JavaClassName(job.SourceCode) + ".java"
	}
	srcPath := filepath.Join(dir, srcName)
	if err := os.WriteFile(srcPath, []byte(job.SourceCode), 0600); err != nil {
		return Result{}, fmt.Errorf("failed to write source file: %w", err)
	}

	steps := buildSteps(lang, dir, srcPath)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stdout string
	for i, args := range steps {
		lastStep := i == len(steps)-1

		cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
		cmd.Dir = dir
		if lastStep && job.Stdin != "" {
			cmd.Stdin = strings.NewReader(job.Stdin)
		}

		var outBuf, errBuf strings.Builder
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf

		if err := cmd.Run(); err != nil {
			if runCtx.Err() == context.DeadlineExceeded {
				return Result{
					Output:  fmt.Sprintf("Execution timed out after %s", r.timeout),
					IsError: true,
				}, nil
			}
			output := errBuf.String()
			if output == "" {
				output = err.Error()
			}
			return Result{Output: output, IsError: true}, nil
		}

		if lastStep {
			stdout = outBuf.String()
		}
	}

	if stdout == "" {
		stdout = "No output"
	}
	return Result{Output: stdout}, nil
}

// buildSteps returns the commands to run in order; the final step is the one
// that receives stdin and produces the job's output
func buildSteps(lang Language, dir, srcPath string) [][]string {
	switch lang.Name {
	case "javascript":
		return [][]string{{"node", srcPath}}
	case "python":
		return [][]string{{"python3", srcPath}}
	case "cpp":
		binPath := filepath.Join(dir, "snippet.out")
		return [][]string{
			{"g++", srcPath, "-o", binPath},
			{binPath},
		}
	case "java":
		className := strings.TrimSuffix(filepath.Base(srcPath), ".java")
		return [][]string{
			{"javac", srcPath},
			{"java", "-cp", dir, className},
		}
	default:
		// Lookup already rejected anything else
		return nil
	}
}
