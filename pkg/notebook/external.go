package notebook

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"
)

// Runner executes an external command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands as child processes with the given standard streams.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultRunner shares the caller's stdin and stderr. The tool's stdout is routed
// to stderr so it never mixes with the content stream.
func DefaultRunner() ExecRunner {
	return ExecRunner{Stdin: os.Stdin, Stdout: os.Stderr, Stderr: os.Stderr}
}

// Run starts the command and waits for it to exit.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Errorf("running %s: %w", name, err)
	}
	return nil
}

// ExternalConverter delegates notebook conversion to a tool invoked as
// `<tool> --to <format> <file>`, which must write its result next to the input.
type ExternalConverter struct {
	Tool   string
	runner Runner
	logger *zap.Logger
}

// NewExternalConverter creates a converter for tool. A nil runner uses DefaultRunner.
func NewExternalConverter(tool string, runner Runner, logger *zap.Logger) *ExternalConverter {
	if runner == nil {
		runner = DefaultRunner()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExternalConverter{Tool: tool, runner: runner, logger: logger}
}

// ConvertFile copies the notebook into a fresh temporary directory, runs the tool
// on the copy and returns the produced file's content. The temporary directory is
// removed on every return path.
func (c *ExternalConverter) ConvertFile(ctx context.Context, path string, format Format) (string, error) {
	tmpDir, err := os.MkdirTemp("", "files-to-prompt-")
	if err != nil {
		return "", errors.Errorf("creating temporary directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			c.logger.Warn("Failed to remove temporary directory", zap.String("dir", tmpDir), zap.Error(err))
		}
	}()

	tmpPath := filepath.Join(tmpDir, filepath.Base(path))
	if err := copyFile(path, tmpPath); err != nil {
		return "", err
	}

	c.logger.Debug("Running external notebook converter",
		zap.String("tool", c.Tool),
		zap.String("format", string(format)),
		zap.String("filePath", tmpPath))

	if err := c.runner.Run(ctx, c.Tool, "--to", string(format), tmpPath); err != nil {
		return "", err
	}

	outPath := strings.TrimSuffix(tmpPath, filepath.Ext(tmpPath)) + format.Extension()
	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", errors.Errorf("reading %s output: %w", c.Tool, err)
	}
	return string(data), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening notebook: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating notebook copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Errorf("copying notebook: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing notebook copy: %w", err)
	}
	return nil
}
