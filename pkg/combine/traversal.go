// File: pkg/combine/traversal.go
package combine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"filestoprompt/pkg/ignore"
	"filestoprompt/pkg/notebook"
)

// Engine walks paths depth-first and writes every accepted file to a Sink.
type Engine struct {
	sink      Sink
	logger    *zap.Logger
	runner    notebook.Runner
	chunkSize int
	excluded  map[string]struct{}

	// onDirectory observes the config each directory is walked with.
	onDirectory func(dir string, cfg *ProcessingConfig)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunner sets the command runner used by external notebook converters.
func WithRunner(r notebook.Runner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithChunkSize sets the read size used for binary detection.
func WithChunkSize(n int) Option {
	return func(e *Engine) { e.chunkSize = n }
}

// WithExclude skips the given paths wherever they appear during a walk, such as
// an output file that lives inside a walked directory.
func WithExclude(paths ...string) Option {
	return func(e *Engine) {
		if e.excluded == nil {
			e.excluded = make(map[string]struct{})
		}
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				e.excluded[abs] = struct{}{}
			}
		}
	}
}

// NewEngine creates an Engine writing to sink.
func NewEngine(sink Sink, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		sink:      sink,
		logger:    logger,
		chunkSize: ChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats counts the outcome of a run.
type Stats struct {
	Emitted     int
	Ignored     int
	Binary      int
	Unsupported int
	Failed      int
}

// walk carries the state shared by one traversal.
type walk struct {
	rules *ignore.Store
	stats Stats
}

// ProcessPath visits a single path named by the caller.
// It returns an error only when the path does not exist or the sink fails.
func (e *Engine) ProcessPath(ctx context.Context, path string, cfg *ProcessingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := e.checkExists(path); err != nil {
		return err
	}
	w := &walk{rules: ignore.NewStore(cfg.IgnoreGitignore, e.logger)}
	return e.visit(ctx, w, path, cfg)
}

// visit classifies a top-level path and dispatches it.
func (e *Engine) visit(ctx context.Context, w *walk, path string, cfg *ProcessingConfig) error {
	if e.isExcluded(path) {
		e.logger.Debug("Skipping excluded path", zap.String("path", path))
		return nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		e.sink.Error(fmt.Sprintf("Error processing file %s: %v", path, err))
		w.stats.Failed++
		return nil
	}

	switch mode := info.Mode(); {
	case mode.IsRegular():
		if w.rules.ShouldIgnore(path, cfg.GitignoreRules, cfg.IgnorePatterns) {
			e.logger.Debug("Skipping ignored file", zap.String("filePath", path))
			w.stats.Ignored++
			return nil
		}
		return e.processFile(ctx, w, path, cfg)
	case mode.IsDir():
		return e.processDirectory(ctx, w, path, cfg)
	default:
		e.sink.Warn(fmt.Sprintf("Warning: Skipping %s: unsupported file type", path))
		w.stats.Unsupported++
		return nil
	}
}

// processDirectory emits the accepted files of dir, then recurses into its
// accepted subdirectories. A rule file in dir scopes a derived config to this
// subtree; otherwise the inherited config is shared as is.
func (e *Engine) processDirectory(ctx context.Context, w *walk, dir string, cfg *ProcessingConfig) error {
	scoped := cfg
	rules, err := w.rules.Load(dir)
	if err != nil {
		e.sink.Error(fmt.Sprintf("Error reading ignore rules in %s: %v", dir, err))
	} else if len(rules) > 0 {
		scoped = cfg.WithGitignoreRules(rules)
		e.logger.Debug("Scoped ignore rules to directory", zap.String("dir", dir), zap.Strings("rules", rules))
	}
	if e.onDirectory != nil {
		e.onDirectory(dir, scoped)
	}

	entries, err := readDirUnsorted(dir)
	if err != nil {
		e.sink.Error(fmt.Sprintf("Error reading directory %s: %v", dir, err))
		w.stats.Failed++
		return nil
	}

	var files, dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if !scoped.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if e.isExcluded(filepath.Join(dir, name)) {
			e.logger.Debug("Skipping excluded path", zap.String("path", filepath.Join(dir, name)))
			continue
		}
		switch {
		case entry.Type().IsRegular():
			files = append(files, filepath.Join(dir, name))
		case entry.IsDir():
			dirs = append(dirs, filepath.Join(dir, name))
		}
	}

	for _, file := range files {
		if w.rules.ShouldIgnore(file, scoped.GitignoreRules, scoped.IgnorePatterns) {
			e.logger.Debug("Skipping ignored file", zap.String("filePath", file))
			w.stats.Ignored++
			continue
		}
		if err := e.processFile(ctx, w, file, scoped); err != nil {
			return err
		}
	}

	// Command-line patterns target files; only rule-file patterns block descent.
	for _, sub := range dirs {
		if w.rules.ShouldIgnore(sub, scoped.GitignoreRules) {
			e.logger.Debug("Skipping ignored directory", zap.String("dir", sub))
			w.stats.Ignored++
			continue
		}
		if err := e.processDirectory(ctx, w, sub, scoped); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) isExcluded(path string) bool {
	if len(e.excluded) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := e.excluded[abs]
	return ok
}

// readDirUnsorted lists dir in the order the operating system returns entries.
func readDirUnsorted(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}
