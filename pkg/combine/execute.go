// File: pkg/combine/execute.go
package combine

import (
	"context"
	"fmt"
	"os"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"

	"filestoprompt/pkg/ignore"
)

// ErrPathNotExist is returned when a path named by the caller does not exist.
var ErrPathNotExist = errors.New("path does not exist")

// Run validates cfg, checks that every path exists, then visits the paths in
// order. Nothing is written if a path is missing.
func (e *Engine) Run(ctx context.Context, paths []string, cfg *ProcessingConfig) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}

	e.logger.Debug("Starting traversal", zap.Strings("paths", paths))
	for _, path := range paths {
		if err := e.checkExists(path); err != nil {
			return Stats{}, err
		}
	}

	w := &walk{rules: ignore.NewStore(cfg.IgnoreGitignore, e.logger)}
	for _, path := range paths {
		if err := e.visit(ctx, w, path, cfg); err != nil {
			return w.stats, err
		}
	}

	e.logger.Debug("Traversal completed",
		zap.Int("emitted", w.stats.Emitted),
		zap.Int("ignored", w.stats.Ignored),
		zap.Int("binary", w.stats.Binary),
		zap.Int("unsupported", w.stats.Unsupported),
		zap.Int("failed", w.stats.Failed))
	return w.stats, nil
}

func (e *Engine) checkExists(path string) error {
	_, err := os.Lstat(path)
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		e.sink.Error(fmt.Sprintf("Error: Path does not exist: %s", path))
		return errors.Errorf("%w: %s", ErrPathNotExist, path)
	}
	e.sink.Error(fmt.Sprintf("Error: Cannot access %s: %v", path, err))
	return errors.Errorf("accessing %s: %w", path, err)
}
