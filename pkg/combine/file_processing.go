package combine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"

	"filestoprompt/pkg/notebook"
)

// processFile emits a single accepted file. Binary files are skipped with a
// warning; read and conversion failures are reported and do not stop the walk.
func (e *Engine) processFile(ctx context.Context, w *walk, path string, cfg *ProcessingConfig) error {
	binary, err := IsBinary(path, e.chunkSize)
	if err != nil {
		e.sink.Error(fmt.Sprintf("Error processing file %s: %v", path, err))
		w.stats.Failed++
		return nil
	}
	if binary {
		e.sink.Warn(fmt.Sprintf("Warning: Skipping binary file %s", path))
		w.stats.Binary++
		return nil
	}

	var content string
	if isNotebook(path) && cfg.NotebookConverter != "" {
		content, err = e.convertNotebook(ctx, path, cfg)
		if err != nil {
			e.sink.Error(fmt.Sprintf("Error converting notebook %s: %v", path, err))
			w.stats.Failed++
			return nil
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			e.sink.Error(fmt.Sprintf("Error processing file %s: %v", path, err))
			w.stats.Failed++
			return nil
		}
		content = string(data)
	}

	if err := e.sink.Write(formatRecord(path, content)); err != nil {
		return errors.Errorf("writing %s: %w", path, err)
	}
	e.logger.Debug("Emitted file", zap.String("filePath", path), zap.Int("contentSizeBytes", len(content)))
	w.stats.Emitted++
	return nil
}

func (e *Engine) convertNotebook(ctx context.Context, path string, cfg *ProcessingConfig) (string, error) {
	if cfg.NotebookConverter == InternalConverter {
		return notebook.ConvertFile(path, cfg.NotebookFormat)
	}
	conv := notebook.NewExternalConverter(cfg.NotebookConverter, e.runner, e.logger)
	return conv.ConvertFile(ctx, path, cfg.NotebookFormat)
}

func isNotebook(path string) bool {
	return filepath.Ext(path) == notebook.Extension
}
