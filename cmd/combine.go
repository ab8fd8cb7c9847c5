package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"
	"golang.org/x/term"

	"filestoprompt/pkg/combine"
	"filestoprompt/pkg/config"
	"filestoprompt/pkg/notebook"
)

// runCombine resolves configuration and paths, then runs the traversal engine.
func runCombine(cmd *cobra.Command, args []string, opts *rootOptions) (err error) {
	fileCfg, err := config.Resolve()
	if err != nil {
		return err
	}

	cfg, output, err := buildConfig(cmd.Flags(), opts, fileCfg)
	if err != nil {
		return err
	}

	paths := append([]string{}, args...)
	stdinPaths, err := readStdinPaths(cmd.InOrStdin())
	if err != nil {
		return err
	}
	paths = append(paths, stdinPaths...)
	if len(paths) == 0 {
		return errors.New("no paths given: pass paths as arguments or pipe them on stdin")
	}

	sink, err := openSink(cmd, output)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// From here on failures are reported through the sink.
	cmd.SilenceErrors = true

	opts.logger.Debug("Resolved configuration",
		zap.Strings("paths", paths),
		zap.Bool("includeHidden", cfg.IncludeHidden),
		zap.Bool("ignoreGitignore", cfg.IgnoreGitignore),
		zap.Strings("ignorePatterns", cfg.IgnorePatterns),
		zap.String("notebookConverter", cfg.NotebookConverter),
		zap.String("notebookFormat", string(cfg.NotebookFormat)))

	var engineOpts []combine.Option
	if output != "" {
		engineOpts = append(engineOpts, combine.WithExclude(output))
	}
	engine := combine.NewEngine(sink, opts.logger, engineOpts...)
	_, err = engine.Run(cmd.Context(), paths, cfg)
	return err
}

// buildConfig merges config-file defaults with flags. Flags that were set
// explicitly win; ignore patterns from both sources are concatenated.
func buildConfig(flags *pflag.FlagSet, opts *rootOptions, fileCfg *config.File) (*combine.ProcessingConfig, string, error) {
	cfg := &combine.ProcessingConfig{
		IncludeHidden:     opts.includeHidden,
		IgnoreGitignore:   opts.ignoreGitignore,
		NotebookConverter: opts.nbconvert,
	}
	if fileCfg.IncludeHidden != nil && !flags.Changed("include-hidden") {
		cfg.IncludeHidden = *fileCfg.IncludeHidden
	}
	if fileCfg.IgnoreGitignore != nil && !flags.Changed("ignore-gitignore") {
		cfg.IgnoreGitignore = *fileCfg.IgnoreGitignore
	}
	if fileCfg.NBConvert != "" && !flags.Changed("nbconvert") {
		cfg.NotebookConverter = fileCfg.NBConvert
	}
	cfg.IgnorePatterns = append(append([]string{}, fileCfg.Ignore...), opts.ignore...)

	formatName := opts.format
	if fileCfg.Format != "" && !flags.Changed("format") {
		formatName = fileCfg.Format
	}
	format, err := notebook.ParseFormat(formatName)
	if err != nil {
		return nil, "", err
	}
	cfg.NotebookFormat = format

	output := opts.output
	if fileCfg.Output != "" && !flags.Changed("output") {
		output = fileCfg.Output
	}
	return cfg, output, nil
}

// readStdinPaths reads candidate paths from in unless it is an interactive terminal.
func readStdinPaths(in io.Reader) ([]string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, errors.Errorf("reading stdin: %w", err)
	}
	return combine.ParseStdinPaths(string(data)), nil
}

func openSink(cmd *cobra.Command, output string) (*combine.WriterSink, error) {
	if output == "" {
		return combine.NewConsoleSink(cmd.OutOrStdout(), cmd.ErrOrStderr()), nil
	}
	return combine.NewFileSink(output, cmd.ErrOrStderr())
}
