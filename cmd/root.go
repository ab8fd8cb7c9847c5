package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"filestoprompt/pkg/logging"
	"filestoprompt/pkg/notebook"
	"filestoprompt/pkg/version"
)

// AppName is the command name and the appName field of every log entry.
const AppName = "files-to-prompt"

// rootOptions holds the parsed command-line flags.
type rootOptions struct {
	includeHidden   bool
	ignoreGitignore bool
	ignore          []string
	nbconvert       string
	format          string
	output          string
	verbose         bool

	logger *zap.Logger
}

// NewRootCmd builds the files-to-prompt command.
func NewRootCmd(logger *zap.Logger) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := &rootOptions{logger: logger}

	cmd := &cobra.Command{
		Use:   AppName + " [paths...]",
		Short: "Concatenate a directory full of files into a single prompt for use with LLMs",
		Long: `files-to-prompt writes every text file under the given paths to a single stream,
each preceded by its path and wrapped in "---" delimiter lines. Hidden entries and
files matched by .gitignore rules or --ignore patterns are skipped.

When stdin is piped, it is read as a list of paths: one per line, or grep-style
"path:match" lines. Those paths are processed after the ones given as arguments.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !opts.verbose {
				return nil
			}
			debugLogger, err := logging.Setup(true, AppName, version.Get().Version)
			if err != nil {
				return err
			}
			opts.logger = debugLogger
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.includeHidden, "include-hidden", false, "Include files and folders starting with .")
	flags.BoolVar(&opts.ignoreGitignore, "ignore-gitignore", false, "Ignore .gitignore files and include all files")
	flags.StringArrayVarP(&opts.ignore, "ignore", "i", nil, "Pattern of file names to ignore (repeatable)")
	flags.StringVar(&opts.nbconvert, "nbconvert", "", `Convert .ipynb notebooks with an external tool, or "internal" for the built-in converter`)
	flags.StringVar(&opts.format, "format", string(notebook.FormatAsciidoc), "Notebook output format: asciidoc or markdown")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the output to a file instead of stdout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	configureVersion(cmd)
	return cmd
}

// Execute runs the root command with the given logger.
func Execute(logger *zap.Logger) error {
	return NewRootCmd(logger).Execute()
}
