// File: pkg/combine/config.go
package combine

import (
	"gitlab.com/tozd/go/errors"

	"filestoprompt/pkg/notebook"
)

// InternalConverter selects the built-in notebook converter.
const InternalConverter = "internal"

// ProcessingConfig holds the options for one traversal.
// Values are treated as immutable; directory-scoped rules are added through
// WithGitignoreRules, which returns a new value for the subtree.
type ProcessingConfig struct {
	IncludeHidden     bool            // Include files and directories whose name starts with '.'.
	IgnoreGitignore   bool            // Do not read rule files while walking.
	IgnorePatterns    []string        // Patterns given on the command line; tested against files only.
	GitignoreRules    []string        // Rule-file patterns in scope for the current subtree.
	NotebookConverter string          // External tool name, InternalConverter, or empty for none.
	NotebookFormat    notebook.Format // Target format for notebook conversion.
}

// Validate reports configuration errors that must stop a run before any path is visited.
func (c *ProcessingConfig) Validate() error {
	if c.NotebookConverter == "" {
		return nil
	}
	if _, err := notebook.ParseFormat(string(c.NotebookFormat)); err != nil {
		return errors.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// WithGitignoreRules derives a config for a subtree whose rule file defined rules.
// The receiver is left untouched, so sibling subtrees keep their own scope.
func (c *ProcessingConfig) WithGitignoreRules(rules []string) *ProcessingConfig {
	derived := *c
	derived.GitignoreRules = make([]string, 0, len(c.GitignoreRules)+len(rules))
	derived.GitignoreRules = append(derived.GitignoreRules, c.GitignoreRules...)
	derived.GitignoreRules = append(derived.GitignoreRules, rules...)
	return &derived
}
