// Package ignore loads directory-scoped ignore rules and matches paths against them.
package ignore

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"
	"go.uber.org/zap"
)

// RuleFileName is the per-directory rule file honored during traversal.
const RuleFileName = ".gitignore"

// maxRuleLine is the longest rule-file line accepted by ReadRules.
const maxRuleLine = 1024 * 1024

// Store reads rule files and evaluates paths against rule sets.
type Store struct {
	FileName string // Rule file looked up in each directory.
	Disabled bool   // When true, Load never reads rule files.

	matcher *Matcher
	logger  *zap.Logger
}

// NewStore creates a Store. A disabled store always returns empty rule sets.
func NewStore(disabled bool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		FileName: RuleFileName,
		Disabled: disabled,
		matcher:  NewMatcher(DefaultCacheSize, logger),
		logger:   logger,
	}
}

// Load returns the rules defined by the rule file in dir, in file order.
// A missing rule file yields no rules and no error.
func (s *Store) Load(dir string) ([]string, error) {
	if s.Disabled {
		return nil, nil
	}

	rulePath := filepath.Join(dir, s.FileName)
	f, err := os.Open(rulePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("opening rule file %s: %w", rulePath, err)
	}
	defer f.Close()

	rules, err := ReadRules(f)
	if err != nil {
		return nil, errors.Errorf("reading rule file %s: %w", rulePath, err)
	}

	s.logger.Debug("Loaded rule file", zap.String("filePath", rulePath), zap.Int("ruleCount", len(rules)))
	return rules, nil
}

// ReadRules parses rule-file content: one trimmed rule per line, skipping blank
// lines and lines starting with '#'.
func ReadRules(r io.Reader) ([]string, error) {
	var rules []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxRuleLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return rules, nil
}

// ShouldIgnore reports whether any rule in the given rule sets matches path.
// Rule sets are tested in order and the first match wins.
func (s *Store) ShouldIgnore(path string, ruleSets ...[]string) bool {
	for _, rules := range ruleSets {
		for _, rule := range rules {
			if s.matches(path, rule) {
				s.logger.Debug("Path matches ignore rule", zap.String("path", path), zap.String("rule", rule))
				return true
			}
		}
	}
	return false
}

// matches tests a single rule against path. Plain rules are matched against the
// basename; rules ending in a separator are additionally matched, with the
// separator stripped, against the path relative to its parent directory.
func (s *Store) matches(path, rule string) bool {
	if s.matcher.Match(filepath.Base(path), rule) {
		return true
	}

	if strings.HasSuffix(rule, "/") || strings.HasSuffix(rule, string(filepath.Separator)) {
		dirRule := rule[:len(rule)-1]
		rel, err := filepath.Rel(filepath.Dir(path), path)
		if err != nil {
			return false
		}
		return s.matcher.Match(filepath.ToSlash(rel), dirRule)
	}
	return false
}
