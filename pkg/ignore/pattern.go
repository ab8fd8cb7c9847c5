// File: pkg/ignore/pattern.go
package ignore

import (
	"strings"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultCacheSize bounds the number of compiled patterns kept by a Matcher.
const DefaultCacheSize = 512

// Matcher tests text against wildcard patterns where only '*' is special.
// Compiled patterns are cached, so repeated rules across a tree are compiled once.
type Matcher struct {
	cache  *lru.Cache[string, glob.Glob]
	logger *zap.Logger
}

// NewMatcher creates a Matcher holding at most size compiled patterns.
func NewMatcher(size int, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, glob.Glob](size)
	if err != nil {
		// lru.New only fails for non-positive sizes
		panic(err)
	}
	return &Matcher{cache: cache, logger: logger}
}

var defaultMatcher = NewMatcher(DefaultCacheSize, nil)

// Match reports whether the whole of text matches pattern using the package matcher.
func Match(text, pattern string) bool {
	return defaultMatcher.Match(text, pattern)
}

// Match reports whether the whole of text matches pattern. '*' matches any run of
// characters (path separators included); every other character is literal.
// Matching is case-sensitive. A pattern that cannot be compiled never matches.
func (m *Matcher) Match(text, pattern string) bool {
	if pattern == "" {
		return text == ""
	}

	g, ok := m.cache.Get(pattern)
	if !ok {
		var err error
		g, err = compilePattern(pattern)
		if err != nil {
			m.logger.Debug("Invalid ignore pattern", zap.String("pattern", pattern), zap.Error(err))
			return false
		}
		m.cache.Add(pattern, g)
	}
	return g.Match(text)
}

// compilePattern quotes every glob metacharacter except '*' and compiles the result
// without separators, so '*' spans any sequence of characters.
func compilePattern(pattern string) (glob.Glob, error) {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = glob.QuoteMeta(part)
	}
	return glob.Compile(strings.Join(parts, "*"))
}
