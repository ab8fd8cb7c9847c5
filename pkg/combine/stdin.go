package combine

import "strings"

// maxStdinPathLength is the longest candidate path accepted from stdin.
const maxStdinPathLength = 1024

// ParseStdinPaths extracts file paths from piped text. Each non-blank line is
// either a plain path or a search-tool match of the form "path:content".
// Candidates with non-printable characters or longer than 1024 characters are
// dropped. The result is deduplicated, keeping first-occurrence order.
func ParseStdinPaths(raw string) []string {
	var paths []string
	seen := make(map[string]struct{})

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		candidate := line
		if i := strings.Index(line, ":"); i >= 0 {
			candidate = line[:i]
		}
		if !isValidStdinPath(candidate) {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		paths = append(paths, candidate)
	}
	return paths
}

func isValidStdinPath(s string) bool {
	if s == "" || len(s) > maxStdinPathLength {
		return false
	}
	for _, r := range s {
		if r < 32 || r > 126 {
			return false
		}
	}
	return true
}
