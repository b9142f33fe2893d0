package discover

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ignoreFileName is the root-level ignore file consulted during full scan,
// per §4.4.
const ignoreFileName = ".flashignore"

// IgnoreSet holds the glob/substring patterns loaded from a root's
// .flashignore file, one per line, blank lines and "#"-comments skipped.
type IgnoreSet struct {
	patterns []string
}

// loadIgnoreSet reads <root>/.flashignore if present; a missing file yields
// an empty, always-pass IgnoreSet.
func loadIgnoreSet(root string) *IgnoreSet {
	f, err := os.Open(filepath.Join(root, ignoreFileName))
	if err != nil {
		return &IgnoreSet{}
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return &IgnoreSet{patterns: patterns}
}

// Matches reports whether relPath (a file or directory path relative to the
// scan root, e.g. "raw/IMG_0001.dng") matches any ignore line, either as a
// glob pattern or a plain substring. Matching against the relative path
// rather than the bare basename lets a pattern target a subdirectory
// (e.g. "raw/*.dng"), per §4.
func (s *IgnoreSet) Matches(relPath string) bool {
	if s == nil {
		return false
	}
	base := filepath.Base(relPath)
	for _, p := range s.patterns {
		if ok, err := filepath.Match(p, relPath); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(p, base); err == nil && ok {
			return true
		}
		if strings.Contains(relPath, p) {
			return true
		}
	}
	return false
}
