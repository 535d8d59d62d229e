package baseline

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
)

// Fingerprint returns the SHA256 hex digest of the given line range of src.
// Line numbers are 1-based and inclusive. Returns "" when the range does not
// fall inside src.
func Fingerprint(src []byte, startLine, endLine int) string {
	if startLine <= 0 {
		return ""
	}
	lines := strings.Split(string(src), "\n")
	end := startLine
	if endLine > startLine {
		end = endLine
	}
	if startLine > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	snippet := strings.Join(lines[startLine-1:end], "\n")
	sum := sha256.Sum256([]byte(snippet))
	return fmt.Sprintf("%x", sum[:])
}

// FileFingerprint reads the file at path and fingerprints the given line
// range. Returns "" when the file cannot be read, so an unreadable target
// degrades to line-based correlation instead of failing the run.
func FileFingerprint(path string, startLine, endLine int) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return Fingerprint(data, startLine, endLine)
}
