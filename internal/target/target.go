package target

import (
	"fmt"
	"os"
)

// Target is one unit of analysis input: a file (or synthesized nested
// content) paired with a language and the indexes of the rules that apply to
// it. Targets are created once per run and never mutated afterwards; each is
// consumed by exactly one worker invocation.
type Target struct {
	Path      string
	Language  string
	RuleIdx   []int
	SizeBytes int64

	// Content is set for synthetic targets produced by extraction. For
	// targets read from disk it stays nil until Read is called.
	Content []byte

	// Synthetic marks targets produced by extract rules; they are dropped
	// from the reported target list once their matches are adjusted.
	Synthetic bool
}

// Read returns the target's content, loading it from disk on first use for
// non-synthetic targets. The loaded bytes are kept so the worker invocation
// consuming this target reads the file at most once.
func (t *Target) Read() ([]byte, error) {
	if t.Content != nil {
		return t.Content, nil
	}
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target %q: %w", t.Path, err)
	}
	t.Content = data
	return data, nil
}

// New builds a target for a file on disk, recording its size for scheduling.
func New(path, language string, ruleIdx []int) (Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Target{}, fmt.Errorf("failed to stat target %q: %w", path, err)
	}
	return Target{
		Path:      path,
		Language:  language,
		RuleIdx:   ruleIdx,
		SizeBytes: info.Size(),
	}, nil
}
