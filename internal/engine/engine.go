// Package engine defines the seam between the execution core and the
// language-specific matching machinery. The core treats parsers and matchers
// as black boxes it wraps with resource guards and engine attribution.
package engine

import (
	"context"
	"fmt"

	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/internal/rule"
	"github.com/sastkit/sastkit/internal/target"
)

// Document is the parsed form of one target, opaque to the core beyond its
// offset index. Real language analyzers attach their AST here.
type Document struct {
	Path     string
	Language string
	Source   []byte
	Index    *location.Index
}

// Parser turns target bytes into a Document. Implementations may return
// partial documents alongside parse errors.
type Parser interface {
	Parse(language string, t *target.Target) (*Document, []error)
}

// Matcher runs one rule against a parsed document.
type Matcher interface {
	Check(ctx context.Context, r *rule.Rule, doc *Document) ([]result.Match, error)
}

// Extraction is one nested region located by an extract rule.
type Extraction struct {
	Content     []byte
	StartOffset int
	Span        location.Range
}

// Extractor locates nested analyzable content inside a document.
type Extractor interface {
	Extract(ctx context.Context, r *rule.Rule, doc *Document) ([]Extraction, error)
}

// PatternError reports a pattern payload the engine could not compile. It
// surfaces lazily, on first use of the broken pattern.
type PatternError struct {
	RuleID string
	Err    error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern of rule %q failed to compile: %v", e.RuleID, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// ParseError reports a target the parser could not turn into a document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to build AST for %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
