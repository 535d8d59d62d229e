package result

import (
	"time"

	"github.com/sastkit/sastkit/internal/location"
	"github.com/sastkit/sastkit/internal/trace"
)

// EngineKind records which matching engine produced a match.
type EngineKind string

const (
	EngineOpenSource  EngineKind = "oss"
	EngineProprietary EngineKind = "pro"
)

// Match is one rule finding on one target. Immutable once produced.
type Match struct {
	RuleID   string            `json:"rule_id"`
	Path     string            `json:"path"`
	Severity string            `json:"severity,omitempty"`
	Range    location.Range    `json:"range"`
	Bindings map[string]string `json:"bindings,omitempty"`
	Engine   EngineKind        `json:"engine"`

	// Fingerprint is a content hash of the matched lines, filled in before a
	// report is written so later runs can correlate against it.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Taint explains a source-to-sink propagation for taint-mode matches.
	Taint *trace.TaintTrace `json:"-"`
}

// ErrorKind classifies a recovered failure.
type ErrorKind string

const (
	ErrTimeout        ErrorKind = "Timeout"
	ErrOutOfMemory    ErrorKind = "OutOfMemory"
	ErrTooManyMatches ErrorKind = "TooManyMatches"
	ErrPatternParse   ErrorKind = "PatternParseError"
	ErrASTBuilder     ErrorKind = "ASTBuilderError"
	ErrGeneric        ErrorKind = "Generic"
)

// Error is one recovered failure attached to the final result. Target-scoped
// errors always carry a location; when no precise one is available the first
// position in the file is used.
type Error struct {
	Kind    ErrorKind      `json:"kind"`
	RuleID  string         `json:"rule_id,omitempty"`
	Path    string         `json:"path,omitempty"`
	Range   location.Range `json:"range"`
	Message string         `json:"message"`
}

// Skipped records a target that was excluded from matching.
type Skipped struct {
	Path    string `json:"path"`
	Reason  string `json:"reason"`
	Details string `json:"details,omitempty"`
}

// Skip reasons surfaced to consumers.
const (
	SkipTooManyMatches = "too-many-matches"
	SkipSymlinkToDir   = "symlink-to-directory"
	SkipUnreadable     = "unreadable"
)

// TargetTiming is the per-file profiling entry.
type TargetTiming struct {
	ParseTime time.Duration `json:"parse_time"`
	MatchTime time.Duration `json:"match_time"`
	RunTime   time.Duration `json:"run_time"`
	Bytes     int64         `json:"bytes"`
}

// Profile aggregates resource-usage telemetry for one run.
type Profile struct {
	RunID    string                  `json:"run_id"`
	WallTime time.Duration           `json:"wall_time"`
	Targets  map[string]TargetTiming `json:"targets,omitempty"`
}

// FinalResult is the sole output contract of a run.
type FinalResult struct {
	Matches      []Match               `json:"matches"`
	Errors       []Error               `json:"errors"`
	Skipped      []Skipped             `json:"skipped"`
	Profile      Profile               `json:"profile"`
	Explanations []string              `json:"explanations,omitempty"`
	EngineByRule map[string]EngineKind `json:"engine_by_rule,omitempty"`
}
