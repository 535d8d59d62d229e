package target

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/pkg/shared/files"
)

// extensionsByLanguage is the file-discovery fallback mapping. The real
// target resolver lives outside the core; this walk only serves runs that
// supply a root path and a single declared language.
var extensionsByLanguage = map[string][]string{
	"python":     {".py"},
	"go":         {".go"},
	"javascript": {".js", ".jsx"},
	"typescript": {".ts", ".tsx"},
	"java":       {".java"},
	"ruby":       {".rb"},
	"yaml":       {".yaml", ".yml"},
	"markdown":   {".md"},
	"generic":    nil, // every regular file
}

// Discover walks root and builds a target per regular file matching the
// declared language's extensions. Every discovered target gets the full rule
// index list; per-rule path filtering happens later in the applier.
//
// Symbolic links to directories are never followed; each one is recorded as
// a skipped target with an explanatory reason.
func Discover(root, language string, ruleCount int, logger hclog.Logger) ([]Target, []result.Skipped, error) {
	exts, ok := extensionsByLanguage[strings.ToLower(language)]
	if !ok {
		return nil, nil, fmt.Errorf("unknown language %q for target discovery", language)
	}

	allRules := make([]int, ruleCount)
	for i := range allRules {
		allRules[i] = i
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat scan root %q: %w", root, err)
	}
	if !info.IsDir() {
		t, err := New(root, language, allRules)
		if err != nil {
			return nil, nil, err
		}
		return []Target{t}, nil, nil
	}

	var targets []Target
	var skipped []result.Skipped

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			isDir, lerr := files.IsSymlinkToDir(path)
			if lerr != nil {
				logger.Warn("cannot resolve symlink", "path", path, "error", lerr)
				return nil
			}
			if isDir {
				logger.Debug("skipping symlink to directory", "path", path)
				skipped = append(skipped, result.Skipped{
					Path:    path,
					Reason:  result.SkipSymlinkToDir,
					Details: "symbolic links to directories are not followed",
				})
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !matchesLanguage(path, exts) {
			return nil
		}
		t, terr := New(path, language, allRules)
		if terr != nil {
			logger.Warn("cannot stat discovered file", "path", path, "error", terr)
			skipped = append(skipped, result.Skipped{
				Path:    path,
				Reason:  result.SkipUnreadable,
				Details: terr.Error(),
			})
			return nil
		}
		targets = append(targets, t)
		return nil
	})
	if walkErr != nil {
		return nil, nil, fmt.Errorf("target discovery failed under %q: %w", root, walkErr)
	}

	logger.Debug("target discovery finished", "root", root, "targets", len(targets), "skipped", len(skipped))
	return targets, skipped, nil
}

func matchesLanguage(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
