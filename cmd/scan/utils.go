package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/sastkit/sastkit/internal/report"
	"github.com/sastkit/sastkit/internal/result"
	"github.com/sastkit/sastkit/pkg/shared"
	"github.com/sastkit/sastkit/pkg/shared/files"
)

// writeResult renders the final result in the requested format, to stdout or
// to the output file.
func writeResult(final *result.FinalResult, o *RunOptionsScan, log hclog.Logger) error {
	if o.OutputPath != "" {
		if err := files.CreateFolderIfNotExists(filepath.Dir(o.OutputPath)); err != nil {
			return err
		}
	}
	switch o.Format {
	case "sarif":
		sarifReport, err := report.ToSarif(final)
		if err != nil {
			return fmt.Errorf("failed to convert result to sarif: %w", err)
		}
		if o.OutputPath != "" {
			if err := sarifReport.WriteFile(o.OutputPath); err != nil {
				return fmt.Errorf("failed to write sarif report to %q: %w", o.OutputPath, err)
			}
			log.Info("results saved to file", "path", o.OutputPath)
			return nil
		}
		return sarifReport.PrettyWrite(os.Stdout)
	case "json", "":
		if o.OutputPath != "" {
			return shared.WriteJSONFile(final, o.OutputPath, log)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "    ")
		return enc.Encode(final)
	default:
		return fmt.Errorf("unknown report format %q", o.Format)
	}
}
