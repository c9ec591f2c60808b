package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/edd-cli/internal/compliance"
	"github.com/sells-group/edd-cli/internal/edd"
	"github.com/sells-group/edd-cli/internal/edd/resolve"
	"github.com/sells-group/edd-cli/internal/ingest"
	"github.com/sells-group/edd-cli/internal/model"
)

var (
	inspectFile string
	inspectJSON bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Parse a local EDD file without a database and print the extraction",
	Long:  "Runs the classifier, canonicalizer and holding-time checks against a local file. Parameters resolve through the built-in alias table only; outfalls stay unresolved.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("inspect"); err != nil {
			return err
		}

		data, err := inspectLocal(inspectFile)
		if err != nil {
			return err
		}
		if inspectJSON {
			return printJSON(cmd.OutOrStdout(), data)
		}
		writeSummary(cmd.OutOrStdout(), data)
		return nil
	},
}

// inspectLocal parses path with the offline resolver.
func inspectLocal(path string) (*model.ExtractedLabData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}

	name := filepath.Base(path)
	classified, err := ingest.ReadFile(name, raw, cfg.Parse.MaxFileBytes, cfg.Parse.MaxRows)
	if err != nil {
		return nil, err
	}

	static, err := resolve.DefaultStaticTable()
	if err != nil {
		return nil, err
	}
	holdTimes, err := compliance.DefaultHoldTimes()
	if err != nil {
		return nil, err
	}

	res := edd.Parse(classified, edd.Options{
		FileName: name,
		Limits: edd.Limits{
			MaxRecords:            cfg.Parse.MaxRecords,
			MaxValidationErrors:   cfg.Parse.MaxValidationErrors,
			MaxHoldTimeViolations: cfg.Parse.MaxHoldTimeViolations,
		},
		Resolver:  resolve.NewCache(resolve.Inputs{Static: static}),
		HoldTimes: holdTimes,
	})
	return res.Data, nil
}

func writeSummary(w io.Writer, d *model.ExtractedLabData) {
	fmt.Fprintf(w, "file:        %s (%d columns)\n", d.FileName, d.ColumnCount)
	fmt.Fprintf(w, "rows:        %d total, %d parsed, %d skipped\n", d.TotalRows, d.ParsedRows, d.SkippedRows)
	fmt.Fprintf(w, "permits:     %s\n", strings.Join(d.PermitNumbers, ", "))
	if d.DateRange != nil {
		fmt.Fprintf(w, "dates:       %s to %s\n", d.DateRange.Start, d.DateRange.End)
	}
	fmt.Fprintf(w, "parameters:  %d resolved of %d\n", d.ResolvedParameters, len(d.Parameters))
	if len(d.UnknownParameters) > 0 {
		fmt.Fprintf(w, "unknown:     %s\n", strings.Join(d.UnknownParameters, ", "))
	}
	fmt.Fprintf(w, "validation:  %d errors\n", d.TotalValidationErrors)
	fmt.Fprintf(w, "hold times:  %d violations\n", d.TotalHoldTimeViolations)
	for _, warn := range d.Warnings {
		fmt.Fprintf(w, "warning:     %s\n", warn)
	}
}

func init() {
	inspectCmd.Flags().StringVar(&inspectFile, "file", "", "path to a local .xlsx or .csv file (required)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the full extraction as JSON")
	_ = inspectCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(inspectCmd)
}
