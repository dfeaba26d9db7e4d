package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lacquerai/parity/internal/engine"
	"github.com/lacquerai/parity/internal/parser"
	"github.com/lacquerai/parity/internal/style"
	"github.com/spf13/viper"
)

const barWidth = 24

// collectFiles expands args into audit files. Directories are walked only
// when recursive is set.
func collectFiles(args []string, recursive bool) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		switch {
		case info.IsDir() && recursive:
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && parser.IsAuditFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("error walking directory %s: %w", arg, err)
			}
		case info.IsDir():
			return nil, fmt.Errorf("%s is a directory, use --recursive to include directories", arg)
		case parser.IsAuditFile(arg):
			files = append(files, arg)
		default:
			return nil, fmt.Errorf("%s is not a parity audit file (%s)", arg, strings.Join(parser.SupportedExtensions(), " or "))
		}
	}

	sort.Strings(files)
	return files, nil
}

// printOutput writes data in the configured structured format. It reports
// false for text output so the caller can render its own view.
func printOutput(w io.Writer, data interface{}) (bool, error) {
	switch viper.GetString("output") {
	case "json":
		return true, style.PrintJSON(w, data)
	case "yaml":
		return true, style.PrintYAML(w, data)
	default:
		return false, nil
	}
}

func printResult(w io.Writer, result *engine.Result) {
	if result.Failed() {
		fmt.Fprintf(w, "%s %s\n", style.ErrorIcon(), style.TitleStyle.Render(result.Audit))
		fmt.Fprintf(w, "  %s\n\n", indent(result.Error, "  "))
		return
	}

	fmt.Fprintf(w, "%s %s\n",
		style.TitleStyle.Render(result.Audit),
		style.MutedStyle.Render(fmt.Sprintf("(%s, %d rows, threshold %.4g%%, missing %s)",
			result.Dataset, result.Rows, result.Threshold, result.Missing)),
	)

	fmt.Fprintf(w, "\n  %s\n", style.InfoStyle.Render("Bias check"))
	for pair := result.Report.BiasCheck.Oldest(); pair != nil; pair = pair.Next() {
		entry := pair.Value
		fmt.Fprintf(w, "  %s %s\n", style.ColumnStyle.Render(pair.Key), style.StatusBadge(entry.IsBiased))

		for share := entry.Distribution.Oldest(); share != nil; share = share.Next() {
			fmt.Fprintf(w, "    %s %s %s\n",
				style.ColumnStyle.Render(share.Key),
				style.FormatPercent(share.Value),
				style.Bar(share.Value/100, barWidth, entry.IsBiased && share.Value == entry.MaxPercentage),
			)
		}
	}

	if len(result.Report.Interpretability) > 0 {
		top := result.Report.Interpretability[0].Importance

		fmt.Fprintf(w, "\n  %s\n", style.InfoStyle.Render("Interpretability"))
		for i, entry := range result.Report.Interpretability {
			fraction := 0.0
			if top > 0 {
				fraction = entry.Importance / top
			}
			fmt.Fprintf(w, "  %2d. %s %8.4f %s\n",
				i+1,
				style.ColumnStyle.Render(entry.Feature),
				entry.Importance,
				style.Bar(fraction, barWidth, false),
			)
		}
	}

	fmt.Fprintln(w)
}

func indent(text, prefix string) string {
	return strings.ReplaceAll(text, "\n", "\n"+prefix)
}
