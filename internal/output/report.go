package output

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/networthpro/retirement-engine/internal/config"
)

// GenerateReport runs the named formatter and writes its output to a
// timestamped file in the working directory.
func GenerateReport(report *Report, format string) error {
	if f := GetFormatterByName(format); f != nil {
		_, err := WriteFormatted(f, report, extensionFor(f))
		return err
	}
	if NormalizeFormatName(format) == "all" {
		for _, f := range []Formatter{ConsoleFormatter{}, CSVExporter{}, JSONFormatter{}} {
			if _, err := WriteFormatted(f, report, extensionFor(f)); err != nil {
				return err
			}
		}
		return nil
	}
	// enrich error with available formatters and aliases
	return fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format,
		strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
}

// extensionFor maps a formatter to the file extension its output should carry
func extensionFor(f Formatter) string {
	switch f.Name() {
	case "csv":
		return "csv"
	case "json":
		return "json"
	default:
		return "txt"
	}
}

// SavePlan writes a plan out as YAML, for the example generator and for
// exporting plans pulled from the store.
func SavePlan(plan *config.Plan, filename string) error {
	b, err := yaml.Marshal(plan)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
