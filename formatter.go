package bindcheck

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/platformlab/bindcheck/runner"
	"github.com/platformlab/bindcheck/types"
)

// printResultsTable prints the results of the acceptance checks to the console.
func (c *Checker) printResultsTable(result *runner.RunnerResult) {
	c.config.Log.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Bindings Acceptance Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Platform", "Check", "Mode", "Duration", "Status", "Error",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Platform", AutoMerge: true},
		{Name: "Check", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, check := range result.Checks {
		errText := ""
		if check.Error != nil {
			errText = check.Error.Error()
		}
		t.AppendRow(table.Row{
			check.Platform,
			check.Check.Name,
			check.Check.Mode,
			formatDuration(check.Duration),
			getResultString(check.Status),
			errText,
		})
	}

	t.AppendFooter(table.Row{
		"", "", "",
		formatDuration(result.Duration),
		getResultString(result.Status),
		fmt.Sprintf("%d/%d passed", result.Stats.Passed, result.Stats.Total),
	})

	t.Render()
}

// getResultString returns a symbol-prefixed string for a check status
func getResultString(status types.CheckStatus) string {
	switch status {
	case types.CheckStatusPass:
		return "✓ pass"
	case types.CheckStatusSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

// formatDuration trims durations to a readable precision
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
