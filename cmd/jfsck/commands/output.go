package commands

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/aasselin/libjio/internal/checker"
)

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}

// printCheckResult renders a checker.Result as a two-column category/count
// table followed by the overall status.
func printCheckResult(w io.Writer, result *checker.Result, status int) {
	table := newTable(w, []string{"Category", "Count"})
	rows := [][2]string{
		{"total", strconv.Itoa(result.Total)},
		{"reapplied", strconv.Itoa(result.Reapplied)},
		{"in_progress", strconv.Itoa(result.InProgress)},
		{"broken", strconv.Itoa(result.Broken)},
		{"corrupt", strconv.Itoa(result.Corrupt)},
		{"invalid", strconv.Itoa(result.Invalid)},
		{"apply_error", strconv.Itoa(result.ApplyError)},
	}
	for _, r := range rows {
		table.Append([]string{r[0], r[1]})
	}
	table.Append([]string{"status", strconv.Itoa(status)})
	table.Render()
}
