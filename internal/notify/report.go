package notify

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/shanehull/promowatch/internal/types"
)

// ReportCodes prints both code categories as tables.
func ReportCodes(w io.Writer, res types.ExtractionResult, sourceURL string) {
	fmt.Fprintf(w, "%s promo codes (source: %s)\n", GameName, sourceURL)
	fmt.Fprintf(w, "Last checked/updated: %s\n", res.UpdateLabel)
	if !res.FetchedAt.IsZero() {
		fmt.Fprintf(w, "Fetched at: %s\n", res.FetchedAt.Format("02 Jan 2006 3:04 PM"))
	}
	fmt.Fprintln(w)

	renderCodeTable(w, "Time-Limited Codes", res.TimeLimited, "None detected right now, check the source page directly.")
	fmt.Fprintln(w)
	renderCodeTable(w, "New Player / Long-term Codes", res.NewPlayer, "None found")
}

func renderCodeTable(w io.Writer, title string, records []types.CodeRecord, empty string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Code", "Reward"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, WidthMax: 60},
	})

	if len(records) == 0 {
		t.AppendRow(table.Row{"", empty, ""})
	}
	for i, r := range records {
		t.AppendRow(table.Row{i + 1, r.Code, r.Reward})
	}

	t.Render()
}
