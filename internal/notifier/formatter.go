package notifier

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"MarketScanner/internal/model"
	"MarketScanner/internal/scanner"
)

// FormatScanReport formats a scan report into a Telegram HTML message.
func FormatScanReport(r *scanner.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Signal scan</b> | %s\n", r.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Scanned %d, scored %d\n\n", r.Scanned, len(r.Results)))

	if r.NoCandidates {
		b.WriteString("🔍 No instrument met any condition today.\n")
		writeSkips(&b, r)
		return b.String()
	}

	b.WriteString("🎯 <b>Picks:</b>\n")
	for _, row := range r.Rows {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s\n", row.Rank, html.EscapeString(row.Ticker), html.EscapeString(row.DisplayName)))
		b.WriteString(fmt.Sprintf("   Score %g | %.2f (%+.2f%%)\n", row.Score, row.Price, row.PctChange))
		b.WriteString(fmt.Sprintf("   %s\n", html.EscapeString(row.Triggers)))
		b.WriteString(fmt.Sprintf("   Buy: %s", QuantityText(row.Quantity, row.Unit)))
		if row.StopLoss > 0 {
			b.WriteString(fmt.Sprintf(" | stop %.2f", row.StopLoss))
		}
		b.WriteString("\n")
	}

	if r.Selection.FellBack {
		b.WriteString(fmt.Sprintf("\nℹ️ %s\n", html.EscapeString(r.Message)))
	}
	if r.HedgeWarning {
		b.WriteString("\n⚠️ An inverse/hedge instrument was selected; it gains when the market falls.\n")
	}
	writeSkips(&b, r)
	return b.String()
}

func writeSkips(b *strings.Builder, r *scanner.Report) {
	counts := r.SkipCounts()
	if len(counts) == 0 {
		return
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s %d", k, counts[scanner.ErrorKind(k)])
	}
	b.WriteString(fmt.Sprintf("\nSkipped: %s\n", strings.Join(parts, ", ")))
}

// QuantityText renders a quantity with its unit, e.g. "3 lots" or "120 shares".
func QuantityText(q int64, unit model.UnitKind) string {
	name := string(unit)
	if q != 1 {
		name += "s"
	}
	return fmt.Sprintf("%d %s", q, name)
}

// WriteTable writes the report as a plain-text table for the console.
func WriteTable(w io.Writer, r *scanner.Report) error {
	if r.NoCandidates {
		_, err := fmt.Fprintf(w, "%s\n", r.Message)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTICKER\tNAME\tSCORE\tPRICE\tCHG%\tQUANTITY\tSTOP\tSIGNALS")
	for _, row := range r.Rows {
		stop := "-"
		if row.StopLoss > 0 {
			stop = fmt.Sprintf("%.2f", row.StopLoss)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%.2f\t%+.2f\t%s\t%s\t%s\n",
			row.Rank, row.Ticker, row.DisplayName, row.Score, row.Price, row.PctChange,
			QuantityText(row.Quantity, row.Unit), stop, row.Triggers)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if r.Selection.FellBack {
		fmt.Fprintf(w, "\nnote: %s\n", r.Message)
	}
	if r.HedgeWarning {
		fmt.Fprintln(w, "warning: an inverse/hedge instrument was selected")
	}
	return nil
}

// FormatHelp lists the bot commands.
func FormatHelp(presets []string) string {
	var b strings.Builder
	b.WriteString("🤖 <b>Commands</b>\n\n")
	b.WriteString("/scan - run a scan with the configured settings\n")
	b.WriteString("/scan &lt;preset&gt; - run a scan with a named rule set and the configured overrides\n")
	b.WriteString("/help - show this message\n")
	if len(presets) > 0 {
		b.WriteString(fmt.Sprintf("\nPresets: %s\n", strings.Join(presets, ", ")))
	}
	return b.String()
}
