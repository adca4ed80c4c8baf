package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/weekcloud/internal/engagement"
	"github.com/verte-zerg/weekcloud/internal/model"
	"github.com/verte-zerg/weekcloud/internal/pipeline"
)

const (
	sparkChars = " .:-=+*#%@"
	barChar    = "█"
	barWidth   = 24
)

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Bar renders v as a horizontal bar scaled so that maxVal fills width cells.
func Bar(v, maxVal float64, width int) string {
	if maxVal <= 0 || v <= 0 || width <= 0 {
		return ""
	}
	n := int(math.Round(v / maxVal * float64(width)))
	if n < 1 {
		n = 1
	}
	if n > width {
		n = width
	}
	return strings.Repeat(barChar, n)
}

func writeLines(w io.Writer, lines ...string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WindowLines describes one pipeline result: week, counts, mean score and
// the topN terms.
func WindowLines(res pipeline.Result, topN int) []string {
	lines := []string{fmt.Sprintf("Week %s (%s)", res.Window.Key(), res.Window)}
	if res.Stats.Count == 0 {
		return append(lines, "No reviews for the selected week.")
	}
	lines = append(lines,
		fmt.Sprintf("Total reviews for the selected week: %d", res.Stats.Count),
		fmt.Sprintf("Average rating for the selected week: %.2f", res.Stats.MeanScore),
		fmt.Sprintf("Terms: %d distinct, %d placed, %d dropped", res.Table.Len(), len(res.Placements), len(res.Dropped)+res.Truncated),
		"",
	)
	entries := res.Table.Top(topN)
	if len(entries) == 0 {
		return lines
	}
	total := float64(res.Table.Total())
	maxCount := float64(entries[0].Count)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Term,
			fmt.Sprintf("%d", e.Count),
			fmt.Sprintf("%.1f%%", float64(e.Count)/total*100),
			Bar(float64(e.Count), maxCount, barWidth),
		})
	}
	return append(lines, formatTable([]string{"Term", "Count", "Share", ""}, rows, map[int]bool{1: true, 2: true})...)
}

// RenderWindow prints WindowLines.
func RenderWindow(w io.Writer, res pipeline.Result, topN int) error {
	return writeLines(w, WindowLines(res, topN)...)
}

// WeekRows returns table rows for populated weeks.
func WeekRows(weeks []model.WeekSummary) [][]string {
	rows := make([][]string, 0, len(weeks))
	for _, wk := range weeks {
		rows = append(rows, []string{
			wk.Key,
			wk.Start.Format("2006-01-02"),
			wk.End.AddDate(0, 0, -1).Format("2006-01-02"),
			fmt.Sprintf("%d", wk.Count),
			fmt.Sprintf("%.2f", wk.MeanScore),
		})
	}
	return rows
}

// RenderWeeks prints a table of populated weeks with a sparkline of counts.
func RenderWeeks(w io.Writer, weeks []model.WeekSummary) error {
	if len(weeks) == 0 {
		return writeLines(w, "No reviews found.")
	}
	counts := make([]float64, len(weeks))
	for i, wk := range weeks {
		counts[i] = float64(wk.Count)
	}
	lines := formatTable([]string{"Week", "From", "To", "Reviews", "Avg Score"}, WeekRows(weeks), map[int]bool{3: true, 4: true})
	lines = append(lines, "", "Reviews per week: "+Sparkline(counts), "")
	return writeLines(w, lines...)
}

// RenderImports prints the import history, newest first.
func RenderImports(w io.Writer, imports []model.ImportInfo) error {
	rows := make([][]string, 0, len(imports))
	for _, imp := range imports {
		rows = append(rows, []string{
			imp.ImportedAt.Local().Format("2006-01-02 15:04"),
			imp.Kind,
			fmt.Sprintf("%d", imp.Rows),
			imp.Source,
		})
	}
	return writeLines(w, formatTable([]string{"Imported", "Kind", "Rows", "Source"}, rows, map[int]bool{2: true})...)
}

// CardValues returns the three headline figures of a summary with their
// change lines ("" when there is no previous frame).
func CardValues(s engagement.Summary) [3][2]string {
	var out [3][2]string
	out[0][0] = engagement.FormatCount(s.Totals.Reach)
	out[1][0] = engagement.FormatCount(s.Totals.EngagedUsers)
	out[2][0] = fmt.Sprintf("%.2f%%", s.Totals.Rate)
	if s.Change != nil {
		out[0][1] = engagement.FormatChange(s.Change.Reach, false)
		out[1][1] = engagement.FormatChange(s.Change.EngagedUsers, false)
		out[2][1] = engagement.FormatChange(s.Change.Rate, true)
	}
	return out
}

// CardTitles label the CardValues.
var CardTitles = [3]string{"Total Reach", "Total Engagement", "Avg. Engagement Rate"}

func sliceLines(title string, slices []engagement.Slice, format string) []string {
	lines := []string{title}
	if len(slices) == 0 {
		return append(lines, "  (no posts)", "")
	}
	maxVal := 0.0
	for _, s := range slices {
		maxVal = math.Max(maxVal, s.Value)
	}
	rows := make([][]string, 0, len(slices))
	for _, s := range slices {
		rows = append(rows, []string{"  " + s.Label, fmt.Sprintf(format, s.Value), Bar(s.Value, maxVal, barWidth)})
	}
	lines = append(lines, formatTable(nil, rows, map[int]bool{1: true})...)
	return append(lines, "")
}

// DashboardLines renders an engagement summary. chartWidth sets the hourly
// braille chart width in cells; 0 skips the chart.
func DashboardLines(s engagement.Summary, chartWidth int, useColor bool) []string {
	lines := []string{fmt.Sprintf("Engagement (%s, %d posts)", s.Frame.Label(), s.Totals.Posts), ""}
	values := CardValues(s)
	cardRows := make([][]string, 0, len(values))
	for i, v := range values {
		cardRows = append(cardRows, []string{CardTitles[i], v[0], v[1]})
	}
	lines = append(lines, formatTable(nil, cardRows, map[int]bool{1: true})...)
	lines = append(lines, "")
	lines = append(lines, sliceLines("Interactions by Post Type", s.ByType, "%.0f")...)
	lines = append(lines, sliceLines("Engagement by Weekday", s.ByWeekday, "%.0f")...)
	lines = append(lines, sliceLines("Average Engagement by Hour", s.ByHour, "%.1f")...)
	if chartWidth > 0 && len(s.ByHour) > 1 {
		values := make([]float64, len(s.ByHour))
		for i, h := range s.ByHour {
			values[i] = h.Value
		}
		lines = append(lines, ChartLines(values, chartWidth, 6, useColor)...)
		lines = append(lines, "")
	}
	if len(s.TopPosts) > 0 {
		rows := make([][]string, 0, len(s.TopPosts))
		for _, p := range s.TopPosts {
			rows = append(rows, []string{
				fmt.Sprintf("%d", p.Index+1),
				p.Type,
				engagement.FormatCount(p.Reach),
				engagement.FormatCount(p.EngagedUsers),
				fmt.Sprintf("%.2f%%", p.Rate),
			})
		}
		lines = append(lines, "Reach vs Engagement (top posts by rate)")
		lines = append(lines, formatTable([]string{"Post", "Type", "Reach", "Engaged", "Rate"}, rows, map[int]bool{0: true, 2: true, 3: true, 4: true})...)
	}
	return lines
}

// RenderDashboard prints DashboardLines.
func RenderDashboard(w io.Writer, s engagement.Summary, chartWidth int, useColor bool) error {
	return writeLines(w, DashboardLines(s, chartWidth, useColor)...)
}
