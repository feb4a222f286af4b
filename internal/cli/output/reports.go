package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapyear/pkg/core"
)

const dateLayout = "2006-01-02"

func (r *Renderer) table(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(header)
	t.AppendRows(rows)
	if r.mode == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

// RunSummary is the end-of-run report.
type RunSummary struct {
	RunID         string             `json:"run_id,omitempty"`
	Status        core.RunStatus     `json:"status"`
	Phases        []core.PhaseResult `json:"-"`
	ProbeFailures int                `json:"probe_failures"`
	Elapsed       time.Duration      `json:"-"`
}

// Summary prints the per-phase tally of a finished run.
func (r *Renderer) Summary(s RunSummary) {
	if r.mode == ModeJSON {
		r.emit(Event{Event: "run_complete", RunID: s.RunID, Status: string(s.Status), Counts: totals(s.Phases)})
		return
	}

	rows := make([]table.Row, 0, len(s.Phases))
	for _, p := range s.Phases {
		note := ""
		switch {
		case p.Err != nil:
			note = p.Err.Error()
		case p.AlreadyComplete:
			note = "already complete"
		}
		rows = append(rows, table.Row{p.Number, p.Name, p.Created, p.Skipped, p.Errors, note})
	}

	r.Println()
	r.table(table.Row{"#", "Phase", "Created", "Skipped", "Errors", "Note"}, rows)

	status := fmt.Sprintf("Run %s: %s", s.RunID, s.Status)
	if s.RunID == "" {
		status = fmt.Sprintf("Run: %s", s.Status)
	}
	if s.Elapsed > 0 {
		status += fmt.Sprintf(" in %s", s.Elapsed.Round(time.Millisecond))
	}
	if r.mode == ModeText {
		style := r.styles.Success
		if s.Status != core.RunStatusCompleted {
			style = r.styles.Warning
		}
		status = style.Render(status)
	}
	r.Println(status)
	if s.ProbeFailures > 0 {
		r.Warning(fmt.Sprintf("%d existence checks failed and were treated as absent", s.ProbeFailures))
	}
}

func totals(phases []core.PhaseResult) *Counts {
	c := &Counts{}
	for _, p := range phases {
		c.Created += p.Created
		c.Skipped += p.Skipped
		c.Errors += p.Errors
	}
	return c
}

// Identifiers prints table ids only: KEY=value lines, or a JSON object.
func (r *Renderer) Identifiers(entries []core.EnvEntry) error {
	if r.mode == ModeJSON {
		obj := make(map[string]string, len(entries))
		for _, e := range entries {
			obj[e.Key] = e.TableID
		}
		return r.JSON(obj)
	}
	if len(entries) > 0 {
		r.Println(EnvLines(entries))
	}
	return nil
}

// CalendarRow is one week and the month that owns it.
type CalendarRow struct {
	Week  core.WeekBucket
	Month core.MonthBucket
}

type calendarJSON struct {
	Week  int    `json:"week"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
	Month string `json:"month"`
}

// Calendar prints the week spans of a year.
func (r *Renderer) Calendar(year int, rows []CalendarRow) error {
	if r.mode == ModeJSON {
		out := make([]calendarJSON, len(rows))
		for i, row := range rows {
			out[i] = calendarJSON{
				Week:  row.Week.Number,
				Title: row.Week.Title,
				Start: row.Week.Start.Format(dateLayout),
				End:   row.Week.End.Format(dateLayout),
				Month: row.Month.Title,
			}
		}
		return r.JSON(out)
	}

	trows := make([]table.Row, len(rows))
	for i, row := range rows {
		trows[i] = table.Row{
			row.Week.Title,
			row.Week.Start.Format("Mon " + dateLayout),
			row.Week.End.Format("Mon " + dateLayout),
			row.Month.Title,
		}
	}
	r.table(table.Row{"Week", "Start", "End", "Month"}, trows)
	r.Printf("%d weeks in %d\n", len(rows), year)
	return nil
}

// ColumnRow describes one source column and where it is provisioned.
type ColumnRow struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Phase  string `json:"phase"`
	Detail string `json:"detail,omitempty"`
}

// Schema prints the columns of a template table.
func (r *Renderer) Schema(tableName string, rows []ColumnRow) error {
	if r.mode == ModeJSON {
		return r.JSON(struct {
			Table   string      `json:"table"`
			Columns []ColumnRow `json:"columns"`
		}{tableName, rows})
	}

	trows := make([]table.Row, len(rows))
	for i, c := range rows {
		trows[i] = table.Row{c.Name, c.Kind, c.Phase, c.Detail}
	}
	if r.mode == ModeMarkdown {
		r.Printf("## %s\n\n", tableName)
	} else {
		r.Println(r.styles.Header.Render(tableName))
	}
	r.table(table.Row{"Column", "Kind", "Phase", "Detail"}, trows)
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// Runs prints journaled runs, most recent first.
func (r *Renderer) Runs(runs []core.RunRecord) error {
	if r.mode == ModeJSON {
		if runs == nil {
			runs = []core.RunRecord{}
		}
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Println("No runs recorded.")
		return nil
	}

	rows := make([]table.Row, len(runs))
	for i, run := range runs {
		started := run.StartedAt
		rows[i] = table.Row{run.ID, run.Year, run.Status, formatTime(&started), formatTime(run.CompletedAt), run.ContainerID}
	}
	r.table(table.Row{"Run", "Year", "Status", "Started", "Completed", "Container"}, rows)
	return nil
}

// RunDetail is everything the journal knows about one run.
type RunDetail struct {
	Run      core.RunRecord     `json:"run"`
	Phases   []core.PhaseRecord `json:"phases"`
	Failures []core.ItemFailure `json:"failures"`
	Tables   []core.EnvEntry    `json:"tables"`
}

// Run prints one journaled run.
func (r *Renderer) Run(d RunDetail) error {
	if r.mode == ModeJSON {
		return r.JSON(d)
	}

	title := fmt.Sprintf("Run %s (%d): %s", d.Run.ID, d.Run.Year, d.Run.Status)
	if r.mode == ModeText {
		title = r.styles.Header.Render(title)
	}
	r.Println(title)
	if d.Run.Error != "" {
		r.Println("error: " + d.Run.Error)
	}

	rows := make([]table.Row, len(d.Phases))
	for i, p := range d.Phases {
		note := p.Error
		if note == "" && p.AlreadyComplete {
			note = "already complete"
		}
		rows[i] = table.Row{p.Number, p.Name, p.Created, p.Skipped, p.Errors, note}
	}
	r.table(table.Row{"#", "Phase", "Created", "Skipped", "Errors", "Note"}, rows)

	if len(d.Failures) > 0 {
		frows := make([]table.Row, len(d.Failures))
		for i, f := range d.Failures {
			frows[i] = table.Row{f.Phase, f.Index, f.Label, f.Error}
		}
		r.Println()
		r.table(table.Row{"Phase", "Item", "Label", "Error"}, frows)
	}

	if len(d.Tables) > 0 {
		r.Println()
		r.Println(EnvLines(d.Tables))
	}
	return nil
}
