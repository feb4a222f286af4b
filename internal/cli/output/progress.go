package output

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapyear/pkg/core"
)

// Outcome glyphs.
const (
	glyphCreated = "+"
	glyphSkipped = "="
	glyphFailed  = "x"
)

func (r *Renderer) glyph(o core.Outcome) string {
	switch o {
	case core.OutcomeCreated:
		return r.styles.Success.Render(glyphCreated)
	case core.OutcomeSkipped:
		return r.styles.Muted.Render(glyphSkipped)
	default:
		return r.styles.Error.Render(glyphFailed)
	}
}

func counts(res core.PhaseResult) *Counts {
	return &Counts{Created: res.Created, Skipped: res.Skipped, Errors: res.Errors}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (r *Renderer) header(number int, name string) {
	r.started = number
	switch r.mode {
	case ModeMarkdown:
		r.Printf("\n## Phase %d: %s\n\n", number, name)
	default:
		r.Println(r.styles.Header.Render(fmt.Sprintf("Phase %d: %s", number, name)))
	}
}

// PhaseStart prints the phase header.
func (r *Renderer) PhaseStart(number int, name string, items int) {
	if r.mode == ModeJSON {
		r.started = number
		r.emit(Event{Event: "phase_start", Phase: number, Name: name, Items: items})
		return
	}
	r.header(number, name)
}

// PhaseSkipped prints the short-circuit line of a phase whose work is done.
func (r *Renderer) PhaseSkipped(res core.PhaseResult) {
	switch r.mode {
	case ModeJSON:
		r.emit(Event{Event: "phase_skipped", Phase: res.Number, Name: res.Name, Counts: counts(res), Complete: true})
	case ModeMarkdown:
		r.Printf("Already complete, skipping (%d items).\n", res.Skipped)
	default:
		r.Println(r.styles.Muted.Render(fmt.Sprintf("  already complete, skipping (%d items)", res.Skipped)))
	}
}

// Item prints one processed item.
func (r *Renderer) Item(phase, index int, label string, outcome core.Outcome, err error) {
	switch r.mode {
	case ModeJSON:
		r.emit(Event{Event: "item", Phase: phase, Index: index, Label: label, Outcome: string(outcome), Error: errString(err)})
	case ModeMarkdown:
		line := fmt.Sprintf("- %d. %s: %s", index, outcome, label)
		if err != nil {
			line += fmt.Sprintf(" (`%s`)", err)
		}
		r.Println(line)
	default:
		line := fmt.Sprintf("  %s %3d %s", r.glyph(outcome), index, label)
		if err != nil {
			line += " " + r.styles.Error.Render(err.Error())
		}
		r.Println(line)
	}
}

// PhaseDone prints the phase tally.
func (r *Renderer) PhaseDone(res core.PhaseResult) {
	if r.mode == ModeJSON {
		r.emit(Event{Event: "phase_done", Phase: res.Number, Name: res.Name, Counts: counts(res), Error: errString(res.Err)})
		return
	}

	// A phase that failed before its item loop never announced itself.
	if r.started != res.Number {
		r.header(res.Number, res.Name)
	}

	summary := fmt.Sprintf("created %d, skipped %d, errors %d", res.Created, res.Skipped, res.Errors)
	if r.mode == ModeMarkdown {
		r.Printf("\n**%s**\n", summary)
		if res.Err != nil {
			r.Printf("\nPhase failed: `%s`\n", res.Err)
		}
		return
	}

	style := r.styles.Success
	if res.Failed() {
		style = r.styles.Warning
	}
	r.Println("  " + style.Render(summary))
	if res.Err != nil {
		r.Println("  " + r.styles.Error.Render("phase failed: "+res.Err.Error()))
	}
}

// Env prints the provisioned table ids as KEY=value lines.
func (r *Renderer) Env(entries []core.EnvEntry) {
	switch r.mode {
	case ModeJSON:
		r.emit(Event{Event: "tables", Tables: tableEntries(entries)})
	case ModeMarkdown:
		r.Println("\n```env")
		r.Println(EnvLines(entries))
		r.Println("```")
	default:
		r.Println(r.styles.Header.Render("Table ids"))
		for _, e := range entries {
			r.Println(r.styles.Key.Render(e.Key) + "=" + e.TableID)
		}
	}
}

// ManualSteps prints the follow-up actions the API cannot perform.
func (r *Renderer) ManualSteps(steps []string) {
	if len(steps) == 0 {
		return
	}
	switch r.mode {
	case ModeJSON:
		r.emit(Event{Event: "manual_steps", Steps: steps})
	case ModeMarkdown:
		r.Printf("\n## Manual steps\n\n")
		for i, s := range steps {
			r.Printf("%d. %s\n", i+1, s)
		}
	default:
		r.Println(r.styles.Header.Render("Manual steps"))
		for i, s := range steps {
			r.Printf("  %d. %s\n", i+1, s)
		}
	}
}

// EnvLines formats entries as KEY=value lines.
func EnvLines(entries []core.EnvEntry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Key + "=" + e.TableID
	}
	return strings.Join(lines, "\n")
}

func tableEntries(entries []core.EnvEntry) []TableEntry {
	out := make([]TableEntry, len(entries))
	for i, e := range entries {
		out[i] = TableEntry{Key: e.Key, ID: e.TableID}
	}
	return out
}
