package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer writes human or machine output for one command invocation.
// Progress and reports go to out; warnings go to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles *Styles
	now    func() time.Time

	// started is the phase whose header was last printed.
	started int
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	lr := lipgloss.NewRenderer(out)
	if isTTY {
		lr.SetColorProfile(termenv.EnvColorProfile())
	} else {
		lr.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode.resolve(isTTY),
		isTTY:  isTTY,
		styles: NewStyles(lr),
		now:    time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mode returns the effective output mode.
func (r *Renderer) Mode() OutputMode {
	return r.mode
}

// SetMode overrides the output mode, e.g. for a --json flag.
func (r *Renderer) SetMode(mode OutputMode) {
	r.mode = mode.resolve(r.isTTY)
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Styles returns the text-mode styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Out returns the main output writer.
func (r *Renderer) Out() io.Writer {
	return r.out
}

// Println writes a line to the main output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the main output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Warning writes a warning to the error output.
func (r *Renderer) Warning(msg string) {
	if r.mode == ModeText {
		_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: "+msg))
		return
	}
	_, _ = fmt.Fprintln(r.errOut, "warning: "+msg)
}

// Event is one JSON-lines record.
type Event struct {
	Event     string       `json:"event"`
	Timestamp string       `json:"timestamp"`
	Phase     int          `json:"phase,omitempty"`
	Name      string       `json:"name,omitempty"`
	Items     int          `json:"items,omitempty"`
	Index     int          `json:"index,omitempty"`
	Label     string       `json:"label,omitempty"`
	Outcome   string       `json:"outcome,omitempty"`
	Error     string       `json:"error,omitempty"`
	Counts    *Counts      `json:"counts,omitempty"`
	Complete  bool         `json:"already_complete,omitempty"`
	Tables    []TableEntry `json:"tables,omitempty"`
	Steps     []string     `json:"steps,omitempty"`
	RunID     string       `json:"run_id,omitempty"`
	Status    string       `json:"status,omitempty"`
}

// Counts is a phase tally.
type Counts struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// TableEntry is a key and table id pair.
type TableEntry struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

func (r *Renderer) emit(e Event) {
	e.Timestamp = r.now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.out, string(data))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
